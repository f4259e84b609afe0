package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/pterm/pterm"
)

const usage = `Usage: garagectl <command> [args]

Commands:
  login                 obtain an API token interactively
  vehicles              list accessible vehicles
  recalls <vehicle-id>  list open recalls for a vehicle
  live <vehicle-id>     show the live telemetry snapshot (-watch 2s to refresh)
  tolls <vehicle-id>    show monthly toll totals

Environment:
  GARAGECTL_API    API base URL (default http://localhost:8080)
  GARAGECTL_TOKEN  bearer token from garagectl login
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	baseURL := os.Getenv("GARAGECTL_API")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := newAPIClient(baseURL, os.Getenv("GARAGECTL_TOKEN"))

	var err error
	switch os.Args[1] {
	case "login":
		err = runLogin(client)
	case "vehicles":
		err = runVehicles(client)
	case "recalls":
		err = withVehicleID(os.Args[2:], func(id int64) error { return runRecalls(client, id) })
	case "live":
		err = runLive(client, os.Args[2:])
	case "tolls":
		err = withVehicleID(os.Args[2:], func(id int64) error { return runTolls(client, id) })
	default:
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func withVehicleID(args []string, run func(int64) error) error {
	if len(args) < 1 {
		return fmt.Errorf("vehicle id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad vehicle id %q", args[0])
	}
	return run(id)
}

func runLogin(client *apiClient) error {
	email, _ := pterm.DefaultInteractiveTextInput.Show("Email")
	password, _ := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")

	token, err := client.login(email, password)
	if err != nil {
		return err
	}
	pterm.Success.Println("Logged in.")
	pterm.Info.Printf("export GARAGECTL_TOKEN=%s\n", token)
	return nil
}

func runVehicles(client *apiClient) error {
	vehicles, err := client.listVehicles()
	if err != nil {
		return err
	}
	if len(vehicles) == 0 {
		pterm.Info.Println("No vehicles.")
		return nil
	}

	data := pterm.TableData{{"ID", "Nickname", "Make", "Model", "Year", "VIN", "Odometer (km)"}}
	for _, v := range vehicles {
		data = append(data, []string{
			strconv.FormatInt(v.ID, 10),
			v.Nickname,
			v.Make,
			v.Model,
			strconv.Itoa(v.Year),
			v.VIN,
			fmt.Sprintf("%.0f", v.OdometerKm),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runRecalls(client *apiClient, vehicleID int64) error {
	recalls, err := client.listRecalls(vehicleID)
	if err != nil {
		return err
	}
	if len(recalls) == 0 {
		pterm.Success.Println("No open recalls.")
		return nil
	}

	data := pterm.TableData{{"Campaign", "Component", "Issued", "Ack", "Summary"}}
	for _, r := range recalls {
		ack := ""
		if r.Acknowledged {
			ack = "yes"
		}
		data = append(data, []string{
			r.CampaignNumber,
			r.Component,
			r.IssuedAt.Format("2006-01-02"),
			ack,
			truncate(r.Summary, 60),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runLive(client *apiClient, args []string) error {
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	unitSystem := fs.String("units", "", "unit system: metric or imperial")
	watch := fs.Duration("watch", 0, "refresh interval, e.g. 2s (0 prints once)")
	if len(args) < 1 {
		return fmt.Errorf("vehicle id required")
	}
	vehicleID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad vehicle id %q", args[0])
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if *watch <= 0 {
		table, err := liveTable(client, vehicleID, *unitSystem)
		if err != nil {
			return err
		}
		fmt.Print(table)
		return nil
	}

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		return err
	}
	defer area.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(*watch)
	defer ticker.Stop()
	for {
		table, err := liveTable(client, vehicleID, *unitSystem)
		if err != nil {
			return err
		}
		area.Update(table)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func liveTable(client *apiClient, vehicleID int64, unitSystem string) (string, error) {
	values, err := client.liveSnapshot(vehicleID, unitSystem)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "No live data. Is the LiveLink device online?\n", nil
	}

	sort.Slice(values, func(i, j int) bool { return values[i].DisplayName < values[j].DisplayName })

	data := pterm.TableData{{"Parameter", "Value", "Recorded"}}
	for _, v := range values {
		value := v.Formatted
		if v.Unit != "" {
			value += " " + v.Unit
		}
		data = append(data, []string{v.DisplayName, value, v.RecordedAt.Format("15:04:05")})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	return table + "\n", nil
}

func runTolls(client *apiClient, vehicleID int64) error {
	months, err := client.tollSummary(vehicleID)
	if err != nil {
		return err
	}
	if len(months) == 0 {
		pterm.Info.Println("No toll activity.")
		return nil
	}

	data := pterm.TableData{{"Month", "Crossings", "Total"}}
	for _, m := range months {
		data = append(data, []string{
			m.Month,
			strconv.FormatInt(m.Count, 10),
			fmt.Sprintf("$%.2f", float64(m.TotalCents)/100),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
