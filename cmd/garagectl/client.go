package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// apiClient is a thin wrapper over the mygarage REST API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type vehicle struct {
	ID         int64   `json:"id"`
	VIN        string  `json:"vin"`
	Nickname   string  `json:"nickname"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	Year       int     `json:"year"`
	OdometerKm float64 `json:"odometer_km"`
}

type recall struct {
	CampaignNumber string    `json:"campaign_number"`
	Component      string    `json:"component"`
	Summary        string    `json:"summary"`
	IssuedAt       time.Time `json:"issued_at"`
	Acknowledged   bool      `json:"acknowledged"`
}

type liveValue struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Formatted   string    `json:"formatted"`
	Unit        string    `json:"unit"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type tollMonth struct {
	Month      string `json:"month"`
	Count      int64  `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

func (c *apiClient) login(email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *apiClient) listVehicles() ([]vehicle, error) {
	var resp struct {
		Vehicles []vehicle `json:"vehicles"`
	}
	if err := c.do(http.MethodGet, "/api/vehicles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Vehicles, nil
}

func (c *apiClient) listRecalls(vehicleID int64) ([]recall, error) {
	var resp struct {
		Recalls []recall `json:"recalls"`
	}
	path := fmt.Sprintf("/api/vehicles/%d/recalls", vehicleID)
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Recalls, nil
}

func (c *apiClient) liveSnapshot(vehicleID int64, unitSystem string) ([]liveValue, error) {
	var resp struct {
		Values []liveValue `json:"values"`
	}
	path := fmt.Sprintf("/api/vehicles/%d/livelink/live", vehicleID)
	if unitSystem != "" {
		path += "?units=" + unitSystem
	}
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *apiClient) tollSummary(vehicleID int64) ([]tollMonth, error) {
	var resp struct {
		Months []tollMonth `json:"months"`
	}
	path := fmt.Sprintf("/api/vehicles/%d/tolls/summary", vehicleID)
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Months, nil
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
