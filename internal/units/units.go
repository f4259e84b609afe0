// Package units normalizes raw LiveLink telemetry readings for display.
// Readings arrive in metric units; callers pick the unit system to render in.
package units

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// System selects the display unit system. It comes from the user preference
// store and is treated as opaque input here.
type System string

const (
	SystemMetric   System = "metric"
	SystemImperial System = "imperial"
)

// ParseSystem maps a raw preference string onto a System, defaulting to metric.
func ParseSystem(raw string) System {
	if strings.EqualFold(strings.TrimSpace(raw), string(SystemImperial)) {
		return SystemImperial
	}
	return SystemMetric
}

// Category is the physical quantity a parameter represents.
type Category string

const (
	CategoryNone        Category = "none"
	CategorySpeed       Category = "speed"
	CategoryTemperature Category = "temperature"
	CategoryDistance    Category = "distance"
	CategoryPressure    Category = "pressure"
)

// Converted is a reading transformed into the requested unit system.
type Converted struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Conversion factors. Sources emit km/h, °C, km and kPa/bar.
const (
	kmToMiles = 0.621371
	kpaToPSI  = 0.145038
	barToPSI  = 14.5038
)

// Classify determines the physical quantity behind a parameter key and its
// optional source unit. Categories are tested in a fixed order and the first
// match wins: a key matching both speed and temperature keywords resolves to
// speed. Unknown input yields CategoryNone, never an error.
func Classify(paramKey, unit string) Category {
	key := strings.ToLower(paramKey)
	u := strings.ToLower(strings.TrimSpace(unit))

	switch {
	case containsAny(key, "speed", "vehiclespeed") || u == "km/h" || u == "kmh":
		return CategorySpeed
	case containsAny(key, "temp", "coolant", "ambient", "intake") || u == "°c" || u == "c" || u == "celsius":
		return CategoryTemperature
	case containsAny(key, "distance", "odometer", "mileage") || u == "km" || u == "kilometers":
		return CategoryDistance
	case containsAny(key, "press", "baro", "manifold") || u == "kpa" || u == "bar":
		return CategoryPressure
	default:
		return CategoryNone
	}
}

// Convert transforms a metric reading into the requested unit system.
//
// Metric is the native representation, so that branch is an identity pass
// with no classification step. For imperial, the parameter is classified and
// the matching conversion applied; quantities with no metric/imperial
// distinction (RPM, percentage, voltage) pass through unchanged. The function
// is total: malformed units fall back to the kPa default inside the pressure
// branch and unknown categories pass through, never an error.
func Convert(value float64, paramKey, unit string, system System) Converted {
	if system != SystemImperial {
		return Converted{Value: value, Unit: unit}
	}

	switch Classify(paramKey, unit) {
	case CategorySpeed:
		return Converted{Value: value * kmToMiles, Unit: "mph"}
	case CategoryTemperature:
		return Converted{Value: value*9/5 + 32, Unit: "°F"}
	case CategoryDistance:
		return Converted{Value: value * kmToMiles, Unit: "mi"}
	case CategoryPressure:
		if strings.ToLower(strings.TrimSpace(unit)) == "bar" {
			return Converted{Value: value * barToPSI, Unit: "PSI"}
		}
		return Converted{Value: value * kpaToPSI, Unit: "PSI"}
	default:
		return Converted{Value: value, Unit: unit}
	}
}

var groupingPrinter = message.NewPrinter(language.English)

// FormatValue renders a value with precision appropriate to the parameter.
// The keyword list here is deliberately independent of Classify: the two are
// pinned by separate tests and must not drift toward each other silently.
func FormatValue(value float64, paramKey string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	key := strings.ToLower(paramKey)
	switch {
	case containsAny(key, "rpm", "speed", "odometer", "distance"):
		return groupingPrinter.Sprintf("%d", int64(math.Round(value)))
	case containsAny(key, "temp", "%", "throttle", "load"):
		return strconv.FormatFloat(value, 'f', 1, 64)
	case containsAny(key, "volt", "battery"):
		return strconv.FormatFloat(value, 'f', 2, 64)
	default:
		return strconv.FormatFloat(value, 'f', 1, 64)
	}
}

// DisplayName derives a human-friendly label for a parameter key. A non-empty
// explicit name wins outright. Otherwise the key is cleaned up: a leading
// two-hex-digit prefix like "0D-" is stripped, camelCase is split into words,
// underscores become spaces and each token is title-cased.
func DisplayName(paramKey, displayName string) string {
	if displayName != "" {
		return displayName
	}

	key := stripHexPrefix(paramKey)

	var b strings.Builder
	b.Grow(len(key) + 4)
	runes := []rune(key)
	for i, r := range runes {
		if r == '_' {
			b.WriteRune(' ')
			continue
		}
		if i > 0 && isLower(runes[i-1]) && isUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}

	fields := strings.Fields(b.String())
	for i, f := range fields {
		fields[i] = titleCase(f)
	}
	return strings.Join(fields, " ")
}

func stripHexPrefix(key string) string {
	if len(key) >= 3 && key[2] == '-' && isHex(key[0]) && isHex(key[1]) {
		return key[3:]
	}
	return key
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
