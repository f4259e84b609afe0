package units

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		paramKey string
		unit     string
		want     Category
	}{
		{"speed by key", "SPEED", "", CategorySpeed},
		{"vehicle speed key", "0D-VehicleSpeed", "", CategorySpeed},
		{"speed by unit", "unknown_param", "km/h", CategorySpeed},
		{"speed by kmh unit", "unknown_param", "kmh", CategorySpeed},
		{"coolant temperature", "COOLANT_TMP", "", CategoryTemperature},
		{"ambient temperature", "AMBIENT_AIR", "", CategoryTemperature},
		{"intake temperature", "INTAKE_AIR", "", CategoryTemperature},
		{"temperature by unit", "reading", "°C", CategoryTemperature},
		{"temperature by celsius unit", "reading", "Celsius", CategoryTemperature},
		{"odometer", "ODOMETER", "", CategoryDistance},
		{"mileage", "trip_mileage", "", CategoryDistance},
		{"distance by unit", "reading", "km", CategoryDistance},
		{"fuel pressure", "FUEL_PRESSURE", "", CategoryPressure},
		{"barometric", "BARO", "", CategoryPressure},
		{"manifold", "MANIFOLD_ABS", "", CategoryPressure},
		{"pressure by kpa unit", "reading", "kPa", CategoryPressure},
		{"pressure by bar unit", "reading", "bar", CategoryPressure},
		{"rpm is unclassified", "rpm", "", CategoryNone},
		{"voltage is unclassified", "CONTROL_MODULE_VOLTAGE", "V", CategoryNone},
		{"empty unit stays none", "THROTTLE_POS", "", CategoryNone},
		{"case insensitive key", "coolant_tmp", "", CategoryTemperature},
		{"unit is equality not substring", "reading", "km/h/s", CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.paramKey, tt.unit); got != tt.want {
				t.Fatalf("Classify(%q, %q) = %s, want %s", tt.paramKey, tt.unit, got, tt.want)
			}
		})
	}
}

// A key matching several categories resolves in the fixed order
// speed, temperature, distance, pressure.
func TestClassifyOrdering(t *testing.T) {
	if got := Classify("speed_temp_sensor", ""); got != CategorySpeed {
		t.Fatalf("speed should win over temperature, got %s", got)
	}
	if got := Classify("intake_press", ""); got != CategoryTemperature {
		t.Fatalf("temperature should win over pressure, got %s", got)
	}
	if got := Classify("odometer_press", ""); got != CategoryDistance {
		t.Fatalf("distance should win over pressure, got %s", got)
	}
}

func TestConvertMetricIsIdentity(t *testing.T) {
	tests := []struct {
		paramKey string
		unit     string
		value    float64
	}{
		{"SPEED", "km/h", 100},
		{"COOLANT_TMP", "°C", -12.5},
		{"FUEL_PRESSURE", "bar", 2.5},
		{"ENGINE_RPM", "", 3000},
		{"garbage", "parsecs", 42},
	}
	for _, tt := range tests {
		got := Convert(tt.value, tt.paramKey, tt.unit, SystemMetric)
		if got.Value != tt.value || got.Unit != tt.unit {
			t.Fatalf("Convert(%v, %q, %q, metric) = %+v, want identity", tt.value, tt.paramKey, tt.unit, got)
		}
	}
}

func TestConvertImperial(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		paramKey  string
		unit      string
		wantValue float64
		wantUnit  string
	}{
		{"speed", 100, "SPEED", "km/h", 62.1371, "mph"},
		{"temperature", 20, "COOLANT_TMP", "C", 68, "°F"},
		{"temperature below zero", -40, "AMBIENT_TMP", "°C", -40, "°F"},
		{"distance", 1000, "ODOMETER", "km", 621.371, "mi"},
		{"pressure kpa", 100, "FUEL_PRESSURE", "kPa", 14.5038, "PSI"},
		{"pressure bar", 100, "FUEL_PRESSURE", "bar", 1450.38, "PSI"},
		{"pressure unknown unit defaults to kpa", 100, "FUEL_PRESSURE", "", 14.5038, "PSI"},
		{"rpm passes through", 3000, "ENGINE_RPM", "", 3000, ""},
		{"percentage passes through", 45.5, "THROTTLE_POS", "%", 45.5, "%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.value, tt.paramKey, tt.unit, SystemImperial)
			if math.Abs(got.Value-tt.wantValue) > 1e-9 {
				t.Fatalf("value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Unit != tt.wantUnit {
				t.Fatalf("unit = %q, want %q", got.Unit, tt.wantUnit)
			}
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	tests := []struct {
		paramKey string
		unit     string
		inverse  func(float64) float64
	}{
		{"SPEED", "km/h", func(v float64) float64 { return v / kmToMiles }},
		{"COOLANT_TMP", "°C", func(v float64) float64 { return (v - 32) * 5 / 9 }},
		{"ODOMETER", "km", func(v float64) float64 { return v / kmToMiles }},
	}
	for _, tt := range tests {
		for _, original := range []float64{-273.15, 0, 0.5, 88, 123456.789} {
			converted := Convert(original, tt.paramKey, tt.unit, SystemImperial)
			back := tt.inverse(converted.Value)
			if relErr := math.Abs(back-original) / math.Max(math.Abs(original), 1); relErr > 1e-9 {
				t.Fatalf("%s round-trip drifted: %v -> %v -> %v", tt.paramKey, original, converted.Value, back)
			}
		}
	}
}

func TestConvertNonFinitePropagates(t *testing.T) {
	if got := Convert(math.NaN(), "SPEED", "km/h", SystemImperial); !math.IsNaN(got.Value) {
		t.Fatalf("NaN should propagate, got %v", got.Value)
	}
	if got := Convert(math.Inf(1), "COOLANT_TMP", "C", SystemImperial); !math.IsInf(got.Value, 1) {
		t.Fatalf("+Inf should propagate, got %v", got.Value)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		paramKey string
		want     string
	}{
		{"odometer rounds and groups", 1234.5, "ODOMETER", "1,235"},
		{"rpm rounds and groups", 3254.4, "ENGINE_RPM", "3,254"},
		{"speed rounds", 62.1371, "SPEED", "62"},
		{"distance groups", 123456.7, "TRIP_DISTANCE", "123,457"},
		{"temperature one decimal", 89.456, "COOLANT_TMP", "89.5"},
		{"percent one decimal", 45.55, "FUEL_LEVEL_%", "45.5"},
		{"throttle one decimal", 12.34, "THROTTLE_POS", "12.3"},
		{"load one decimal", 66.66, "ENGINE_LOAD", "66.7"},
		{"voltage two decimals", 13.856, "CONTROL_MODULE_VOLT", "13.86"},
		{"battery two decimals", 12.1, "BATTERY", "12.10"},
		{"default one decimal", 7.25, "FUEL_RATE", "7.2"},
		{"negative temperature", -12.34, "AMBIENT_TMP", "-12.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value, tt.paramKey); got != tt.want {
				t.Fatalf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.paramKey, got, tt.want)
			}
		})
	}
}

func TestFormatValueNeverPanics(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := FormatValue(v, "SPEED"); got == "" {
			t.Fatalf("non-finite value produced empty string")
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name        string
		paramKey    string
		displayName string
		want        string
	}{
		{"explicit name wins", "0D-VehicleSpeed", "Speed", "Speed"},
		{"hex prefix stripped", "0D-VehicleSpeed", "", "Vehicle Speed"},
		{"lowercase hex prefix", "0c-EngineRPM", "", "Engine Rpm"},
		{"underscores", "COOLANT_TMP", "", "Coolant Tmp"},
		{"camel case", "intakeAirTemp", "", "Intake Air Temp"},
		{"single word", "rpm", "", "Rpm"},
		{"no false hex strip", "RPM-Engine", "", "Rpm-engine"},
		{"mixed", "05-ENGINE_COOLANT_TEMP", "", "Engine Coolant Temp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.paramKey, tt.displayName); got != tt.want {
				t.Fatalf("DisplayName(%q, %q) = %q, want %q", tt.paramKey, tt.displayName, got, tt.want)
			}
		})
	}
}

// Pure functions: applying twice equals applying once.
func TestIdempotence(t *testing.T) {
	if first, second := Classify("SPEED", ""), Classify("SPEED", ""); first != second {
		t.Fatalf("Classify is not stable: %s vs %s", first, second)
	}
	if first, second := FormatValue(1234.5, "ODOMETER"), FormatValue(1234.5, "ODOMETER"); first != second {
		t.Fatalf("FormatValue is not stable: %q vs %q", first, second)
	}
	once := DisplayName("0D-VehicleSpeed", "")
	if twice := DisplayName("0D-VehicleSpeed", ""); once != twice {
		t.Fatalf("DisplayName is not stable: %q vs %q", once, twice)
	}
}

func TestParseSystem(t *testing.T) {
	if ParseSystem("imperial") != SystemImperial {
		t.Fatalf("imperial not recognized")
	}
	if ParseSystem(" Imperial ") != SystemImperial {
		t.Fatalf("imperial should be case and space insensitive")
	}
	for _, raw := range []string{"", "metric", "nonsense"} {
		if ParseSystem(raw) != SystemMetric {
			t.Fatalf("%q should default to metric", raw)
		}
	}
}
