package service

import (
	"math"
	"testing"
	"time"

	"mygarage/internal/redisstore"
	"mygarage/internal/units"
)

func TestLiveValuesStableOrder(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	snapshot := map[string]redisstore.SnapshotEntry{
		"11-ThrottlePosition":  {Value: 42.5, Unit: "%", RecordedAt: now},
		"0D-VehicleSpeed":      {Value: 100, Unit: "km/h", RecordedAt: now},
		"05-EngineCoolantTemp": {Value: 83, Unit: "°C", RecordedAt: now},
	}
	want := []string{"05-EngineCoolantTemp", "0D-VehicleSpeed", "11-ThrottlePosition"}

	// Hash iteration is random, so the order must hold over repeated calls.
	for i := 0; i < 20; i++ {
		values := liveValues(snapshot, units.SystemMetric)
		if len(values) != len(want) {
			t.Fatalf("got %d values, want %d", len(values), len(want))
		}
		for j, value := range values {
			if value.Key != want[j] {
				t.Fatalf("iteration %d: values[%d].Key = %q, want %q", i, j, value.Key, want[j])
			}
		}
	}
}

func TestLiveValuesConvertsForDisplay(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	snapshot := map[string]redisstore.SnapshotEntry{
		"0D-VehicleSpeed":      {Value: 100, Unit: "km/h", RecordedAt: now},
		"05-EngineCoolantTemp": {Value: 83, Unit: "°C", RecordedAt: now},
	}

	values := liveValues(snapshot, units.SystemImperial)
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}

	coolant := values[0]
	if coolant.DisplayName != "Engine Coolant Temp" {
		t.Errorf("coolant display name = %q", coolant.DisplayName)
	}
	if coolant.Unit != "°F" || math.Abs(coolant.Value-181.4) > 1e-9 {
		t.Errorf("coolant = %v %s, want 181.4 °F", coolant.Value, coolant.Unit)
	}
	if coolant.Formatted != "181.4" {
		t.Errorf("coolant formatted = %q, want 181.4", coolant.Formatted)
	}

	speed := values[1]
	if speed.Unit != "mph" || math.Abs(speed.Value-62.1371) > 1e-9 {
		t.Errorf("speed = %v %s, want 62.1371 mph", speed.Value, speed.Unit)
	}
	if speed.Formatted != "62" {
		t.Errorf("speed formatted = %q, want 62", speed.Formatted)
	}
	if !speed.RecordedAt.Equal(now) {
		t.Errorf("speed recorded at = %v, want %v", speed.RecordedAt, now)
	}
}
