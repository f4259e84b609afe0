package agent

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/obd"
)

type fakeBus struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
}

func (f *fakeBus) Request(cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if line, ok := f.responses[cmd]; ok {
		return line, nil
	}
	return "NO DATA", nil
}

func (f *fakeBus) Close() error { return nil }

type fakeSink struct {
	mu        sync.Mutex
	connected bool
	published [][]obd.Reading
	err       error
}

func (f *fakeSink) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSink) Publish(batch []obd.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, batch)
	return nil
}

func (f *fakeSink) batches() [][]obd.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published
}

func newTestCollector(t *testing.T, bus Bus, sink Sink) *Collector {
	t.Helper()
	spool, err := OpenSpool(filepath.Join(t.TempDir(), "spool.db"))
	if err != nil {
		t.Fatalf("OpenSpool: %v", err)
	}
	t.Cleanup(func() { spool.Close() })

	collector := NewCollector(bus, sink, spool, []byte{obd.PIDVehicleSpeed, obd.PIDCoolantTemp}, time.Second, zap.NewNop())
	collector.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	return collector
}

func TestCollectorPollDecodesConfiguredPIDs(t *testing.T) {
	bus := &fakeBus{responses: map[string]string{
		"010D": "41 0D 3C",
		"0105": "41 05 5A",
	}}
	collector := newTestCollector(t, bus, &fakeSink{})

	batch := collector.poll()
	if len(batch) != 2 {
		t.Fatalf("poll returned %d readings, want 2", len(batch))
	}
	if batch[0].Key != "0D-VehicleSpeed" || batch[0].Value != 60 {
		t.Errorf("unexpected first reading %+v", batch[0])
	}
	if batch[1].Key != "05-EngineCoolantTemp" || batch[1].Value != 50 {
		t.Errorf("unexpected second reading %+v", batch[1])
	}
}

func TestCollectorPollSkipsChatterAndBusErrors(t *testing.T) {
	bus := &fakeBus{responses: map[string]string{
		"010D": "41 0D 3C",
		// 0105 falls through to "NO DATA"
	}}
	collector := newTestCollector(t, bus, &fakeSink{})

	batch := collector.poll()
	if len(batch) != 1 {
		t.Fatalf("poll returned %d readings, want 1", len(batch))
	}

	bus.mu.Lock()
	bus.err = errors.New("port gone")
	bus.mu.Unlock()
	if batch := collector.poll(); len(batch) != 0 {
		t.Errorf("poll on dead bus returned %d readings, want 0", len(batch))
	}
}

func TestCollectorShipPublishesWhenConnected(t *testing.T) {
	sink := &fakeSink{connected: true}
	collector := newTestCollector(t, &fakeBus{}, sink)

	collector.ship(testBatch("live", 1))

	published := sink.batches()
	if len(published) != 1 {
		t.Fatalf("published %d batches, want 1", len(published))
	}
	count, err := collector.spool.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if count != 0 {
		t.Errorf("spool holds %d batches, want 0", count)
	}
}

func TestCollectorShipSpoolsWhileDisconnected(t *testing.T) {
	sink := &fakeSink{connected: false}
	collector := newTestCollector(t, &fakeBus{}, sink)

	collector.ship(testBatch("offline-1", 1))
	collector.ship(testBatch("offline-2", 2))

	if len(sink.batches()) != 0 {
		t.Fatal("nothing should publish while disconnected")
	}
	count, err := collector.spool.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if count != 2 {
		t.Fatalf("spool holds %d batches, want 2", count)
	}

	// Link restored: the backlog drains ahead of the fresh batch.
	sink.mu.Lock()
	sink.connected = true
	sink.mu.Unlock()
	collector.ship(testBatch("fresh", 3))

	published := sink.batches()
	if len(published) != 3 {
		t.Fatalf("published %d batches, want 3", len(published))
	}
	wantOrder := []string{"offline-1", "offline-2", "fresh"}
	for i, want := range wantOrder {
		if published[i][0].Key != want {
			t.Errorf("batch %d key = %q, want %q", i, published[i][0].Key, want)
		}
	}
	count, err = collector.spool.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if count != 0 {
		t.Errorf("spool holds %d batches after drain, want 0", count)
	}
}

func TestCollectorShipSpoolsOnPublishFailure(t *testing.T) {
	sink := &fakeSink{connected: true, err: errors.New("broker flake")}
	collector := newTestCollector(t, &fakeBus{}, sink)

	collector.ship(testBatch("flaky", 1))

	count, err := collector.spool.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if count != 1 {
		t.Errorf("spool holds %d batches, want 1", count)
	}
}
