package livelink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]byte
	vehicle int64
}

func (s *recordingSink) Process(_ context.Context, vehicleID int64, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicle = vehicleID
	s.batches = append(s.batches, append([]byte(nil), raw...))
	return nil
}

func (s *recordingSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// All outgoing traffic funnels through the write pump; gorilla/websocket
// connections break under concurrent writers.
func TestConnectionPumpsReadingsAndSerializesWrites(t *testing.T) {
	sink := &recordingSink{}
	upgrader := websocket.Upgrader{}
	ready := make(chan *Connection, 1)
	closed := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := NewConnection("dev-1", 10, ws, sink, time.Second, zap.NewNop(), nil)
		ready <- conn
		conn.Start(r.Context())
		close(closed)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	conn := <-ready

	batch := `[{"key":"0D-VehicleSpeed","value":100,"unit":"km/h"}]`
	if err := client.WriteMessage(websocket.TextMessage, []byte(batch)); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn.Send([]byte(`{"ack":true}`))
			conn.Send([]byte(`{"ack":true}`))
		}()
	}
	wg.Wait()

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	for received := 0; received < 8; received++ {
		if _, _, err := client.ReadMessage(); err != nil {
			t.Fatalf("read message %d: %v", received, err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for sink.batchCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sink never received the batch")
		}
		time.Sleep(10 * time.Millisecond)
	}
	sink.mu.Lock()
	vehicle := sink.vehicle
	sink.mu.Unlock()
	if vehicle != 10 {
		t.Errorf("sink vehicle = %d, want 10", vehicle)
	}

	client.Close()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("server connection did not shut down after client close")
	}
}

func TestConnectionCleanupNotifiesOnClose(t *testing.T) {
	sink := &recordingSink{}
	upgrader := websocket.Upgrader{}
	removed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := NewConnection("dev-2", 11, ws, sink, time.Second, zap.NewNop(), func(id string) {
			removed <- id
		})
		conn.Start(r.Context())
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	client.Close()

	select {
	case id := <-removed:
		if id != "dev-2" {
			t.Errorf("onClose device = %q, want dev-2", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("onClose never fired")
	}
}
