package recalls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Minute, zap.NewNop())
	t.Cleanup(client.Close)
	return client
}

func TestFetchRecalls(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/recalls" {
			t.Errorf("path = %q, want /recalls", r.URL.Path)
		}
		if r.URL.Query().Get("make") != "Toyota" || r.URL.Query().Get("year") != "2020" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"campaign_number":"24V-123","component":"BRAKES","summary":"Master cylinder may leak.","remedy":"Replace at no charge.","issued_at":"2024-03-01T00:00:00Z"}]}`))
	}))

	campaigns, err := client.FetchRecalls(context.Background(), "Toyota", "Corolla", 2020)
	if err != nil {
		t.Fatalf("FetchRecalls: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("got %d campaigns, want 1", len(campaigns))
	}
	if campaigns[0].CampaignNumber != "24V-123" || campaigns[0].Component != "BRAKES" {
		t.Errorf("unexpected campaign %+v", campaigns[0])
	}

	// Second fetch for the same vehicle is served from cache.
	if _, err := client.FetchRecalls(context.Background(), "toyota", "COROLLA", 2020); err != nil {
		t.Fatalf("cached FetchRecalls: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1", calls.Load())
	}
}

func TestFetchRecallsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	}))

	if _, err := client.FetchRecalls(context.Background(), "Honda", "Civic", 2019); err != nil {
		t.Fatalf("FetchRecalls: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("upstream called %d times, want 3", calls.Load())
	}
}

func TestFetchRecallsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.FetchRecalls(context.Background(), "Honda", "Civic", 2019); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1", calls.Load())
	}
}

func TestFetchTSBs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tsbs" {
			t.Errorf("path = %q, want /tsbs", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"bulletin_number":"TSB-01","component":"ENGINE","summary":"Cold start rattle.","issued_at":"2023-11-15T00:00:00Z"}]}`))
	}))

	bulletins, err := client.FetchTSBs(context.Background(), "Toyota", "Corolla", 2020)
	if err != nil {
		t.Fatalf("FetchTSBs: %v", err)
	}
	if len(bulletins) != 1 || bulletins[0].BulletinNumber != "TSB-01" {
		t.Fatalf("unexpected bulletins %+v", bulletins)
	}
}

func TestFetchRecallsGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := client.FetchRecalls(context.Background(), "Ford", "F-150", 2021); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != maxAttempts {
		t.Errorf("upstream called %d times, want %d", calls.Load(), maxAttempts)
	}
}
