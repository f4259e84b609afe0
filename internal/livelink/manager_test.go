package livelink

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManagerTracksConnections(t *testing.T) {
	m := NewManager()
	if m.Count() != 0 {
		t.Fatalf("Count = %d, want 0", m.Count())
	}

	a := NewConnection("dev-a", 1, nil, nil, time.Second, zap.NewNop(), nil)
	b := NewConnection("dev-b", 2, nil, nil, time.Second, zap.NewNop(), nil)
	m.Add(a)
	m.Add(b)
	if m.Count() != 2 {
		t.Errorf("Count = %d, want 2", m.Count())
	}

	// Re-adding the same device replaces the entry.
	m.Add(a)
	if m.Count() != 2 {
		t.Errorf("Count after re-add = %d, want 2", m.Count())
	}

	m.Remove("dev-a")
	if m.Count() != 1 {
		t.Errorf("Count after remove = %d, want 1", m.Count())
	}
	m.Remove("dev-a")
	if m.Count() != 1 {
		t.Errorf("Count after duplicate remove = %d, want 1", m.Count())
	}
}
