package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/primitive"
	tu "github.com/roach88/coordsim/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRun creates a waiting-room run with minimal required fields.
func createTestRun(id string, started time.Time) Run {
	return Run{
		ID:        id,
		Engine:    event.EngineWaitingRoom,
		StartedAt: started,
		Elapsed:   3 * time.Second,
		Status:    "ok",
		Params:    json.RawMessage(`{"customers":1,"chairs":1}`),
		Pools: []primitive.PoolStats{
			{Name: "chairs", Capacity: 1, Acquired: 1, Released: 1},
		},
	}
}

// createTestEvents creates the event log of one admitted and served customer.
func createTestEvents() []event.Event {
	return tu.Sequence(
		tu.Customer(1, event.PhaseArrived, 0),
		tu.Customer(1, event.PhaseAdmitted, 1),
		tu.Customer(1, event.PhaseWokeProvider, 1),
		tu.Provider(event.PhaseServicing, 0),
		tu.Provider(event.PhaseServiced, 0),
		tu.Provider(event.PhaseProviderDone, 0),
	)
}
