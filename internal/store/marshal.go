package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/coordsim/internal/canonical"
	"github.com/roach88/coordsim/internal/primitive"
	"github.com/roach88/coordsim/internal/sim"
)

// Run is the stored record of one run.
type Run struct {
	ID        string                `json:"id"`
	Engine    string                `json:"engine"`
	StartedAt time.Time             `json:"started_at"`
	Elapsed   time.Duration         `json:"elapsed"`
	Status    string                `json:"status"`
	Error     string                `json:"error,omitempty"`
	Params    json.RawMessage       `json:"params"`
	Pools     []primitive.PoolStats `json:"pools"`

	// Events is the number of stored events. Filled by ReadRun and ListRuns.
	Events int `json:"events"`
}

// RunFromReport converts a finished run into its stored form.
func RunFromReport(r *sim.Report) (Run, error) {
	params, err := canonical.Marshal(r.Params)
	if err != nil {
		return Run{}, fmt.Errorf("marshal params: %w", err)
	}
	return Run{
		ID:        r.ID,
		Engine:    r.Engine,
		StartedAt: r.StartedAt,
		Elapsed:   r.Elapsed,
		Status:    r.Status,
		Error:     r.Error,
		Params:    params,
		Pools:     r.Pools,
		Events:    len(r.Events),
	}, nil
}

// timeLayout is fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse started_at %q: %w", s, err)
	}
	return t, nil
}

// marshalPools converts pool counters to canonical JSON TEXT for storage.
func marshalPools(pools []primitive.PoolStats) (string, error) {
	if pools == nil {
		pools = []primitive.PoolStats{}
	}
	data, err := canonical.Marshal(pools)
	if err != nil {
		return "", fmt.Errorf("marshal pools: %w", err)
	}
	return string(data), nil
}

func unmarshalPools(data string) ([]primitive.PoolStats, error) {
	pools := []primitive.PoolStats{}
	if data == "" || data == "[]" {
		return pools, nil
	}
	if err := json.Unmarshal([]byte(data), &pools); err != nil {
		return nil, fmt.Errorf("unmarshal pools: %w", err)
	}
	return pools, nil
}

func marshalParams(params json.RawMessage) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	data, err := canonical.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}
