package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/coordsim/internal/canonical"
)

// Snapshot is the timing-independent part of a scenario result.
//
// Interleavings differ from run to run, so a snapshot keeps only what a
// passing run always produces: actor totals, termination and which
// assertions were checked.
type Snapshot struct {
	Scenario          string   `json:"scenario"`
	Engine            string   `json:"engine"`
	Pass              bool     `json:"pass"`
	Arrivals          int      `json:"arrivals"`
	AllAdmittedServed bool     `json:"all_admitted_served"`
	ProviderDone      bool     `json:"provider_done"`
	Reads             int      `json:"reads"`
	Writes            int      `json:"writes"`
	Assertions        []string `json:"assertions"`
}

// NewSnapshot extracts the snapshot of a result.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	s := result.Summary
	names := make([]string, len(scenario.Assertions))
	for i, a := range scenario.Assertions {
		names[i] = a.String()
	}
	return Snapshot{
		Scenario:          scenario.Name,
		Engine:            scenario.Engine,
		Pass:              result.Pass,
		Arrivals:          s.Arrivals,
		AllAdmittedServed: s.Admitted == s.Serviced,
		ProviderDone:      s.ProviderDone,
		Reads:             s.Reads,
		Writes:            s.Writes,
		Assertions:        names,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares the snapshot of an existing result against the
// scenario's golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := canonical.Marshal(NewSnapshot(scenario, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
