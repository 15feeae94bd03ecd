package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/coordsim/internal/config"
	"github.com/roach88/coordsim/internal/event"
)

// DefaultTimeout bounds a scenario run that does not set timeout.
const DefaultTimeout = 30 * time.Second

// Scenario defines one coordination run and the properties its event log
// must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Engine selects the engine under test: "waitroom" or "gate".
	Engine string `yaml:"engine"`

	// WaitingRoom overrides the default waiting-room settings.
	WaitingRoom *config.WaitingRoomFile `yaml:"waitroom,omitempty"`

	// Gate overrides the default gate settings.
	Gate *config.GateFile `yaml:"gate,omitempty"`

	// Timeout aborts the run if it has not finished in time.
	Timeout *config.Duration `yaml:"timeout,omitempty"`

	// Assertions validate the recorded event log.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind restricts phase_count to one actor kind. Empty matches all.
	Kind string `yaml:"kind,omitempty"`

	// Phase is the event phase counted by phase_count.
	Phase string `yaml:"phase,omitempty"`

	// Count is the exact expected number (phase_count).
	Count *int `yaml:"count,omitempty"`

	// Min and Max bound the expected number (phase_count).
	Min *int `yaml:"min,omitempty"`
	Max *int `yaml:"max,omitempty"`
}

// String names the assertion for reports and snapshots.
func (a Assertion) String() string {
	if a.Type != AssertPhaseCount {
		return a.Type
	}
	if a.Kind == "" {
		return fmt.Sprintf("%s(%s)", a.Type, a.Phase)
	}
	return fmt.Sprintf("%s(%s.%s)", a.Type, a.Kind, a.Phase)
}

// Assertion type constants.
const (
	AssertWaitingBound      = "waiting_bound"
	AssertArrivalsAccounted = "arrivals_accounted"
	AssertNoIdleService     = "no_idle_service"
	AssertExclusiveAccess   = "exclusive_access"
	AssertTokenBalance      = "token_balance"
	AssertTerminated        = "terminated"
	AssertPhaseCount        = "phase_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml file in dir whose base name matches
// the glob filter, ordered by file name. An empty filter matches all.
func LoadDir(dir, filter string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, e.Name())
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Engine {
	case event.EngineWaitingRoom:
		if s.Gate != nil {
			return fmt.Errorf("gate settings given for engine %q", s.Engine)
		}
	case event.EngineGate:
		if s.WaitingRoom != nil {
			return fmt.Errorf("waitroom settings given for engine %q", s.Engine)
		}
	case "":
		return fmt.Errorf("engine is required")
	default:
		return fmt.Errorf("unknown engine %q", s.Engine)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, s.Engine, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, engine string, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertWaitingBound, AssertArrivalsAccounted, AssertNoIdleService:
		if engine != event.EngineWaitingRoom {
			return fmt.Errorf("assertions[%d]: %s applies to the waitroom engine only", index, a.Type)
		}
	case AssertExclusiveAccess:
		if engine != event.EngineGate {
			return fmt.Errorf("assertions[%d]: %s applies to the gate engine only", index, a.Type)
		}
	case AssertTokenBalance, AssertTerminated:
	case AssertPhaseCount:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for phase_count", index)
		}
		if a.Count == nil && a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: count, min or max is required for phase_count", index)
		}
		if a.Count != nil && (a.Min != nil || a.Max != nil) {
			return fmt.Errorf("assertions[%d]: count cannot be combined with min or max", index)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return fmt.Errorf("assertions[%d]: min %d is greater than max %d", index, *a.Min, *a.Max)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
