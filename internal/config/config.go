package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/coordsim/internal/engine"
	"github.com/roach88/coordsim/internal/sim"
)

// Settings is the complete configuration of both engines.
type Settings struct {
	WaitingRoom sim.WaitingRoomParams
	Gate        sim.GateParams
}

// Defaults returns the settings of the classic demonstrations: a shop with
// 3 chairs visited by 8 customers one second apart with 2s haircuts, and 5
// readers racing 2 writers for 2s each.
func Defaults() Settings {
	return Settings{
		WaitingRoom: sim.WaitingRoomParams{
			WaitingRoomConfig: engine.WaitingRoomConfig{
				Chairs:          3,
				Customers:       8,
				ServiceDuration: 2 * time.Second,
				IdlePoll:        time.Second,
				Threshold:       0,
			},
			ArrivalInterval: time.Second,
		},
		Gate: sim.GateParams{
			GateConfig: engine.GateConfig{
				ReadDuration:  2 * time.Second,
				WriteDuration: 2 * time.Second,
			},
			Readers: 5,
			Writers: 2,
			Stagger: 0,
		},
	}
}

// Duration is a time.Duration written as a Go duration string ("1.5s").
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", text)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML parses a duration scalar.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

// WaitingRoomFile is the file shape of waiting-room settings shared by
// profiles and scenarios. Nil fields keep their current value.
type WaitingRoomFile struct {
	Chairs          *int      `json:"chairs,omitempty" yaml:"chairs,omitempty"`
	Customers       *int      `json:"customers,omitempty" yaml:"customers,omitempty"`
	Service         *Duration `json:"service,omitempty" yaml:"service,omitempty"`
	IdlePoll        *Duration `json:"idle_poll,omitempty" yaml:"idle_poll,omitempty"`
	ArrivalInterval *Duration `json:"arrival_interval,omitempty" yaml:"arrival_interval,omitempty"`
	Threshold       *int      `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Apply overlays the set fields onto p.
func (f *WaitingRoomFile) Apply(p *sim.WaitingRoomParams) {
	if f == nil {
		return
	}
	setInt(&p.Chairs, f.Chairs)
	setInt(&p.Customers, f.Customers)
	setDuration(&p.ServiceDuration, f.Service)
	setDuration(&p.IdlePoll, f.IdlePoll)
	setDuration(&p.ArrivalInterval, f.ArrivalInterval)
	setInt(&p.Threshold, f.Threshold)
}

// GateFile is the file shape of gate settings shared by profiles and
// scenarios. Nil fields keep their current value.
type GateFile struct {
	Readers *int      `json:"readers,omitempty" yaml:"readers,omitempty"`
	Writers *int      `json:"writers,omitempty" yaml:"writers,omitempty"`
	Read    *Duration `json:"read,omitempty" yaml:"read,omitempty"`
	Write   *Duration `json:"write,omitempty" yaml:"write,omitempty"`
	Stagger *Duration `json:"stagger,omitempty" yaml:"stagger,omitempty"`
}

// Apply overlays the set fields onto p.
func (f *GateFile) Apply(p *sim.GateParams) {
	if f == nil {
		return
	}
	setInt(&p.Readers, f.Readers)
	setInt(&p.Writers, f.Writers)
	setDuration(&p.ReadDuration, f.Read)
	setDuration(&p.WriteDuration, f.Write)
	setDuration(&p.Stagger, f.Stagger)
}

// Profile is a decoded profile file.
type Profile struct {
	WaitingRoom *WaitingRoomFile `json:"waitroom,omitempty"`
	Gate        *GateFile        `json:"gate,omitempty"`
}

// Apply overlays the profile onto s.
func (p Profile) Apply(s *Settings) {
	p.WaitingRoom.Apply(&s.WaitingRoom)
	p.Gate.Apply(&s.Gate)
}

func decodeProfile(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *Duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}
