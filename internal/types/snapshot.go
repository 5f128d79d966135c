package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

type OvenState uint8

const (
	StateUninitialized OvenState = iota
	StateIdle
	StateRunning
	StatePaused
)

var ovenStateNames = [...]string{"Uninitialized", "Idle", "Running", "Paused"}

func (s OvenState) String() string {
	if int(s) < len(ovenStateNames) {
		return ovenStateNames[s]
	}
	return fmt.Sprintf("OvenState(%d)", s)
}

// Wire value used by the oven service.
func (s OvenState) Wire() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	}
	return ""
}

func ParseOvenState(s string) OvenState {
	switch strings.ToUpper(s) {
	case "IDLE":
		return StateIdle
	case "RUNNING":
		return StateRunning
	case "PAUSED":
		return StatePaused
	}
	return StateUninitialized
}

// Snapshot is a point-in-time read of the oven.
// Nil pointers mean the oven did not report that value.
type Snapshot struct {
	Temperature *float64  `json:"temperature"`
	Target      *float64  `json:"target"`
	State       OvenState `json:"-"`
	StateText   string    `json:"state"`
	Status      string    `json:"status,omitempty"`
	Heat        float64   `json:"heat"`
	Runtime     *float64  `json:"runtime"`
	TotalTime   *float64  `json:"totaltime"`
	Profile     *string   `json:"profile"`

	// pass-through, not used by the panel
	Cost     float64 `json:"cost,omitempty"`
	KwhRate  float64 `json:"kwh_rate,omitempty"`
	Currency string  `json:"currency_type,omitempty"`
}

func ParseSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, err
	}
	s.State = ParseOvenState(s.StateText)
	return s, nil
}

func (s *Snapshot) SetState(state OvenState) {
	s.State = state
	s.StateText = state.Wire()
}

// Remaining run time in seconds, ok=false if oven did not report timing.
func (s *Snapshot) Remaining() (float64, bool) {
	if s.TotalTime == nil || s.Runtime == nil {
		return 0, false
	}
	left := *s.TotalTime - *s.Runtime
	if left < 0 {
		left = 0
	}
	return left, true
}

func (s *Snapshot) ProfileName() string {
	if s.Profile == nil {
		return ""
	}
	return *s.Profile
}

func Float(f float64) *float64 { return &f }
func String(s string) *string  { return &s }
