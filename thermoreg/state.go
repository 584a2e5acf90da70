// Package thermoreg holds the physiological state of a solve and the ordered
// escalation policy that raises heat dissipation when the body overheats.
package thermoreg

import (
	"math"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/exchange"
)

// Stage names one effector in escalation order.
type Stage uint8

const (
	StageNone Stage = iota
	StagePosture
	StageConductivity
	StageCoreTemp
	StagePanting
	StageSweating
)

var order = [...]Stage{StagePosture, StageConductivity, StageCoreTemp, StagePanting, StageSweating}

// Order returns the fixed biological priority of effectors.
func Order() []Stage {
	return append([]Stage(nil), order[:]...)
}

func (s Stage) String() string {
	switch s {
	case StagePosture:
		return "posture"
	case StageConductivity:
		return "conductivity"
	case StageCoreTemp:
		return "core_temp"
	case StagePanting:
		return "panting"
	case StageSweating:
		return "sweating"
	default:
		return "none"
	}
}

// Effector is one adjustable physiological variable.
type Effector struct {
	Value     float64
	Initial   float64
	Max       float64
	Increment float64
	Enabled   bool
}

func newEffector(c config.EffectorConfig) Effector {
	e := Effector{
		Value:     c.Initial,
		Initial:   c.Initial,
		Max:       c.Max,
		Increment: c.Increment,
		Enabled:   c.Enabled && c.Increment > 0 && c.Max > c.Initial,
	}
	if !e.Enabled {
		e.Max = e.Initial
		e.Increment = 0
	}
	return e
}

// Available reports whether the effector can still be advanced.
func (e Effector) Available() bool {
	return e.Enabled && e.Value < e.Max
}

// Advance steps the effector by its increment, clamped at the ceiling.
func (e *Effector) Advance() bool {
	if !e.Available() {
		return false
	}
	e.Value = math.Min(e.Value+e.Increment, e.Max)
	return true
}

// pin moves the effector to its ceiling.
func (e *Effector) pin() {
	e.Value = e.Max
}

// State is the mutable solution vector of one solve.
type State struct {
	Posture           Effector // shape elongation ratio
	FleshConductivity Effector // W/m/K
	CoreTemp          Effector // °C
	Panting           Effector // breathing multiplier
	SkinWetness       Effector // % of skin area

	Q10         float64
	CoreTempRef float64
	Basal       float64 // W at CoreTempRef

	// HeatStress is set when air temperature started at or above the core
	// temperature ceiling and the state began fully heat-dissipating.
	HeatStress bool
}

// NewState builds the initial state from a normalized configuration and
// applies the heat-stress start when air is at or above the core ceiling.
func NewState(cfg *config.Config) *State {
	p := cfg.Physiology
	s := &State{
		Posture:           newEffector(p.Posture),
		FleshConductivity: newEffector(p.FleshConductivity),
		CoreTemp:          newEffector(p.CoreTemp),
		Panting:           newEffector(p.Panting),
		SkinWetness:       newEffector(p.SkinWetness),
		Q10:               p.Q10,
		CoreTempRef:       p.CoreTempRef,
		Basal:             exchange.BasalRate(p.BasalMetabolism, cfg.Body.Mass),
	}

	ta := cfg.Environment.AirTemp
	if ta >= s.CoreTemp.Max {
		s.HeatStress = true
		s.Posture.pin()
		s.FleshConductivity.pin()
		if ta > s.CoreTemp.Max {
			s.CoreTemp.pin()
		}
	}
	return s
}

// Effector returns the effector for a stage, or nil for StageNone.
func (s *State) Effector(st Stage) *Effector {
	switch st {
	case StagePosture:
		return &s.Posture
	case StageConductivity:
		return &s.FleshConductivity
	case StageCoreTemp:
		return &s.CoreTemp
	case StagePanting:
		return &s.Panting
	case StageSweating:
		return &s.SkinWetness
	}
	return nil
}

// Next advances the first available effector in priority order and returns
// its stage. StageNone means every effector is exhausted.
func (s *State) Next() Stage {
	for _, st := range order {
		if s.Effector(st).Advance() {
			return st
		}
	}
	return StageNone
}

// exhausted reports whether no effector can be advanced.
func (s *State) exhausted() bool {
	for _, st := range order {
		if s.Effector(st).Available() {
			return false
		}
	}
	return true
}

// Q10Factor is the metabolic multiplier for the current core temperature.
func (s *State) Q10Factor() float64 {
	return exchange.Q10Factor(s.Q10, s.CoreTemp.Value, s.CoreTempRef)
}

// MinMetabolism is the Q10-adjusted basal rate, W.
func (s *State) MinMetabolism() float64 {
	return s.Basal * s.Q10Factor()
}

// Exchange returns the view of the state the exchange model needs.
func (s *State) Exchange() exchange.State {
	return exchange.State{
		CoreTemp:          s.CoreTemp.Value,
		FleshConductivity: s.FleshConductivity.Value,
		SkinWetness:       s.SkinWetness.Value,
		Panting:           s.Panting.Value,
		MinMetabolism:     s.MinMetabolism(),
	}
}
