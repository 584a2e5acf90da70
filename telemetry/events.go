// Package telemetry provides the side channels of a solve: the debug dump of
// the input bundle, the escalation trace, and CSV output for result tables.
package telemetry

import "github.com/pthm-cable/endotherm/thermoreg"

// EscalationEvent is one pass of the escalation policy.
type EscalationEvent struct {
	Run               int     `csv:"run"` // index of the solve within a batch
	Iteration         int     `csv:"iteration"`
	Stage             string  `csv:"stage"`
	Posture           float64 `csv:"posture"`
	FleshConductivity float64 `csv:"flesh_conductivity"`
	CoreTemp          float64 `csv:"core_temp"`
	Panting           float64 `csv:"panting"`
	SkinWetness       float64 `csv:"skin_wetness"`
	MinMetabolism     float64 `csv:"min_metabolism"`
	Imbalance         float64 `csv:"imbalance"`
	SolverIterations  int     `csv:"solver_iterations"`
	SolverConverged   bool    `csv:"solver_converged"`
}

// NewEscalationEvent converts a policy snapshot into an event.
func NewEscalationEvent(it thermoreg.Iteration) EscalationEvent {
	return EscalationEvent{
		Iteration:         it.Index,
		Stage:             it.Stage.String(),
		Posture:           it.Posture,
		FleshConductivity: it.FleshConductivity,
		CoreTemp:          it.CoreTemp,
		Panting:           it.Panting,
		SkinWetness:       it.SkinWetness,
		MinMetabolism:     it.MinMetabolism,
		Imbalance:         it.Imbalance,
		SolverIterations:  it.SolverIterations,
		SolverConverged:   it.SolverConverged,
	}
}
