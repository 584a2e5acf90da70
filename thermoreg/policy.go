package thermoreg

import (
	"errors"
	"math"
)

// Outcome is the terminal state of an escalation run.
type Outcome uint8

const (
	// OutcomeBalanced means the energy balance closed within tolerance.
	OutcomeBalanced Outcome = iota
	// OutcomeExhausted means every effector reached its ceiling while heat was still gained.
	OutcomeExhausted
	// OutcomeUnresolved means the body was losing heat it could not account for,
	// which only happens when the equation solver failed to converge.
	OutcomeUnresolved
	// OutcomeEscalationLimit means the outer iteration cap was hit.
	OutcomeEscalationLimit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBalanced:
		return "balanced"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeEscalationLimit:
		return "escalation_limit"
	default:
		return "unknown"
	}
}

// ErrNoEvaluator is returned by Run when the policy has nothing to evaluate states with.
var ErrNoEvaluator = errors.New("thermoreg: nil evaluator")

// Check is what the policy needs to know about one evaluated state.
type Check struct {
	// Imbalance is heat gained minus heat lost, W. Positive means overheating.
	Imbalance        float64
	SolverConverged  bool
	SolverIterations int
}

// Evaluator solves the heat balance for the current state.
type Evaluator func(*State) (Check, error)

// Iteration is a snapshot of one pass of the policy loop.
type Iteration struct {
	Index             int
	Stage             Stage // effector advanced just before this pass
	Posture           float64
	FleshConductivity float64
	CoreTemp          float64
	Panting           float64
	SkinWetness       float64
	MinMetabolism     float64
	Check
}

// Summary describes how a run ended.
type Summary struct {
	Outcome     Outcome
	LastStage   Stage // most recently advanced effector, StageNone if none moved
	Escalations int
	Iterations  int
	Check       Check // of the final state
}

// Policy walks the effectors in priority order until the body is in balance.
type Policy struct {
	Tolerance      float64
	MaxEscalations int
	// Observe, when set, sees every pass. It must not mutate the state.
	Observe func(Iteration)
}

// Run evaluates s and escalates effectors one increment at a time until the
// imbalance is within tolerance or no effector can move. Effectors only ever
// increase. Evaluator errors abort the run.
func (p Policy) Run(s *State, eval Evaluator) (Summary, error) {
	var sum Summary
	if eval == nil {
		return sum, ErrNoEvaluator
	}

	stage := StageNone
	for {
		chk, err := eval(s)
		if err != nil {
			return sum, err
		}
		sum.Iterations++
		sum.Check = chk
		if p.Observe != nil {
			p.Observe(s.snapshot(sum.Iterations-1, stage, chk))
		}

		switch {
		case math.Abs(chk.Imbalance) <= p.Tolerance:
			sum.Outcome = OutcomeBalanced
			return sum, nil
		case chk.Imbalance < 0:
			sum.Outcome = OutcomeUnresolved
			return sum, nil
		case p.MaxEscalations > 0 && sum.Escalations >= p.MaxEscalations:
			sum.Outcome = OutcomeEscalationLimit
			return sum, nil
		}

		if s.exhausted() {
			sum.Outcome = OutcomeExhausted
			return sum, nil
		}
		stage = s.Next()
		sum.Escalations++
		sum.LastStage = stage
	}
}

func (s *State) snapshot(index int, stage Stage, chk Check) Iteration {
	return Iteration{
		Index:             index,
		Stage:             stage,
		Posture:           s.Posture.Value,
		FleshConductivity: s.FleshConductivity.Value,
		CoreTemp:          s.CoreTemp.Value,
		Panting:           s.Panting.Value,
		SkinWetness:       s.SkinWetness.Value,
		MinMetabolism:     s.MinMetabolism(),
		Check:             chk,
	}
}
