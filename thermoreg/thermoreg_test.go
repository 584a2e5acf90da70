package thermoreg

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/endotherm/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Environment.AirTemp = 20
	return cfg
}

// heatLoad returns an evaluator whose imbalance is load minus the heat each
// effector step dissipates.
func heatLoad(load float64) Evaluator {
	return func(s *State) (Check, error) {
		shed := (s.Posture.Value - s.Posture.Initial) +
			(s.FleshConductivity.Value - s.FleshConductivity.Initial) +
			(s.CoreTemp.Value - s.CoreTemp.Initial) +
			(s.Panting.Value - s.Panting.Initial) +
			(s.SkinWetness.Value - s.SkinWetness.Initial)
		return Check{Imbalance: load - shed, SolverConverged: true}, nil
	}
}

// ---------- effectors ----------

func TestEffector_AdvanceClampsAtMax(t *testing.T) {
	e := newEffector(config.EffectorConfig{Initial: 1, Max: 1.25, Increment: 0.1, Enabled: true})
	for e.Advance() {
	}
	if e.Value != 1.25 {
		t.Errorf("value = %v, want ceiling 1.25", e.Value)
	}
	if e.Available() {
		t.Error("effector at ceiling should not be available")
	}
}

func TestEffector_DisabledByZeroIncrement(t *testing.T) {
	e := newEffector(config.EffectorConfig{Initial: 2, Max: 5, Increment: 0, Enabled: true})
	if e.Enabled || e.Available() {
		t.Error("zero increment should disable the effector")
	}
	if e.Max != 2 {
		t.Errorf("max = %v, want collapsed to initial 2", e.Max)
	}
	if e.Advance() {
		t.Error("disabled effector advanced")
	}
}

func TestStage_String(t *testing.T) {
	want := []string{"posture", "conductivity", "core_temp", "panting", "sweating"}
	for i, st := range Order() {
		if st.String() != want[i] {
			t.Errorf("Order[%d] = %s, want %s", i, st, want[i])
		}
	}
	if StageNone.String() != "none" {
		t.Errorf("StageNone = %s", StageNone)
	}
}

// ---------- state ----------

func TestNewState_HeatStressStart(t *testing.T) {
	tests := []struct {
		name       string
		airTemp    float64
		heatStress bool
		corePinned bool
	}{
		{"mild", 20, false, false},
		{"at ceiling", 39, true, false},
		{"above ceiling", 45, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Environment.AirTemp = tt.airTemp
			s := NewState(cfg)

			if s.HeatStress != tt.heatStress {
				t.Errorf("HeatStress = %v, want %v", s.HeatStress, tt.heatStress)
			}
			if tt.heatStress {
				if s.Posture.Value != s.Posture.Max || s.FleshConductivity.Value != s.FleshConductivity.Max {
					t.Error("posture and conductivity should start at their ceilings")
				}
			} else if s.Posture.Value != s.Posture.Initial {
				t.Errorf("posture = %v, want initial %v", s.Posture.Value, s.Posture.Initial)
			}
			if got := s.CoreTemp.Value == s.CoreTemp.Max; got != tt.corePinned {
				t.Errorf("core pinned = %v, want %v (core %v)", got, tt.corePinned, s.CoreTemp.Value)
			}
		})
	}
}

func TestState_MinMetabolismQ10(t *testing.T) {
	cfg := testConfig()
	cfg.Physiology.BasalMetabolism = 4
	cfg.Physiology.Q10 = 2
	cfg.Environment.AirTemp = 45
	s := NewState(cfg)

	want := 4 * math.Pow(2, (39-37)/10.0)
	if math.Abs(s.MinMetabolism()-want) > 1e-12 {
		t.Errorf("MinMetabolism = %v, want %v", s.MinMetabolism(), want)
	}
	if s.Q10Factor() <= 1 {
		t.Errorf("Q10 factor = %v, want > 1 with core above reference", s.Q10Factor())
	}
}

func TestOrder_ReturnsCopy(t *testing.T) {
	a := Order()
	a[0] = StageSweating
	if b := Order(); b[0] != StagePosture {
		t.Errorf("Order()[0] = %s after caller mutation, want posture", b[0])
	}
}

func TestState_NextFollowsOrder(t *testing.T) {
	s := NewState(testConfig())
	var seen []Stage
	for {
		st := s.Next()
		if st == StageNone {
			break
		}
		if len(seen) == 0 || seen[len(seen)-1] != st {
			seen = append(seen, st)
		}
	}
	want := Order()
	if len(seen) != len(want) {
		t.Fatalf("stages visited = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, seen[i], want[i])
		}
	}
	if !s.exhausted() {
		t.Error("state should be exhausted after Next returns StageNone")
	}
}

func TestState_NextSkipsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Physiology.Posture.Increment = 0
	cfg.Physiology.CoreTemp.Increment = 0
	cfg.Normalize()
	s := NewState(cfg)

	if st := s.Next(); st != StageConductivity {
		t.Errorf("first stage = %s, want conductivity", st)
	}
	if s.Posture.Value != s.Posture.Initial {
		t.Error("disabled posture moved")
	}
}

// ---------- policy ----------

func TestPolicy_BalancedWithoutEscalation(t *testing.T) {
	s := NewState(testConfig())
	sum, err := Policy{Tolerance: 0.01}.Run(s, heatLoad(0))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Outcome != OutcomeBalanced || sum.Escalations != 0 || sum.Iterations != 1 {
		t.Errorf("summary = %+v, want balanced after one pass", sum)
	}
	if sum.LastStage != StageNone {
		t.Errorf("last stage = %s, want none", sum.LastStage)
	}
}

func TestPolicy_EscalatesMonotonically(t *testing.T) {
	s := NewState(testConfig())
	var prev *Iteration
	monotonic := true
	p := Policy{
		Tolerance: 0.01,
		Observe: func(it Iteration) {
			if prev != nil {
				if it.Posture < prev.Posture || it.FleshConductivity < prev.FleshConductivity ||
					it.CoreTemp < prev.CoreTemp || it.Panting < prev.Panting || it.SkinWetness < prev.SkinWetness {
					monotonic = false
				}
				if it.Stage < prev.Stage {
					monotonic = false
				}
			}
			cp := it
			prev = &cp
		},
	}
	// Enough load to need posture, conductivity and some core temperature.
	sum, err := p.Run(s, heatLoad(6))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !monotonic {
		t.Error("effectors or stages moved backwards")
	}
	if sum.Outcome != OutcomeBalanced {
		t.Errorf("outcome = %s, want balanced", sum.Outcome)
	}
	if sum.LastStage != StageCoreTemp {
		t.Errorf("last stage = %s, want core_temp", sum.LastStage)
	}
	if s.Posture.Value != s.Posture.Max || s.FleshConductivity.Value != s.FleshConductivity.Max {
		t.Error("earlier effectors should be at their ceilings")
	}
	if s.Panting.Value != s.Panting.Initial || s.SkinWetness.Value != s.SkinWetness.Initial {
		t.Error("later effectors should not have moved")
	}
}

func TestPolicy_Exhausted(t *testing.T) {
	s := NewState(testConfig())
	sum, err := Policy{Tolerance: 0.01}.Run(s, heatLoad(1e6))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Outcome != OutcomeExhausted {
		t.Errorf("outcome = %s, want exhausted", sum.Outcome)
	}
	if !s.exhausted() {
		t.Error("state should be exhausted")
	}
	if sum.Check.Imbalance <= 0 {
		t.Errorf("final imbalance = %v, want positive", sum.Check.Imbalance)
	}
}

func TestPolicy_SweatingDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Physiology.SkinWetness.Increment = 0
	cfg.Normalize()
	s := NewState(cfg)

	sum, err := Policy{Tolerance: 0.01}.Run(s, heatLoad(1e6))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Outcome != OutcomeExhausted {
		t.Errorf("outcome = %s, want exhausted", sum.Outcome)
	}
	if s.SkinWetness.Value != s.SkinWetness.Initial {
		t.Errorf("skin wetness = %v, want initial %v", s.SkinWetness.Value, s.SkinWetness.Initial)
	}
	if sum.LastStage != StagePanting {
		t.Errorf("last stage = %s, want panting", sum.LastStage)
	}
}

func TestPolicy_Unresolved(t *testing.T) {
	s := NewState(testConfig())
	sum, err := Policy{Tolerance: 0.01}.Run(s, heatLoad(-5))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Outcome != OutcomeUnresolved || sum.Escalations != 0 {
		t.Errorf("summary = %+v, want unresolved without escalation", sum)
	}
}

func TestPolicy_EscalationLimit(t *testing.T) {
	s := NewState(testConfig())
	sum, err := Policy{Tolerance: 0.01, MaxEscalations: 3}.Run(s, heatLoad(1e6))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Outcome != OutcomeEscalationLimit || sum.Escalations != 3 {
		t.Errorf("summary = %+v, want escalation limit after 3", sum)
	}
}

func TestPolicy_EvaluatorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Policy{Tolerance: 0.01}.Run(NewState(testConfig()), func(*State) (Check, error) {
		return Check{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected evaluator error, got %v", err)
	}

	if _, err := (Policy{}).Run(NewState(testConfig()), nil); !errors.Is(err, ErrNoEvaluator) {
		t.Errorf("expected ErrNoEvaluator, got %v", err)
	}
}
