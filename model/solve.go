// Package model runs the steady-state heat and mass balance of an endotherm.
// Solve takes one input bundle, escalates thermoregulatory effectors until the
// body is in energy balance or out of options, and assembles the result.
package model

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/exchange"
	"github.com/pthm-cable/endotherm/geometry"
	"github.com/pthm-cable/endotherm/insulation"
	"github.com/pthm-cable/endotherm/solver"
	"github.com/pthm-cable/endotherm/telemetry"
	"github.com/pthm-cable/endotherm/thermoreg"
)

// Options configures side channels of a solve.
type Options struct {
	// Logger receives escalation and outcome records. Nil discards them.
	Logger *slog.Logger
}

// evaluation is everything computed for the most recent effector state.
type evaluation struct {
	geo geometry.Geometry
	ins insulation.Insulation
	ex  exchange.Exchange
	sol solver.Result
}

// Solve computes the steady-state balance for cfg. cfg is not modified and
// the call holds no state between invocations, so concurrent solves on
// separate bundles are safe. Failure to balance is reported in the result,
// not as an error; errors are reserved for bundles that cannot describe a body.
func Solve(cfg *config.Config, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := cfg.Clone()
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, &ConfigError{Component: "configuration", Err: err}
	}

	id := uuid.NewString()
	logger = logger.With("solve_id", id)

	if c.Debug.Dump && c.Debug.DumpPath != "" {
		if err := telemetry.DumpConfig(c.Debug.DumpPath, c, id); err != nil {
			logger.Warn("debug dump failed", "path", c.Debug.DumpPath, "error", err)
		}
	}

	st := thermoreg.NewState(c)

	// Shape and fat errors do not depend on posture; fail before iterating.
	if _, err := geometry.Compute(c.Body, c.Fur, st.Posture.Value); err != nil {
		return nil, &ConfigError{Component: "geometry", Err: err}
	}

	settings := solver.Settings{
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
		MaxStep:       []float64{c.Solver.MaxStep, c.Solver.MaxStep, c.Solver.MaxStep, 0},
	}

	var last evaluation
	var warm []float64
	eval := func(s *thermoreg.State) (thermoreg.Check, error) {
		geo, err := geometry.Compute(c.Body, c.Fur, s.Posture.Value)
		if err != nil {
			return thermoreg.Check{}, &ConfigError{Component: "geometry", Err: err}
		}
		ins := insulation.Compute(c.Fur, c.Body.VentralFrac, (s.CoreTemp.Value+c.Environment.AirTemp)/2)
		m := exchange.New(c, geo, ins, s.Exchange())

		x0 := warm
		if x0 == nil {
			x0 = m.Guess()
		}
		sol := solver.Solve(m.Residual, x0, settings)
		warm = nil
		if sol.Converged {
			warm = sol.X
		}

		last = evaluation{geo: geo, ins: ins, ex: m.Evaluate(sol.X), sol: sol}
		return thermoreg.Check{
			Imbalance:        last.ex.Imbalance(),
			SolverConverged:  sol.Converged,
			SolverIterations: sol.Iterations,
		}, nil
	}

	var trace *telemetry.Trace
	if c.Debug.Trace {
		trace = telemetry.NewTrace()
	}
	policy := thermoreg.Policy{
		Tolerance:      c.Solver.Tolerance,
		MaxEscalations: c.Solver.MaxEscalations,
		Observe: func(it thermoreg.Iteration) {
			if trace != nil {
				trace.Record(it)
			}
			logger.Debug("escalation",
				"iteration", it.Index,
				"stage", it.Stage.String(),
				"imbalance", it.Imbalance,
				"solver_iterations", it.SolverIterations,
			)
		},
	}

	sum, err := policy.Run(st, eval)
	if err != nil {
		return nil, err
	}

	res := assemble(st, sum, last)
	res.Trace = trace.Events()

	if !res.Energy.Converged {
		logger.Warn("heat balance not closed",
			"outcome", res.Energy.Outcome,
			"imbalance", res.Energy.Imbalance,
			"solver_converged", res.Energy.SolverConverged,
			"solver_stalled", res.Energy.SolverStalled,
		)
	}
	logger.Info("solve complete",
		"thermoregulation", res.Thermoregulation,
		"energy", res.Energy,
		"mass", res.Mass,
	)
	if trace != nil {
		logger.Debug("escalation steps", "steps", trace)
	}
	return res, nil
}
