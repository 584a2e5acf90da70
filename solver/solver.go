// Package solver finds roots of small nonlinear systems such as the node heat
// balance of an endotherm.
//
// The primary method is a damped Newton iteration with a forward-difference
// Jacobian. Each step is limited per component and halved until the residual
// norm decreases. If Newton stalls (singular Jacobian or no descent), the
// squared residual is minimized with Nelder-Mead and Newton resumes from the
// minimizer. Convergence is declared when the L1 norm of the residual is at or
// below the tolerance, so the signed sum of the residuals is bounded by it too.
package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Method names reported in Result.
const (
	MethodNewton     = "newton"
	MethodNelderMead = "nelder-mead"
)

const (
	maxHalvings  = 12
	fdRelStep    = 1e-6
	nmEvalFactor = 400
)

// Func evaluates the residual of x into r. len(r) == len(x).
type Func func(x, r []float64)

// Settings controls one solve.
type Settings struct {
	Tolerance     float64   // on the L1 norm of the residual
	MaxIterations int       // Newton iterations
	MaxStep       []float64 // per-component step limit; nil or non-positive entries mean unlimited
}

// Result is the outcome of Solve.
type Result struct {
	X          []float64
	Residual   []float64
	Norm       float64 // L1 norm of Residual
	Iterations int
	Converged  bool
	Stalled    bool // Newton could not make progress before the iteration cap
	Method     string
}

// Solve looks for x with f(x) = 0 starting from x0. It never fails: the best
// iterate is returned with Converged false when the tolerance is not met.
func Solve(f Func, x0 []float64, s Settings) Result {
	n := len(x0)
	res := Result{
		X:        append([]float64(nil), x0...),
		Residual: make([]float64, n),
		Method:   MethodNewton,
	}
	f(res.X, res.Residual)
	res.Norm = floats.Norm(res.Residual, 1)

	usedFallback := false
	for res.Iterations < s.MaxIterations {
		if res.Norm <= s.Tolerance {
			res.Converged = true
			return res
		}
		res.Iterations++
		if newtonStep(f, &res, s) {
			continue
		}
		if usedFallback {
			res.Stalled = true
			break
		}
		usedFallback = true
		res.Method = MethodNelderMead
		nelderMead(f, &res, s)
	}
	res.Converged = res.Norm <= s.Tolerance
	return res
}

// newtonStep advances res by one damped Newton step. It reports false when no
// step reduces the residual.
func newtonStep(f Func, res *Result, s Settings) bool {
	n := len(res.X)
	jac := jacobian(f, res.X, res.Residual)

	rhs := mat.NewVecDense(n, nil)
	for i, v := range res.Residual {
		rhs.SetVec(i, -v)
	}
	var dx mat.VecDense
	if err := dx.SolveVec(jac, rhs); err != nil {
		// Ill-conditioned systems still yield a usable direction; the
		// NaN check below rejects truly singular ones.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return false
		}
	}
	step := dx.RawVector().Data
	for _, v := range step {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	limitStep(step, s.MaxStep)

	trial := make([]float64, n)
	r := make([]float64, n)
	scale := 1.0
	for h := 0; h <= maxHalvings; h++ {
		floats.AddScaledTo(trial, res.X, scale, step)
		f(trial, r)
		norm := floats.Norm(r, 1)
		if norm < res.Norm && !math.IsNaN(norm) {
			copy(res.X, trial)
			copy(res.Residual, r)
			res.Norm = norm
			return true
		}
		scale /= 2
	}
	return false
}

// jacobian builds the forward-difference Jacobian of f at x, where r = f(x).
func jacobian(f Func, x, r []float64) *mat.Dense {
	n := len(x)
	jac := mat.NewDense(n, n, nil)
	xp := append([]float64(nil), x...)
	rp := make([]float64, n)
	for j := 0; j < n; j++ {
		h := fdRelStep * math.Max(1, math.Abs(x[j]))
		xp[j] = x[j] + h
		f(xp, rp)
		for i := 0; i < n; i++ {
			jac.Set(i, j, (rp[i]-r[i])/h)
		}
		xp[j] = x[j]
	}
	return jac
}

// limitStep scales step uniformly so that no component exceeds its limit.
func limitStep(step, limits []float64) {
	scale := 1.0
	for i, v := range step {
		if i >= len(limits) || limits[i] <= 0 {
			continue
		}
		if a := math.Abs(v); a > limits[i] {
			scale = math.Min(scale, limits[i]/a)
		}
	}
	if scale < 1 {
		floats.Scale(scale, step)
	}
}

// nelderMead minimizes half the squared residual from res.X and keeps the
// minimizer if it improves on the current iterate.
func nelderMead(f Func, res *Result, s Settings) {
	n := len(res.X)
	r := make([]float64, n)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			f(x, r)
			return 0.5 * floats.Dot(r, r)
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: nmEvalFactor * n,
		Converger: &optimize.FunctionConverge{
			Absolute:   0.5 * s.Tolerance * s.Tolerance / float64(n),
			Iterations: 50,
		},
	}
	out, err := optimize.Minimize(problem, res.X, settings, &optimize.NelderMead{})
	if out == nil || (err != nil && out.X == nil) {
		return
	}
	f(out.X, r)
	norm := floats.Norm(r, 1)
	if norm < res.Norm {
		copy(res.X, out.X)
		copy(res.Residual, r)
		res.Norm = norm
	}
}
