package gosymopt

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Result is the outcome of a successful Solve.
type Result struct {
	// Order names the active variables; X holds their optimal values in
	// that order.
	Order []string
	X     []float64
	// Values holds every variable at the optimum, passive ones included.
	Values map[string]float64
	// F is the objective at X with the user's sign (not negated for
	// maximization).
	F float64

	Converged       bool
	Status          string
	Iterations      int
	FuncEvaluations int
	GradEvaluations int
	// OuterIterations counts augmented-Lagrangian rounds; 1 without
	// enforced constraints.
	OuterIterations int
	// MaxViolation is the largest violation over the active constraints at
	// X, whether or not they were enforced.
	MaxViolation float64
	Runtime      time.Duration

	// Raw is the last gonum result, in the solver's internal coordinates.
	Raw *optimize.Result
}

// Value returns the optimal value of the named variable.
func (r *Result) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Solve minimizes (or maximizes) the objective over the active variables,
// starting from their current values. Passive variables enter every
// evaluation as constants. The solution is stored on the problem but not
// written into the variables; see ApplyResult.
func (p *Problem) Solve(opts ...SolveOption) (*Result, error) {
	cfg := solveConfig{verbose: true, enforce: true, method: p.method, settings: p.settings}
	for _, opt := range opts {
		opt(&cfg)
	}
	p.result = nil

	if _, err := ParseOptType(string(p.optType)); err != nil {
		return nil, err
	}
	if p.objective == nil {
		return nil, fmt.Errorf("%w: no objective", ErrIncompleteModel)
	}
	active := p.ActiveVariables()
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: no active variables", ErrIncompleteModel)
	}
	method, err := cfg.method.build()
	if err != nil {
		return nil, err
	}

	p.activeOrder = variableNames(active)
	p.current = make(map[string]float64, len(p.vars))
	for _, v := range p.vars {
		p.current[v.name] = v.value
	}
	x0 := make([]float64, len(active))
	bounds := make(boxTransform, len(active))
	for i, v := range active {
		x0[i] = p.current[v.name]
		bounds[i] = v.bound
	}

	jac, err := p.objective.Jacobian(active, p.vars)
	if err != nil {
		return nil, err
	}
	b := &bridge{
		p:      p,
		box:    bounds,
		sign:   p.optType.sign(),
		objJac: jac,
	}
	constraints := p.ActiveConstraints()
	if cfg.enforce {
		for _, c := range constraints {
			cj, err := c.Jacobian(active, p.vars)
			if err != nil {
				return nil, err
			}
			b.cons = append(b.cons, &multiplier{c: c, jac: cj})
		}
	}

	logger := p.logger.With(zap.String("method", string(cfg.method)), zap.String("sense", string(p.optType)))
	log := logger.Debug
	if cfg.verbose {
		log = logger.Info
	}
	log("solve started",
		zap.Strings("active", p.activeOrder),
		zap.Int("constraints", len(b.cons)),
		zap.Bool("symbolic_gradient", jac != nil))

	start := time.Now()
	res, err := b.run(x0, method, cfg, logger)
	if err != nil {
		logger.Warn("solve failed", zap.Error(err), zap.Duration("runtime", time.Since(start)))
		return nil, err
	}
	res.Runtime = time.Since(start)
	for _, c := range constraints {
		v, err := c.Evaluate(res.Values)
		if err != nil {
			return nil, err
		}
		res.MaxViolation = math.Max(res.MaxViolation, c.violation(v))
	}
	log("solve finished",
		zap.Float64s("x", res.X),
		zap.Float64("f", res.F),
		zap.String("status", res.Status),
		zap.Int("iterations", res.Iterations),
		zap.Duration("runtime", res.Runtime))

	p.result = res
	return res, nil
}

// ============================================================
// bridge — flat-vector view of a Problem for gonum
// ============================================================

type multiplier struct {
	c      *Constraint
	jac    JacobianFunc
	lambda float64
}

type bridge struct {
	p      *Problem
	box    boxTransform
	sign   float64
	objJac JacobianFunc
	cons   []*multiplier
	mu     float64

	// err holds the first evaluation error; gonum callbacks cannot return one.
	err error
}

func (b *bridge) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// bind writes x into the current binding set in active order.
func (b *bridge) bind(x []float64) {
	for i, name := range b.p.activeOrder {
		b.p.current[name] = x[i]
	}
}

func (b *bridge) objective(x []float64) float64 {
	b.bind(x)
	v, err := b.p.objective.Evaluate(b.p.current)
	if err != nil {
		b.fail(err)
		return math.NaN()
	}
	return b.sign * v
}

func (b *bridge) objectiveGrad(dst, x []float64) {
	if b.objJac == nil {
		fd.Gradient(dst, b.objective, x, &fd.Settings{Formula: fd.Central})
		return
	}
	b.bind(x)
	g, err := b.objJac(b.p.current)
	if err != nil {
		b.fail(err)
		floats.Scale(math.NaN(), dst)
		return
	}
	copy(dst, g)
	floats.Scale(b.sign, dst)
}

// constraint returns the oriented value of m: feasible when >= 0, or == 0
// for equalities.
func (b *bridge) constraint(m *multiplier, x []float64) float64 {
	b.bind(x)
	v, err := m.c.Evaluate(b.p.current)
	if err != nil {
		b.fail(err)
		return math.NaN()
	}
	return m.c.orient(v)
}

func (b *bridge) constraintGrad(m *multiplier, dst, x []float64) {
	if m.jac == nil {
		fd.Gradient(dst, func(x []float64) float64 { return b.constraint(m, x) }, x, &fd.Settings{Formula: fd.Central})
		return
	}
	b.bind(x)
	g, err := m.jac(b.p.current)
	if err != nil {
		b.fail(err)
		floats.Scale(math.NaN(), dst)
		return
	}
	copy(dst, g)
	if m.c.orient(1) < 0 {
		floats.Scale(-1, dst)
	}
}

// lagrangian is the PHR augmented Lagrangian
//
//	f(x) + Σeq (μ/2·c² - λc) + Σineq (max(0, λ-μc)² - λ²)/(2μ)
//
// which reduces to f(x) without constraints.
func (b *bridge) lagrangian(x []float64) float64 {
	f := b.objective(x)
	for _, m := range b.cons {
		c := b.constraint(m, x)
		if m.c.rel.IsEquality() {
			f += b.mu/2*c*c - m.lambda*c
		} else {
			s := math.Max(0, m.lambda-b.mu*c)
			f += (s*s - m.lambda*m.lambda) / (2 * b.mu)
		}
	}
	return f
}

func (b *bridge) lagrangianGrad(dst, x []float64) {
	b.objectiveGrad(dst, x)
	if len(b.cons) == 0 {
		return
	}
	cg := make([]float64, len(x))
	for _, m := range b.cons {
		c := b.constraint(m, x)
		var w float64
		if m.c.rel.IsEquality() {
			w = b.mu*c - m.lambda
		} else {
			w = -math.Max(0, m.lambda-b.mu*c)
		}
		if w == 0 {
			continue
		}
		b.constraintGrad(m, cg, x)
		floats.AddScaled(dst, w, cg)
	}
}

func (b *bridge) maxViolation(x []float64) float64 {
	worst := 0.0
	for _, m := range b.cons {
		c := b.constraint(m, x)
		if m.c.rel.IsEquality() {
			worst = math.Max(worst, math.Abs(c))
		} else {
			worst = math.Max(worst, -c)
		}
	}
	return worst
}

func (b *bridge) updateMultipliers(x []float64) {
	for _, m := range b.cons {
		c := b.constraint(m, x)
		if m.c.rel.IsEquality() {
			m.lambda -= b.mu * c
		} else {
			m.lambda = math.Max(0, m.lambda-b.mu*c)
		}
	}
}

// run solves in the transformed coordinates, wrapping the inner solve in
// multiplier updates when constraints are enforced.
func (b *bridge) run(x0 []float64, method optimize.Method, cfg solveConfig, logger *zap.Logger) (*Result, error) {
	u := b.box.internal(x0)
	problem := optimize.Problem{
		Func: func(u []float64) float64 { return b.lagrangian(b.box.external(u)) },
		Status: func() (optimize.Status, error) {
			if b.err != nil {
				return optimize.Failure, b.err
			}
			return optimize.NotTerminated, nil
		},
	}
	if cfg.method.usesGradient() {
		problem.Grad = func(grad, u []float64) {
			b.lagrangianGrad(grad, b.box.external(u))
			b.box.chain(grad, u)
		}
	}
	settings := cfg.settings.gonum()
	if cfg.verbose {
		settings.Recorder = &iterationLogger{logger: logger, box: b.box}
	}

	b.mu = cfg.settings.InitialPenalty
	if b.mu <= 0 {
		b.mu = DefaultSettings().InitialPenalty
	}
	outer := 1
	if len(b.cons) > 0 {
		outer = cfg.settings.MaxOuterIterations
		if outer <= 0 {
			outer = DefaultSettings().MaxOuterIterations
		}
	}
	ctol := cfg.settings.ConstraintTolerance
	if ctol <= 0 {
		ctol = DefaultSettings().ConstraintTolerance
	}

	res := &Result{Order: append([]string(nil), b.p.activeOrder...)}
	var (
		raw       *optimize.Result
		innerErr  error
		violation = math.Inf(1)
	)
	for k := 0; k < outer; k++ {
		raw, innerErr = optimize.Minimize(problem, u, settings, method)
		if b.err != nil {
			return nil, b.err
		}
		if raw == nil {
			return nil, &NonConvergenceError{Status: optimize.Failure.String(), Err: innerErr}
		}
		res.OuterIterations = k + 1
		res.Iterations += raw.Stats.MajorIterations
		res.FuncEvaluations += raw.Stats.FuncEvaluations
		res.GradEvaluations += raw.Stats.GradEvaluations
		u = raw.X

		if len(b.cons) == 0 {
			break
		}
		x := b.box.external(u)
		prev := violation
		violation = b.maxViolation(x)
		logger.Debug("multiplier update",
			zap.Int("outer", k+1),
			zap.Float64("violation", violation),
			zap.Float64("penalty", b.mu))
		if violation <= ctol {
			break
		}
		b.updateMultipliers(x)
		if violation > 0.25*prev {
			b.mu *= 10
		}
	}

	if len(b.cons) == 0 {
		violation = 0
	}
	x := b.box.external(u)
	res.Raw = raw
	res.Status = raw.Status.String()
	res.X = x
	res.Converged = converged(raw.Status) || b.stationary(x, cfg.settings.GradientTolerance)
	if len(b.cons) > 0 && violation > ctol {
		res.Converged = false
	}
	if !res.Converged {
		return nil, &NonConvergenceError{
			Status:       res.Status,
			Iterations:   res.Iterations,
			MaxViolation: violation,
			Err:          innerErr,
		}
	}

	b.bind(x)
	res.Values = make(map[string]float64, len(b.p.current))
	for k, v := range b.p.current {
		res.Values[k] = v
	}
	f, err := b.p.objective.Evaluate(b.p.current)
	if err != nil {
		return nil, err
	}
	res.F = f
	return res, nil
}

// stationary reports whether the bound-projected gradient of the augmented
// objective at x is below tol: a first-order point that gonum's stopping
// rules may not have recognised, typically one on a bound.
func (b *bridge) stationary(x []float64, tol float64) bool {
	g := make([]float64, len(x))
	b.lagrangianGrad(g, x)
	if b.err != nil {
		return false
	}
	for i, bd := range b.box {
		lower, upper := bd.atBound(x[i], 1e-6)
		if (lower && g[i] > 0) || (upper && g[i] < 0) {
			g[i] = 0
		}
	}
	f := b.lagrangian(x)
	return floats.Norm(g, 2) <= math.Max(tol, 1e-6)*(1+math.Abs(f))
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.FunctionThreshold, optimize.MethodConverge:
		return true
	}
	return false
}

// iterationLogger is a gonum Recorder that logs major iterations in the
// user's coordinates.
type iterationLogger struct {
	logger *zap.Logger
	box    boxTransform
}

func (r *iterationLogger) Init() error { return nil }

func (r *iterationLogger) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	r.logger.Info("iteration",
		zap.Int("iter", stats.MajorIterations),
		zap.Float64("f", loc.F),
		zap.Float64s("x", r.box.external(loc.X)))
	return nil
}
