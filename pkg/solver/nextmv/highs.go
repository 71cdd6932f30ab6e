// Package nextmv solves models with HiGHS through the nextmv sdk mip
// package. The HiGHS provider plugin must be available to the nextmv runtime.
package nextmv

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"github.com/nextmv-io/sdk/mip"

	"github.com/vsinha/transportopt/pkg/solver"
)

// provider names the nextmv solver plugin
const provider = "highs"

// Solver is the HiGHS backend
type Solver struct {
	log logr.Logger
}

// New creates a HiGHS backend
func New(log logr.Logger) *Solver {
	return &Solver{log: log}
}

// Verify interface compliance
var _ solver.Backend = (*Solver)(nil)

// Name implements solver.Backend
func (s *Solver) Name() string {
	return provider
}

// Solve implements solver.Backend
func (s *Solver) Solve(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("highs: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("highs: %w", err)
	}

	model, vars := translate(m)

	sv, err := mip.NewSolver(provider, model)
	if err != nil {
		return nil, fmt.Errorf("highs: create solver: %w", err)
	}

	solveOptions := mip.NewSolveOptions()
	if err := solveOptions.SetMIPGapRelative(opts.MIPGapRelative); err != nil {
		return nil, fmt.Errorf("highs: set relative gap: %w", err)
	}
	if opts.Verbose {
		solveOptions.SetVerbosity(mip.Low)
	} else {
		solveOptions.SetVerbosity(mip.Off)
	}

	start := time.Now()
	result, err := sv.Solve(solveOptions)
	if err != nil {
		return nil, fmt.Errorf("highs: solve: %w", err)
	}

	sol := &solver.Solution{
		Status:  statusOf(result),
		RunTime: time.Since(start),
	}
	if sol.Status == solver.Optimal || sol.Status == solver.Feasible {
		sol.Objective = result.ObjectiveValue()
		sol.Values = make([]float64, len(vars))
		for i, v := range vars {
			sol.Values[i] = result.Value(v)
		}
	}

	s.log.V(1).Info("highs finished", "status", sol.Status.String(), "objective", sol.Objective, "runtime", sol.RunTime)
	return sol, nil
}

// translate rebuilds the arena as a nextmv mip.Model, one mip.Var per handle
func translate(m *solver.Model) (mip.Model, []mip.Var) {
	model := mip.NewModel()
	vars := make([]mip.Var, m.NumVars())

	for i, info := range m.Vars() {
		switch info.Kind {
		case solver.Binary:
			vars[i] = model.NewBool()
		case solver.Integer:
			vars[i] = model.NewInt(intBound(info.Lower), intBound(info.Upper))
		default:
			vars[i] = model.NewFloat(info.Lower, info.Upper)
		}
	}

	for _, c := range m.Constraints() {
		constraint := model.NewConstraint(senseOf(c.Sense), c.RHS)
		for _, t := range c.Terms {
			constraint.NewTerm(t.Coefficient, vars[t.Var])
		}
	}

	objective := model.Objective()
	if m.Objective().IsMaximize() {
		objective.SetMaximize()
	} else {
		objective.SetMinimize()
	}
	for _, t := range m.Objective().Terms() {
		objective.NewTerm(t.Coefficient, vars[t.Var])
	}

	return model, vars
}

func intBound(v float64) int64 {
	switch {
	case math.IsInf(v, 1) || v >= math.MaxInt64:
		return math.MaxInt64
	case math.IsInf(v, -1) || v <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(math.Round(v))
	}
}

func senseOf(s solver.Sense) mip.Sense {
	switch s {
	case solver.LessThanOrEqual:
		return mip.LessThanOrEqual
	case solver.GreaterThanOrEqual:
		return mip.GreaterThanOrEqual
	default:
		return mip.Equal
	}
}

// outcome is the part of mip.Solution the status mapping reads
type outcome interface {
	HasValues() bool
	IsOptimal() bool
	IsInfeasible() bool
	IsUnbounded() bool
}

func statusOf(result outcome) solver.Status {
	switch {
	case result == nil:
		return solver.NotSolved
	case result.IsOptimal() && result.HasValues():
		return solver.Optimal
	case result.HasValues():
		return solver.Feasible
	case result.IsInfeasible():
		return solver.Infeasible
	case result.IsUnbounded():
		return solver.Unbounded
	default:
		return solver.NotSolved
	}
}
