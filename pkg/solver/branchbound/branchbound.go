// Package branchbound is an in-process MIP backend: depth-first branch and
// bound over LP relaxations solved with a bounded-variable simplex on gonum
// dense matrices.
//
// Every variable needs a finite lower bound. The standard form is compiled
// once per solve and each node only tightens variable bounds. The tableau is
// dense, so the backend targets models up to a few thousand variables; larger
// instances belong on the nextmv HiGHS backend.
//
// With a positive relative MIP gap the search may stop early and reports
// solver.Feasible rather than solver.Optimal.
package branchbound

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"

	"github.com/vsinha/transportopt/pkg/solver"
)

const (
	integralityTol = 1e-6
	feasibilityTol = 1e-7
	pruneTol       = 1e-9
)

// ErrUnsupportedModel is returned for models the backend cannot relax
var ErrUnsupportedModel = errors.New("branchbound: unsupported model")

// Solver is the branch-and-bound backend
type Solver struct {
	log      logr.Logger
	maxNodes int
}

// Option configures a Solver
type Option func(*Solver)

// WithLogger sets the logger used for progress output
func WithLogger(log logr.Logger) Option {
	return func(s *Solver) { s.log = log }
}

// WithMaxNodes caps the number of explored nodes. Zero means no cap.
func WithMaxNodes(n int) Option {
	return func(s *Solver) { s.maxNodes = n }
}

// New creates a branch-and-bound backend
func New(opts ...Option) *Solver {
	s := &Solver{log: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify interface compliance
var _ solver.Backend = (*Solver)(nil)

// Name implements solver.Backend
func (s *Solver) Name() string {
	return "branchbound"
}

// node is a subproblem defined by tightened variable bounds
type node struct {
	lower []float64
	upper []float64
}

func (n node) withLower(j int, v float64) node {
	lower := make([]float64, len(n.lower))
	copy(lower, n.lower)
	lower[j] = v
	return node{lower: lower, upper: n.upper}
}

func (n node) withUpper(j int, v float64) node {
	upper := make([]float64, len(n.upper))
	copy(upper, n.upper)
	upper[j] = v
	return node{lower: n.lower, upper: upper}
}

// worthExploring reports whether a node bound can still beat the incumbent
// by more than the allowed gap.
func worthExploring(bound, best, gap float64) bool {
	if math.IsInf(best, 1) {
		return true
	}
	scale := math.Max(1, math.Abs(best))
	if gap <= 0 {
		return bound < best-pruneTol*scale
	}
	return best-bound > gap*math.Max(math.Abs(best), pruneTol)
}

// Solve implements solver.Backend
func (s *Solver) Solve(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Solution, error) {
	start := time.Now()

	if opts.MIPGapRelative < 0 {
		return nil, fmt.Errorf("branchbound: mip gap cannot be negative, got %g", opts.MIPGapRelative)
	}

	p, err := compile(m)
	if err != nil {
		return nil, err
	}

	sol := &solver.Solution{Status: solver.NotSolved}
	if p.n == 0 {
		if p.infeasible {
			sol.Status = solver.Infeasible
			sol.RunTime = time.Since(start)
			return sol, nil
		}
		sol.Status = solver.Optimal
		sol.Values = []float64{}
		sol.RunTime = time.Since(start)
		return sol, nil
	}

	root := node{lower: make([]float64, p.n), upper: make([]float64, p.n)}
	for j, info := range m.Vars() {
		root.lower[j], root.upper[j] = info.Lower, info.Upper
		if p.integral[j] {
			root.lower[j] = math.Ceil(info.Lower - integralityTol)
			if !math.IsInf(info.Upper, 1) {
				root.upper[j] = math.Floor(info.Upper + integralityTol)
			}
		}
	}

	stack := []node{root}
	best := math.Inf(1)
	rootBound := math.Inf(-1)
	var incumbent []float64
	limitHit := false
	gapPruned := false

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("branchbound: %w", err)
		}
		if s.maxNodes > 0 && sol.Nodes >= s.maxNodes {
			limitHit = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sol.Nodes++

		rel, err := p.relax(ctx, nd.lower, nd.upper)
		if err != nil {
			return nil, fmt.Errorf("branchbound: node %d: %w", sol.Nodes, err)
		}

		switch rel.status {
		case solver.Infeasible:
			continue
		case solver.Unbounded:
			if sol.Nodes == 1 {
				sol.Status = solver.Unbounded
				sol.RunTime = time.Since(start)
				return sol, nil
			}
			continue
		}

		bound := p.bound(rel.obj)
		if sol.Nodes == 1 {
			rootBound = bound
		}
		if !worthExploring(bound, best, opts.MIPGapRelative) {
			if opts.MIPGapRelative > 0 && worthExploring(bound, best, 0) {
				gapPruned = true
			}
			continue
		}

		j := p.branchVar(rel.x)
		if j < 0 {
			x := p.round(rel.x)
			if !p.feasible(x) {
				s.log.V(1).Info("rounded relaxation violates a constraint", "node", sol.Nodes)
				continue
			}
			if obj := p.objective(x); obj < best {
				best = obj
				incumbent = x
				if opts.Verbose {
					s.log.Info("new incumbent", "node", sol.Nodes, "objective", m.Evaluate(x), "open", len(stack))
				}
			}
			// No node can beat the root bound.
			if !worthExploring(rootBound, best, 0) {
				stack = stack[:0]
			}
			continue
		}

		v := rel.x[j]
		down := nd.withUpper(j, math.Floor(v))
		up := nd.withLower(j, math.Ceil(v))
		// The child nearer the relaxed value is explored first.
		if v-math.Floor(v) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	sol.RunTime = time.Since(start)
	switch {
	case incumbent == nil && limitHit:
		sol.Status = solver.NotSolved
	case incumbent == nil:
		sol.Status = solver.Infeasible
	case limitHit, gapPruned:
		sol.Status = solver.Feasible
	default:
		sol.Status = solver.Optimal
	}
	if incumbent != nil {
		sol.Values = incumbent
		sol.Objective = m.Evaluate(incumbent)
	}

	s.log.V(1).Info("branch and bound finished",
		"status", sol.Status.String(), "nodes", sol.Nodes, "objective", sol.Objective, "runtime", sol.RunTime)
	return sol, nil
}
