package solver

import (
	"context"
	"time"
)

// Status is the terminal outcome of a solve
type Status int

const (
	NotSolved Status = iota
	Optimal
	Feasible
	Infeasible
	Unbounded
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	default:
		return "not_solved"
	}
}

// MarshalText renders the status by name in JSON and CSV output
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Solution is what a backend reports after a solve
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
	RunTime   time.Duration
}

// HasValues reports whether the solution carries a variable assignment
func (s *Solution) HasValues() bool {
	return s != nil && (s.Status == Optimal || s.Status == Feasible) && s.Values != nil
}

// Value returns the value of v, or 0 when the solution has no values
func (s *Solution) Value(v Var) float64 {
	if !s.HasValues() || int(v) >= len(s.Values) || v < 0 {
		return 0
	}
	return s.Values[v]
}

// Options tune a solve
type Options struct {
	// MIPGapRelative stops the search once the incumbent is within this
	// relative distance of the best bound. Zero asks for full optimality.
	MIPGapRelative float64
	// Verbose lets the backend report progress.
	Verbose bool
}

// Backend solves a Model
type Backend interface {
	Name() string
	Solve(ctx context.Context, model *Model, opts Options) (*Solution, error)
}
