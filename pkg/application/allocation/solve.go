package allocation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/application/dto"
	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/solver"
)

// objectivePlaces is the precision the reported objective is rounded to
const objectivePlaces = 6

// Solve runs the backend on the built model and extracts the plan. When the
// backend reports no assignment the plan carries the status and the error
// wraps ErrNoSolution.
func (b *Builder) Solve(ctx context.Context, backend solver.Backend, opts solver.Options) (*dto.AllocationPlan, error) {
	if b.model == nil {
		return nil, ErrNotBuilt
	}

	sol, err := backend.Solve(ctx, b.model, opts)
	if err != nil {
		return nil, fmt.Errorf("solve with %s: %w", backend.Name(), err)
	}

	b.solution = sol

	plan := &dto.AllocationPlan{
		Status:    sol.Status,
		Backend:   backend.Name(),
		Parts:     b.index.Parts(),
		Stats:     b.Stats(),
		SolveTime: sol.RunTime,
	}
	if !sol.HasValues() {
		return plan, fmt.Errorf("%w: %s reported %s", ErrNoSolution, backend.Name(), sol.Status)
	}

	plan.Objective = decimal.NewFromFloat(sol.Objective).Round(objectivePlaces)
	plan.Allocations = b.Extract(sol)

	b.log.V(1).Info("model solved",
		"backend", backend.Name(),
		"status", sol.Status.String(),
		"objective", plan.Objective.String(),
		"allocations", len(plan.Allocations))
	return plan, nil
}

// Solution returns the backend result of the last Solve, or nil
func (b *Builder) Solution() *solver.Solution {
	return b.solution
}

// Extract lists the lanes with a positive allocation in lane order
func (b *Builder) Extract(sol *solver.Solution) []entities.Allocation {
	if b.model == nil || !sol.HasValues() {
		return nil
	}

	var allocations []entities.Allocation
	for _, key := range b.index.Keys() {
		pct := math.Round(sol.Value(b.lanes[key].allocation))
		if pct > 0 {
			allocations = append(allocations, entities.Allocation{
				AllocationKey: key,
				Percent:       entities.Percent(pct),
			})
		}
	}
	return allocations
}

// Verify checks a solution against the coverage and indicator rules: every
// part sums to 100 and a lane's indicator is zero exactly when its
// allocation is.
func (b *Builder) Verify(sol *solver.Solution) error {
	if b.model == nil {
		return ErrNotBuilt
	}
	if !sol.HasValues() {
		return ErrNoSolution
	}

	var errs []error
	for _, part := range b.index.Parts() {
		total := 0
		for _, key := range b.index.Lanes(part) {
			total += int(math.Round(sol.Value(b.lanes[key].allocation)))
		}
		if total != int(entities.FullAllocation) {
			errs = append(errs, fmt.Errorf("part %s: allocations sum to %d%%, want 100%%", part, total))
		}
	}

	for _, key := range b.index.Keys() {
		lv := b.lanes[key]
		x := math.Round(sol.Value(lv.allocation))
		y := math.Round(sol.Value(lv.indicator))
		if (x == 0) != (y == 0) {
			errs = append(errs, fmt.Errorf("lane %s: allocation %g with indicator %g", key, x, y))
		}
	}

	return errors.Join(errs...)
}
