package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/solver"
)

// AllocationPlan contains the complete output of one build and solve
type AllocationPlan struct {
	Status      solver.Status
	Backend     string
	Objective   decimal.Decimal
	Allocations []entities.Allocation
	Parts       []entities.PartNumber
	Stats       ModelStats
	SolveTime   time.Duration
}

// ModelStats summarizes the generated model
type ModelStats struct {
	Parts        int
	Triples      int
	Variables    int
	Constraints  int
	SkippedRoots []entities.PartNumber
}

// Solved reports whether the backend produced an assignment, even one with
// no nonzero allocations
func (p *AllocationPlan) Solved() bool {
	return p.Status == solver.Optimal || p.Status == solver.Feasible
}

// ByPart groups the nonzero allocations by part in plan order
func (p *AllocationPlan) ByPart() map[entities.PartNumber][]entities.Allocation {
	grouped := make(map[entities.PartNumber][]entities.Allocation, len(p.Parts))
	for _, a := range p.Allocations {
		grouped[a.Part] = append(grouped[a.Part], a)
	}
	return grouped
}
