// Package allocation turns BOM, supplier eligibility and distance data into
// the supply-allocation integer program and reads plans back out of solver
// results.
//
// For every lane (part, source, destination) the model holds an integer
// allocation x in [0, 100] and a binary indicator y. Per part the
// allocations sum to 100; x >= y and x <= BigM*y tie the indicator to
// whether the lane is used. The objective is sum(distance*x + y).
package allocation

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/vsinha/transportopt/pkg/application/dto"
	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/domain/repositories"
	"github.com/vsinha/transportopt/pkg/solver"
)

// BigM links an allocation to its indicator. It must exceed the largest
// possible allocation.
const BigM = 101

// Options holds the optional rules of the model
type Options struct {
	// MinSupply is a per-lane floor in percent. Zero disables the rule.
	MinSupply entities.Percent
	// RootDestinations are the final-assembly sites root parts ship to.
	// Empty leaves root parts out of the model.
	RootDestinations []entities.Manufacturer
	// Parts restricts and orders the allocated parts. Empty means every BOM part.
	Parts []entities.PartNumber
	// Capacities bound the share of a part each source may ship in total.
	Capacities []entities.SupplyCapacity
}

type laneVars struct {
	allocation solver.Var
	indicator  solver.Var
}

// Builder assembles the allocation model for one set of input tables. A
// Builder builds and solves once; it is not safe for concurrent use.
type Builder struct {
	bom       repositories.BOMRepository
	suppliers repositories.SupplierRepository
	distances repositories.DistanceRepository
	opts      Options
	log       logr.Logger

	model *solver.Model
	index *Index
	lanes map[entities.AllocationKey]laneVars

	solution *solver.Solution
}

// NewBuilder creates a builder over the given repositories
func NewBuilder(
	bom repositories.BOMRepository,
	suppliers repositories.SupplierRepository,
	distances repositories.DistanceRepository,
	opts Options,
	log logr.Logger,
) *Builder {
	return &Builder{
		bom:       bom,
		suppliers: suppliers,
		distances: distances,
		opts:      opts,
		log:       log,
	}
}

// Build derives the lane index, declares variables, and generates the
// constraints and objective. Input problems surface as *LookupError or
// *InfeasibleIndexError before any backend is involved.
func (b *Builder) Build() error {
	if b.model != nil {
		return ErrAlreadyBuilt
	}
	if err := b.opts.MinSupply.Validate(); err != nil {
		return fmt.Errorf("build model: min supply: %w", err)
	}

	index, err := DeriveIndex(b.bom, b.suppliers, b.opts.Parts, b.opts.RootDestinations)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	for _, root := range index.SkippedRoots() {
		b.log.Info("root part excluded from allocation, no final-assembly destinations configured", "part", root)
	}

	model := solver.NewModel()
	lanes := initVariables(model, index)

	addCoverageConstraints(model, index, lanes)
	addIndicatorConstraints(model, index, lanes)
	if b.opts.MinSupply > 0 {
		addMinSupplyConstraints(model, index, lanes, b.opts.MinSupply)
	}
	if len(b.opts.Capacities) > 0 {
		ignored := addFlowBalanceConstraints(model, index, lanes, b.opts.Capacities)
		for _, c := range ignored {
			b.log.V(1).Info("capacity matches no lane", "part", c.PartNumber, "manufacturer", c.Manufacturer)
		}
	}
	if err := setObjective(model, index, lanes, b.distances); err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	b.model = model
	b.index = index
	b.lanes = lanes

	b.log.V(1).Info("model built",
		"parts", len(index.Parts()),
		"lanes", index.Len(),
		"variables", model.NumVars(),
		"constraints", len(model.Constraints()))
	return nil
}

// Model returns the generated model, or nil before Build
func (b *Builder) Model() *solver.Model {
	return b.model
}

// Index returns the lane index, or nil before Build
func (b *Builder) Index() *Index {
	return b.index
}

// AllocationVar returns the allocation handle of a lane
func (b *Builder) AllocationVar(key entities.AllocationKey) (solver.Var, bool) {
	lv, ok := b.lanes[key]
	return lv.allocation, ok
}

// IndicatorVar returns the indicator handle of a lane
func (b *Builder) IndicatorVar(key entities.AllocationKey) (solver.Var, bool) {
	lv, ok := b.lanes[key]
	return lv.indicator, ok
}

// Stats summarizes the built model
func (b *Builder) Stats() dto.ModelStats {
	if b.model == nil {
		return dto.ModelStats{}
	}
	return dto.ModelStats{
		Parts:        len(b.index.Parts()),
		Triples:      b.index.Len(),
		Variables:    b.model.NumVars(),
		Constraints:  len(b.model.Constraints()),
		SkippedRoots: b.index.SkippedRoots(),
	}
}

func initVariables(model *solver.Model, index *Index) map[entities.AllocationKey]laneVars {
	lanes := make(map[entities.AllocationKey]laneVars, index.Len())
	for _, key := range index.Keys() {
		lanes[key] = laneVars{
			allocation: model.NewInt(0, int64(entities.FullAllocation), "x["+key.String()+"]"),
			indicator:  model.NewBool("y[" + key.String() + "]"),
		}
	}
	return lanes
}

// addCoverageConstraints makes every part's lanes carry exactly 100 percent
func addCoverageConstraints(model *solver.Model, index *Index, lanes map[entities.AllocationKey]laneVars) {
	for _, part := range index.Parts() {
		c := model.NewConstraint("coverage["+string(part)+"]", solver.Equal, float64(entities.FullAllocation))
		for _, key := range index.Lanes(part) {
			c.NewTerm(1, lanes[key].allocation)
		}
	}
}

// addIndicatorConstraints adds x - y >= 0 and x - BigM*y <= 0 per lane
func addIndicatorConstraints(model *solver.Model, index *Index, lanes map[entities.AllocationKey]laneVars) {
	for _, key := range index.Keys() {
		lv := lanes[key]

		lo := model.NewConstraint("link_lo["+key.String()+"]", solver.GreaterThanOrEqual, 0)
		lo.NewTerm(1, lv.allocation)
		lo.NewTerm(-1, lv.indicator)

		hi := model.NewConstraint("link_hi["+key.String()+"]", solver.LessThanOrEqual, 0)
		hi.NewTerm(1, lv.allocation)
		hi.NewTerm(-BigM, lv.indicator)
	}
}

func addMinSupplyConstraints(model *solver.Model, index *Index, lanes map[entities.AllocationKey]laneVars, minSupply entities.Percent) {
	for _, key := range index.Keys() {
		model.NewConstraint("min_supply["+key.String()+"]", solver.GreaterThanOrEqual, float64(minSupply)).
			NewTerm(1, lanes[key].allocation)
	}
}

type sourceKey struct {
	part   entities.PartNumber
	source entities.Manufacturer
}

// addFlowBalanceConstraints limits what each source ships of a part to its
// capacity. Repeated capacities for one pair keep the tightest bound. It
// returns the capacities that match no lane.
func addFlowBalanceConstraints(
	model *solver.Model,
	index *Index,
	lanes map[entities.AllocationKey]laneVars,
	capacities []entities.SupplyCapacity,
) []entities.SupplyCapacity {
	limits := make(map[sourceKey]entities.Percent, len(capacities))
	for _, c := range capacities {
		k := sourceKey{part: c.PartNumber, source: c.Manufacturer}
		if current, ok := limits[k]; !ok || c.MaxPercent < current {
			limits[k] = c.MaxPercent
		}
	}

	used := make(map[sourceKey]*solver.Constraint)
	for _, key := range index.Keys() {
		k := sourceKey{part: key.Part, source: key.Source}
		limit, ok := limits[k]
		if !ok {
			continue
		}
		c, exists := used[k]
		if !exists {
			c = model.NewConstraint(fmt.Sprintf("capacity[%s,%s]", key.Part, key.Source), solver.LessThanOrEqual, float64(limit))
			used[k] = c
		}
		c.NewTerm(1, lanes[key].allocation)
	}

	var ignored []entities.SupplyCapacity
	for _, c := range capacities {
		if _, ok := used[sourceKey{part: c.PartNumber, source: c.Manufacturer}]; !ok {
			ignored = append(ignored, c)
		}
	}
	return ignored
}

// setObjective minimizes sum(distance*x + y) over all lanes
func setObjective(
	model *solver.Model,
	index *Index,
	lanes map[entities.AllocationKey]laneVars,
	distances repositories.DistanceRepository,
) error {
	objective := model.Objective()
	objective.SetMinimize()

	for _, key := range index.Keys() {
		cost, err := distances.GetCost(key.Source, key.Destination)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return &LookupError{Part: key.Part, Source: key.Source, Destination: key.Destination, Err: err}
			}
			return fmt.Errorf("distance %s -> %s: %w", key.Source, key.Destination, err)
		}

		lv := lanes[key]
		objective.NewTerm(cost.InexactFloat64(), lv.allocation)
		objective.NewTerm(1, lv.indicator)
	}
	return nil
}
