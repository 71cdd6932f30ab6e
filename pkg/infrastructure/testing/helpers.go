package testing

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/memory"
)

// Fixture bundles populated repositories for one scenario
type Fixture struct {
	BOM        *memory.BOMRepository
	Suppliers  *memory.SupplierRepository
	Distances  *memory.DistanceRepository
	Capacities []entities.SupplyCapacity
}

// BuildEngineTestData builds a three-level engine scenario:
//
//	ENGINE (root)
//	├── TURBOPUMP   sourced from HUNTSVILLE or SACRAMENTO (SACRAMENTO capped at 60%)
//	│   └── VALVE   sourced from CLEVELAND or SACRAMENTO (SACRAMENTO capped at 30%)
//	└── INJECTOR    sourced from SACRAMENTO or CANOGA_PARK
//
// ENGINE itself is built at CANOGA_PARK or MICHOUD. Distances are rough road
// miles. The optimum with capacities is 84905.
func BuildEngineTestData() *Fixture {
	lines := []entities.BOMLine{
		{PartNumber: "ENGINE"},
		{PartNumber: "TURBOPUMP", ParentPN: "ENGINE"},
		{PartNumber: "INJECTOR", ParentPN: "ENGINE"},
		{PartNumber: "VALVE", ParentPN: "TURBOPUMP"},
	}
	eligible := map[entities.PartNumber][]entities.Manufacturer{
		"ENGINE":    {"CANOGA_PARK", "MICHOUD"},
		"TURBOPUMP": {"HUNTSVILLE", "SACRAMENTO"},
		"INJECTOR":  {"SACRAMENTO", "CANOGA_PARK"},
		"VALVE":     {"CLEVELAND", "SACRAMENTO"},
	}

	manufacturers := []entities.Manufacturer{"CANOGA_PARK", "MICHOUD", "HUNTSVILLE", "SACRAMENTO", "CLEVELAND"}
	miles := [][]int64{
		{0, 1900, 2000, 390, 2350},
		{1900, 0, 400, 2150, 1050},
		{2000, 400, 0, 2250, 650},
		{390, 2150, 2250, 0, 2450},
		{2350, 1050, 650, 2450, 0},
	}

	fixture := build(lines, eligible, manufacturers, miles)
	fixture.Capacities = []entities.SupplyCapacity{
		{PartNumber: "TURBOPUMP", Manufacturer: "SACRAMENTO", MaxPercent: 60},
		{PartNumber: "VALVE", Manufacturer: "SACRAMENTO", MaxPercent: 30},
	}
	return fixture
}

// BuildSimpleTestData creates part A under ROOT, sourced from M1 or M2 into
// M3, with d(M1,M3) = 5 and d(M2,M3) = 2. The optimum is 201.
func BuildSimpleTestData() *Fixture {
	lines := []entities.BOMLine{
		{PartNumber: "ROOT"},
		{PartNumber: "A", ParentPN: "ROOT"},
	}
	eligible := map[entities.PartNumber][]entities.Manufacturer{
		"ROOT": {"M3"},
		"A":    {"M1", "M2"},
	}
	manufacturers := []entities.Manufacturer{"M1", "M2", "M3"}
	miles := [][]int64{
		{0, 4, 5},
		{4, 0, 2},
		{5, 2, 0},
	}
	return build(lines, eligible, manufacturers, miles)
}

func build(
	lines []entities.BOMLine,
	eligible map[entities.PartNumber][]entities.Manufacturer,
	manufacturers []entities.Manufacturer,
	costs [][]int64,
) *Fixture {
	fixture := &Fixture{
		BOM:       memory.NewBOMRepository(len(lines)),
		Suppliers: memory.NewSupplierRepository(2 * len(lines)),
		Distances: memory.NewDistanceRepository(),
	}

	for _, line := range lines {
		if err := fixture.BOM.AddBOMLine(line); err != nil {
			panic(err)
		}
		for _, m := range eligible[line.PartNumber] {
			fixture.Suppliers.AddEligibility(entities.SupplierEligibility{PartNumber: line.PartNumber, Manufacturer: m})
		}
	}

	matrix, err := entities.NewDistanceMatrix(manufacturers)
	if err != nil {
		panic(err)
	}
	for i, from := range manufacturers {
		for j, to := range manufacturers {
			if err := matrix.Set(from, to, decimal.NewFromInt(costs[i][j])); err != nil {
				panic(err)
			}
		}
	}
	if err := fixture.Distances.LoadMatrix(matrix); err != nil {
		panic(err)
	}

	return fixture
}
