package main

import (
	"context"
	"fmt"
	"log"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/application/allocation"
	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/transportopt/pkg/solver"
	"github.com/vsinha/transportopt/pkg/solver/branchbound"
)

func main() {
	ctx := context.Background()

	// Create repositories
	bomRepo := memory.NewBOMRepository(3)
	supplierRepo := memory.NewSupplierRepository(6)
	distanceRepo := memory.NewDistanceRepository()

	// Set up a small engine BOM: turbopumps feed the engine, the engine is
	// the final assembly
	setupEngineBOM(bomRepo, supplierRepo, distanceRepo)

	builder := allocation.NewBuilder(bomRepo, supplierRepo, distanceRepo, allocation.Options{
		// The Sacramento pump shop can take at most 60% of turbopump volume
		Capacities: []entities.SupplyCapacity{
			{PartNumber: "TURBOPUMP", Manufacturer: "SACRAMENTO", MaxPercent: 60},
		},
	}, logr.Discard())

	if err := builder.Build(); err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}

	plan, err := builder.Solve(ctx, branchbound.New(), solver.Options{})
	if err != nil {
		log.Fatalf("Failed to solve model: %v", err)
	}

	fmt.Printf("Status: %s\n", plan.Status)
	fmt.Printf("Objective Value: %s\n", plan.Objective)
	byPart := plan.ByPart()
	for _, part := range plan.Parts {
		fmt.Printf("%s:\n", part)
		for _, a := range byPart[part] {
			fmt.Printf("  %s -> %s %d%% allocation\n", a.Source, a.Destination, a.Percent)
		}
	}
}

func setupEngineBOM(bomRepo *memory.BOMRepository, supplierRepo *memory.SupplierRepository, distanceRepo *memory.DistanceRepository) {
	lines := []entities.BOMLine{
		{PartNumber: "ENGINE"},
		{PartNumber: "TURBOPUMP", ParentPN: "ENGINE"},
		{PartNumber: "INJECTOR", ParentPN: "ENGINE"},
	}
	for _, line := range lines {
		if err := bomRepo.AddBOMLine(line); err != nil {
			log.Fatal(err)
		}
	}

	eligible := map[entities.PartNumber][]entities.Manufacturer{
		"ENGINE":    {"CANOGA_PARK", "MICHOUD"},
		"TURBOPUMP": {"HUNTSVILLE", "SACRAMENTO"},
		"INJECTOR":  {"SACRAMENTO", "CANOGA_PARK"},
	}
	for _, line := range lines {
		for _, m := range eligible[line.PartNumber] {
			supplierRepo.AddEligibility(entities.SupplierEligibility{PartNumber: line.PartNumber, Manufacturer: m})
		}
	}

	manufacturers := []entities.Manufacturer{"CANOGA_PARK", "MICHOUD", "HUNTSVILLE", "SACRAMENTO"}
	// Rough road miles
	miles := [][]int64{
		{0, 1900, 2000, 390},
		{1900, 0, 400, 2150},
		{2000, 400, 0, 2250},
		{390, 2150, 2250, 0},
	}

	matrix, err := entities.NewDistanceMatrix(manufacturers)
	if err != nil {
		log.Fatal(err)
	}
	for i, from := range manufacturers {
		for j, to := range manufacturers {
			if err := matrix.Set(from, to, decimal.NewFromInt(miles[i][j])); err != nil {
				log.Fatal(err)
			}
		}
	}
	if err := distanceRepo.LoadMatrix(matrix); err != nil {
		log.Fatal(err)
	}
}
