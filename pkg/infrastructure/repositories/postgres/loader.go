package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/infrastructure/logging"
)

// Loader reads the input tables created by InitSchema
type Loader struct {
	DB *sql.DB
}

// NewLoader creates a loader over an open database
func NewLoader(db *sql.DB) *Loader {
	return &Loader{DB: db}
}

// LoadScenario reads all four tables
func (l *Loader) LoadScenario(ctx context.Context) (_ *entities.Scenario, err error) {
	defer logging.Time(ctx, "postgres.LoadScenario")(&err)

	bom, err := l.LoadBOM(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := l.LoadSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	distances, err := l.LoadDistances(ctx)
	if err != nil {
		return nil, err
	}
	capacities, err := l.LoadCapacities(ctx)
	if err != nil {
		return nil, err
	}

	return &entities.Scenario{
		BOM:        bom,
		Suppliers:  suppliers,
		Distances:  distances,
		Capacities: capacities,
	}, nil
}

// LoadBOM reads bom_lines in insertion order
func (l *Loader) LoadBOM(ctx context.Context) ([]*entities.BOMLine, error) {
	if l.DB == nil {
		return nil, errors.New("load bom: db is nil")
	}

	rows, err := l.DB.QueryContext(ctx, `SELECT part_number, parent_pn FROM bom_lines ORDER BY ordinal;`)
	if err != nil {
		return nil, fmt.Errorf("load bom: query bom_lines table: %w", err)
	}
	defer rows.Close()

	var lines []*entities.BOMLine
	for rows.Next() {
		var part, parent string
		if err := rows.Scan(&part, &parent); err != nil {
			return nil, fmt.Errorf("load bom: scan rows: %w", err)
		}
		line, err := entities.NewBOMLine(entities.PartNumber(part), entities.PartNumber(parent))
		if err != nil {
			return nil, fmt.Errorf("load bom: part %q: %w", part, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bom: row iteration: %w", err)
	}

	return lines, nil
}

// LoadSuppliers reads supplier_eligibility in insertion order
func (l *Loader) LoadSuppliers(ctx context.Context) ([]*entities.SupplierEligibility, error) {
	if l.DB == nil {
		return nil, errors.New("load suppliers: db is nil")
	}

	rows, err := l.DB.QueryContext(ctx, `SELECT part_number, manufacturer FROM supplier_eligibility ORDER BY ordinal;`)
	if err != nil {
		return nil, fmt.Errorf("load suppliers: query supplier_eligibility table: %w", err)
	}
	defer rows.Close()

	var out []*entities.SupplierEligibility
	for rows.Next() {
		var part, manufacturer string
		if err := rows.Scan(&part, &manufacturer); err != nil {
			return nil, fmt.Errorf("load suppliers: scan rows: %w", err)
		}
		row, err := entities.NewSupplierEligibility(entities.PartNumber(part), entities.Manufacturer(manufacturer))
		if err != nil {
			return nil, fmt.Errorf("load suppliers: part %q: %w", part, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load suppliers: row iteration: %w", err)
	}

	return out, nil
}

// LoadDistances reads the distances table into a matrix over every
// manufacturer that appears in it
func (l *Loader) LoadDistances(ctx context.Context) (*entities.DistanceMatrix, error) {
	if l.DB == nil {
		return nil, errors.New("load distances: db is nil")
	}

	rows, err := l.DB.QueryContext(ctx, `SELECT source, destination, cost FROM distances ORDER BY source, destination;`)
	if err != nil {
		return nil, fmt.Errorf("load distances: query distances table: %w", err)
	}
	defer rows.Close()

	type entry struct {
		from, to entities.Manufacturer
		cost     decimal.Decimal
	}

	var entries []entry
	var manufacturers []entities.Manufacturer
	seen := map[entities.Manufacturer]struct{}{}
	for rows.Next() {
		var e entry
		var from, to string
		if err := rows.Scan(&from, &to, &e.cost); err != nil {
			return nil, fmt.Errorf("load distances: scan rows: %w", err)
		}
		e.from, e.to = entities.Manufacturer(from), entities.Manufacturer(to)
		for _, m := range []entities.Manufacturer{e.from, e.to} {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				manufacturers = append(manufacturers, m)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load distances: row iteration: %w", err)
	}

	matrix, err := entities.NewDistanceMatrix(manufacturers)
	if err != nil {
		return nil, fmt.Errorf("load distances: %w", err)
	}
	for _, e := range entries {
		if err := matrix.Set(e.from, e.to, e.cost); err != nil {
			return nil, fmt.Errorf("load distances: %w", err)
		}
	}

	return matrix, nil
}

// LoadCapacities reads supply_capacities; an empty table is not an error
func (l *Loader) LoadCapacities(ctx context.Context) ([]*entities.SupplyCapacity, error) {
	if l.DB == nil {
		return nil, errors.New("load capacities: db is nil")
	}

	rows, err := l.DB.QueryContext(ctx, `
	SELECT part_number, manufacturer, max_percent
	FROM supply_capacities
	ORDER BY part_number, manufacturer;
	`)
	if err != nil {
		return nil, fmt.Errorf("load capacities: query supply_capacities table: %w", err)
	}
	defer rows.Close()

	var out []*entities.SupplyCapacity
	for rows.Next() {
		var part, manufacturer string
		var maxPercent int
		if err := rows.Scan(&part, &manufacturer, &maxPercent); err != nil {
			return nil, fmt.Errorf("load capacities: scan rows: %w", err)
		}
		c, err := entities.NewSupplyCapacity(entities.PartNumber(part), entities.Manufacturer(manufacturer), entities.Percent(maxPercent))
		if err != nil {
			return nil, fmt.Errorf("load capacities: part %q: %w", part, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load capacities: row iteration: %w", err)
	}

	return out, nil
}
