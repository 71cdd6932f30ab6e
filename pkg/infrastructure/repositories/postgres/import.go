package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/infrastructure/logging"
)

// Import replaces the contents of the input tables with a scenario in one
// transaction
func Import(ctx context.Context, db *sql.DB, s *entities.Scenario) (err error) {
	defer logging.Time(ctx, "postgres.Import")(&err)

	if db == nil {
		return errors.New("import scenario: DB is nil")
	}
	if s == nil || s.Distances == nil {
		return errors.New("import scenario: scenario needs a distance matrix")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import scenario: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"bom_lines", "supplier_eligibility", "distances", "supply_capacities"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+";"); err != nil {
			return fmt.Errorf("import scenario: clear %s: %w", table, err)
		}
	}

	if err := insertAll(ctx, tx, `INSERT INTO bom_lines (part_number, parent_pn) VALUES ($1, $2);`,
		len(s.BOM), func(i int) []any {
			return []any{string(s.BOM[i].PartNumber), string(s.BOM[i].ParentPN)}
		}); err != nil {
		return fmt.Errorf("import scenario: bom_lines: %w", err)
	}

	if err := insertAll(ctx, tx, `
	INSERT INTO supplier_eligibility (part_number, manufacturer) VALUES ($1, $2)
	ON CONFLICT (part_number, manufacturer) DO NOTHING;
	`, len(s.Suppliers), func(i int) []any {
		return []any{string(s.Suppliers[i].PartNumber), string(s.Suppliers[i].Manufacturer)}
	}); err != nil {
		return fmt.Errorf("import scenario: supplier_eligibility: %w", err)
	}

	type pair struct{ from, to entities.Manufacturer }
	var pairs []pair
	for _, from := range s.Distances.Manufacturers() {
		for _, to := range s.Distances.Manufacturers() {
			if _, ok := s.Distances.Cost(from, to); ok {
				pairs = append(pairs, pair{from, to})
			}
		}
	}
	if err := insertAll(ctx, tx, `INSERT INTO distances (source, destination, cost) VALUES ($1, $2, $3);`,
		len(pairs), func(i int) []any {
			cost, _ := s.Distances.Cost(pairs[i].from, pairs[i].to)
			return []any{string(pairs[i].from), string(pairs[i].to), cost.String()}
		}); err != nil {
		return fmt.Errorf("import scenario: distances: %w", err)
	}

	if err := insertAll(ctx, tx, `
	INSERT INTO supply_capacities (part_number, manufacturer, max_percent) VALUES ($1, $2, $3)
	ON CONFLICT (part_number, manufacturer) DO UPDATE
	SET max_percent = LEAST(supply_capacities.max_percent, EXCLUDED.max_percent);
	`, len(s.Capacities), func(i int) []any {
		c := s.Capacities[i]
		return []any{string(c.PartNumber), string(c.Manufacturer), int(c.MaxPercent)}
	}); err != nil {
		return fmt.Errorf("import scenario: supply_capacities: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import scenario: commit tx: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	return nil
}
