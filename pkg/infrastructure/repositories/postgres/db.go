// Package postgres loads allocation input tables from PostgreSQL through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// registers the "pgx" driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open db: verify postgres connection: %w", err)
	}

	return db, nil
}

// InitSchema creates the input tables when they do not exist
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS bom_lines (
		ordinal BIGSERIAL,
		part_number TEXT PRIMARY KEY,
		parent_pn TEXT NOT NULL DEFAULT ''
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS supplier_eligibility (
		ordinal BIGSERIAL,
		part_number TEXT NOT NULL,
		manufacturer TEXT NOT NULL,
		PRIMARY KEY (part_number, manufacturer)
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS distances (
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		cost NUMERIC NOT NULL CHECK (cost >= 0),
		PRIMARY KEY (source, destination)
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS supply_capacities (
		part_number TEXT NOT NULL,
		manufacturer TEXT NOT NULL,
		max_percent INTEGER NOT NULL CHECK (max_percent BETWEEN 0 AND 100),
		PRIMARY KEY (part_number, manufacturer)
	);
	`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
