package commands

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/vsinha/transportopt/pkg/infrastructure/config"
	"github.com/vsinha/transportopt/pkg/infrastructure/logging"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/postgres"
)

// ImportCommand copies a CSV scenario into the PostgreSQL input tables
type ImportCommand struct {
	config *config.Config
	log    logr.Logger
}

// NewImportCommand creates a new import command
func NewImportCommand(cfg *config.Config, log logr.Logger) *ImportCommand {
	return &ImportCommand{config: cfg, log: log}
}

// Execute runs the import command
func (c *ImportCommand) Execute(ctx context.Context) (err error) {
	ctx = logging.NewContext(ctx, c.log)
	defer logging.Time(ctx, "import")(&err)

	if c.config.DatabaseURL == "" {
		return fmt.Errorf("import requires database_url (or DATABASE_URL)")
	}

	files, err := resolveInputFiles(c.config)
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}
	scenario, err := csv.NewLoader().LoadScenario(files)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	db, err := postgres.Open(ctx, c.config.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	c.log.Info("initializing database schema")
	if err := postgres.InitSchema(ctx, db); err != nil {
		return err
	}

	c.log.Info("importing scenario", "bomLines", len(scenario.BOM), "eligibility", len(scenario.Suppliers))
	return postgres.Import(ctx, db, scenario)
}
