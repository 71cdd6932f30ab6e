package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/vsinha/transportopt/pkg/application/allocation"
	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/domain/services"
	"github.com/vsinha/transportopt/pkg/infrastructure/config"
	"github.com/vsinha/transportopt/pkg/infrastructure/logging"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/transportopt/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/transportopt/pkg/interfaces/cli/output"
	"github.com/vsinha/transportopt/pkg/solver"
	"github.com/vsinha/transportopt/pkg/solver/branchbound"
	"github.com/vsinha/transportopt/pkg/solver/nextmv"
)

// AllocateCommand loads a scenario, builds and solves the allocation model
// and writes the report
type AllocateCommand struct {
	config *config.Config
	log    logr.Logger
	stdout io.Writer
}

// NewAllocateCommand creates a new allocate command with the given configuration
func NewAllocateCommand(cfg *config.Config, log logr.Logger, stdout io.Writer) *AllocateCommand {
	return &AllocateCommand{
		config: cfg,
		log:    log,
		stdout: stdout,
	}
}

// Execute runs the allocate command
func (c *AllocateCommand) Execute(ctx context.Context) (err error) {
	ctx = logging.NewContext(ctx, c.log)
	defer logging.Time(ctx, "allocate")(&err)

	scenario, inputs, err := loadScenario(ctx, c.config)
	if err != nil {
		return err
	}
	c.log.Info("scenario loaded",
		"bomLines", len(scenario.BOM),
		"eligibility", len(scenario.Suppliers),
		"manufacturers", scenario.Distances.Size(),
		"capacities", len(scenario.Capacities))

	if err := c.validate(scenario); err != nil {
		return err
	}

	// Create repositories
	bomRepo := memory.NewBOMRepository(len(scenario.BOM))
	if err := bomRepo.LoadBOMLines(scenario.BOM); err != nil {
		return fmt.Errorf("failed to load BOM lines into repository: %w", err)
	}
	supplierRepo := memory.NewSupplierRepository(len(scenario.Suppliers))
	if err := supplierRepo.LoadEligibilities(scenario.Suppliers); err != nil {
		return fmt.Errorf("failed to load eligibility into repository: %w", err)
	}
	distanceRepo := memory.NewDistanceRepository()
	if err := distanceRepo.LoadMatrix(scenario.Distances); err != nil {
		return fmt.Errorf("failed to load distances into repository: %w", err)
	}

	builder := allocation.NewBuilder(bomRepo, supplierRepo, distanceRepo, c.options(scenario), c.log)
	if err := c.build(ctx, builder); err != nil {
		return err
	}

	backend, err := NewBackend(c.config, c.log)
	if err != nil {
		return err
	}

	plan, err := builder.Solve(ctx, backend, solver.Options{
		MIPGapRelative: c.config.MIPGap,
		Verbose:        c.config.Verbose >= logging.DEBUG,
	})
	if err != nil && plan == nil {
		return fmt.Errorf("error solving allocation model: %w", err)
	}
	solveErr := err

	if solveErr == nil {
		if err := builder.Verify(builder.Solution()); err != nil {
			c.log.Info("WARNING: solution failed verification", "error", err.Error())
		}
	}

	if err := output.Generate(plan, output.Config{
		Format:     c.config.Format,
		Output:     c.config.Output,
		Stdout:     c.stdout,
		InputFiles: inputs,
	}); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	return solveErr
}

func (c *AllocateCommand) build(ctx context.Context, builder *allocation.Builder) (err error) {
	defer logging.Time(ctx, "allocation.build")(&err)

	if err := builder.Build(); err != nil {
		return fmt.Errorf("error building allocation model: %w", err)
	}
	stats := builder.Stats()
	c.log.Info("model built",
		"parts", stats.Parts,
		"lanes", stats.Triples,
		"variables", stats.Variables,
		"constraints", stats.Constraints)
	return nil
}

// validate rejects BOMs with cycles or duplicate parts and logs data warnings
func (c *AllocateCommand) validate(scenario *entities.Scenario) error {
	validator := services.NewBOMValidator()

	bomSlice := make([]entities.BOMLine, len(scenario.BOM))
	for i, line := range scenario.BOM {
		bomSlice[i] = *line
	}
	eligibility := make([]entities.SupplierEligibility, len(scenario.Suppliers))
	for i, row := range scenario.Suppliers {
		eligibility[i] = *row
	}

	bomValidation := validator.ValidateBOM(bomSlice)
	if !bomValidation.Valid() {
		return fmt.Errorf("BOM validation failed: %s", strings.Join(bomValidation.Errors, "; "))
	}
	for _, w := range bomValidation.Warnings {
		c.log.Info("WARNING: " + w)
	}

	for _, w := range validator.ValidateEligibility(bomSlice, eligibility).Warnings {
		c.log.Info("WARNING: " + w)
	}
	return nil
}

func (c *AllocateCommand) options(scenario *entities.Scenario) allocation.Options {
	opts := allocation.Options{
		MinSupply: entities.Percent(c.config.MinSupply),
	}
	for _, m := range c.config.RootDestinations {
		opts.RootDestinations = append(opts.RootDestinations, entities.Manufacturer(m))
	}
	for _, p := range c.config.Parts {
		opts.Parts = append(opts.Parts, entities.PartNumber(p))
	}
	for _, capacity := range scenario.Capacities {
		opts.Capacities = append(opts.Capacities, *capacity)
	}
	return opts
}

// NewBackend creates the solver backend named in the configuration
func NewBackend(cfg *config.Config, log logr.Logger) (solver.Backend, error) {
	switch cfg.Solver {
	case config.SolverBranchBound, "":
		return branchbound.New(
			branchbound.WithLogger(log.WithName("branchbound")),
			branchbound.WithMaxNodes(cfg.MaxNodes),
		), nil
	case config.SolverHiGHS:
		return nextmv.New(log.WithName("highs")), nil
	default:
		return nil, fmt.Errorf("unknown solver: %s", cfg.Solver)
	}
}

// loadScenario reads the input tables from PostgreSQL when a database URL is
// configured, and from CSV files otherwise
func loadScenario(ctx context.Context, cfg *config.Config) (*entities.Scenario, map[string]string, error) {
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()

		scenario, err := postgres.NewLoader(db).LoadScenario(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("error loading scenario from database: %w", err)
		}
		return scenario, map[string]string{"Database": "postgres"}, nil
	}

	files, err := resolveInputFiles(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve input files: %w", err)
	}

	scenario, err := csv.NewLoader().LoadScenario(files)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading scenario: %w", err)
	}

	inputs := map[string]string{
		"BOM":       files.BOM,
		"Suppliers": files.Suppliers,
		"Distances": files.Distances,
	}
	if files.Capacities != "" {
		inputs["Capacities"] = files.Capacities
	}
	return scenario, inputs, nil
}

// resolveInputFiles determines the actual file paths to use. Explicit files
// override the scenario directory; capacities.csv is picked up only when
// present.
func resolveInputFiles(cfg *config.Config) (csv.Files, error) {
	var files csv.Files
	var capacitiesOptional bool

	if cfg.Scenario != "" {
		files = csv.Files{
			BOM:        filepath.Join(cfg.Scenario, "bom.csv"),
			Suppliers:  filepath.Join(cfg.Scenario, "suppliers.csv"),
			Distances:  filepath.Join(cfg.Scenario, "distances.csv"),
			Capacities: filepath.Join(cfg.Scenario, "capacities.csv"),
		}
		capacitiesOptional = true
	}
	if cfg.BOMFile != "" {
		files.BOM = cfg.BOMFile
	}
	if cfg.SuppliersFile != "" {
		files.Suppliers = cfg.SuppliersFile
	}
	if cfg.DistancesFile != "" {
		files.Distances = cfg.DistancesFile
	}
	if cfg.CapacitiesFile != "" {
		files.Capacities = cfg.CapacitiesFile
		capacitiesOptional = false
	}

	if capacitiesOptional && !fileExists(files.Capacities) {
		files.Capacities = ""
	}

	// Validate files exist
	for name, path := range map[string]string{
		"BOM":        files.BOM,
		"Suppliers":  files.Suppliers,
		"Distances":  files.Distances,
		"Capacities": files.Capacities,
	} {
		if name == "Capacities" && path == "" {
			continue
		}
		if !fileExists(path) {
			return csv.Files{}, fmt.Errorf("%s file not found: %s", name, path)
		}
	}

	return files, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
