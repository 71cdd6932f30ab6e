// Package config resolves run settings from flags, TRANSPORTOPT_* environment
// variables, an optional .env file and an optional transportopt.yaml, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the config reads
const EnvPrefix = "TRANSPORTOPT"

// Solver backends
const (
	SolverBranchBound = "branchbound"
	SolverHiGHS       = "highs"
)

// Config holds the resolved settings of one run
type Config struct {
	MinSupply        int
	MIPGap           float64
	RootDestinations []string
	Parts            []string
	Solver           string
	MaxNodes         int

	Scenario       string
	BOMFile        string
	SuppliersFile  string
	DistancesFile  string
	CapacitiesFile string
	DatabaseURL    string

	Format  string
	Output  string
	Verbose int
	LogFmt  string
}

type setting struct {
	key   string
	flag  string
	usage string
	def   interface{}
}

var settings = []setting{
	{"min_supply", "min-supply", "Minimum percent on every lane (0 disables)", 0},
	{"mip_gap", "mip-gap", "Relative MIP gap at which the solver may stop", 0.0},
	{"root_destinations", "root-destinations", "Final-assembly sites root parts ship to (comma separated)", []string{}},
	{"parts", "parts", "Parts to allocate (comma separated, default all BOM parts)", []string{}},
	{"solver", "solver", "Solver backend: branchbound or highs", SolverBranchBound},
	{"max_nodes", "max-nodes", "Node limit for the branchbound solver (0 for none)", 0},
	{"scenario", "scenario", "Directory holding bom.csv, suppliers.csv, distances.csv and optional capacities.csv", ""},
	{"bom", "bom", "BOM CSV file (overrides scenario)", ""},
	{"suppliers", "suppliers", "Supplier eligibility CSV file (overrides scenario)", ""},
	{"distances", "distances", "Distance matrix CSV file (overrides scenario)", ""},
	{"capacities", "capacities", "Supply capacity CSV file (overrides scenario)", ""},
	{"database_url", "database-url", "PostgreSQL URL to load tables from instead of CSV", ""},
	{"format", "format", "Output format: text, json, or csv", "text"},
	{"output", "output", "Output file (default stdout)", ""},
	{"verbose", "verbose", "Log verbosity (0 info, 1 debug, 2 trace)", 0},
	{"log_format", "log-format", "Log format: console, json, or plain", "console"},
}

// RegisterFlags declares every setting on fs, plus --config and --env-file
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default ./transportopt.yaml when present)")
	fs.String("env-file", ".env", "Dotenv file loaded before reading the environment")

	for _, s := range settings {
		switch def := s.def.(type) {
		case int:
			if s.key == "verbose" {
				fs.IntP(s.flag, "v", def, s.usage)
				continue
			}
			fs.Int(s.flag, def, s.usage)
		case float64:
			fs.Float64(s.flag, def, s.usage)
		case []string:
			fs.StringSlice(s.flag, def, s.usage)
		case string:
			fs.String(s.flag, def, s.usage)
		}
	}
}

// Load resolves the settings for a parsed flag set
func Load(flags *pflag.FlagSet) (*Config, error) {
	envFile, _ := flags.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config: read %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("load config: bind env: %w", err)
	}

	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if f := flags.Lookup(s.flag); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, fmt.Errorf("load config: bind flag %s: %w", s.flag, err)
			}
		}
	}

	configFile, _ := flags.GetString("config")
	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		MinSupply:        v.GetInt("min_supply"),
		MIPGap:           v.GetFloat64("mip_gap"),
		RootDestinations: splitList(v.GetStringSlice("root_destinations")),
		Parts:            splitList(v.GetStringSlice("parts")),
		Solver:           strings.ToLower(v.GetString("solver")),
		MaxNodes:         v.GetInt("max_nodes"),
		Scenario:         v.GetString("scenario"),
		BOMFile:          v.GetString("bom"),
		SuppliersFile:    v.GetString("suppliers"),
		DistancesFile:    v.GetString("distances"),
		CapacitiesFile:   v.GetString("capacities"),
		DatabaseURL:      v.GetString("database_url"),
		Format:           strings.ToLower(v.GetString("format")),
		Output:           v.GetString("output"),
		Verbose:          v.GetInt("verbose"),
		LogFmt:           strings.ToLower(v.GetString("log_format")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("load config: read %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("transportopt")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// splitList accepts both repeated values and comma-separated env strings
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks value ranges and that some input source is configured
func (c *Config) Validate() error {
	var errs []error

	if c.MinSupply < 0 || c.MinSupply > 100 {
		errs = append(errs, fmt.Errorf("min_supply must be between 0 and 100, got %d", c.MinSupply))
	}
	if c.MIPGap < 0 {
		errs = append(errs, fmt.Errorf("mip_gap cannot be negative, got %g", c.MIPGap))
	}
	if c.MaxNodes < 0 {
		errs = append(errs, fmt.Errorf("max_nodes cannot be negative, got %d", c.MaxNodes))
	}
	switch c.Solver {
	case SolverBranchBound, SolverHiGHS:
	default:
		errs = append(errs, fmt.Errorf("unknown solver %q (expected %s or %s)", c.Solver, SolverBranchBound, SolverHiGHS))
	}
	switch c.Format {
	case "text", "json", "csv":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q (expected text, json, or csv)", c.Format))
	}
	if c.Verbose < 0 {
		errs = append(errs, fmt.Errorf("verbose cannot be negative, got %d", c.Verbose))
	}

	if c.DatabaseURL == "" && c.Scenario == "" && (c.BOMFile == "" || c.SuppliersFile == "" || c.DistancesFile == "") {
		errs = append(errs, errors.New("no input: set scenario, database_url, or all of bom, suppliers and distances"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
