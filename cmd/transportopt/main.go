package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/vsinha/transportopt/pkg/infrastructure/config"
	"github.com/vsinha/transportopt/pkg/infrastructure/logging"
	"github.com/vsinha/transportopt/pkg/interfaces/cli/commands"
)

const usage = `transportopt - supply allocation across a BOM's manufacturer network

USAGE:
    transportopt [allocate] --scenario <directory> [options]
    transportopt import --scenario <directory> --database-url <url>

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── bom.csv          # part_number,parent_pn
    ├── suppliers.csv    # part_number,manufacturer
    ├── distances.csv    # square matrix, header row of manufacturers
    └── capacities.csv   # optional: part_number,manufacturer,max_percent

Settings also come from TRANSPORTOPT_* environment variables, a .env file
and transportopt.yaml.

OPTIONS:
`

func main() {
	args := os.Args[1:]
	command := "allocate"
	if len(args) > 0 && (args[0] == "allocate" || args[0] == "import") {
		command, args = args[0], args[1:]
	}

	flags := pflag.NewFlagSet("transportopt", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(logging.Format(cfg.LogFmt), cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "import":
		err = commands.NewImportCommand(cfg, log).Execute(ctx)
	default:
		err = commands.NewAllocateCommand(cfg, log, os.Stdout).Execute(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
