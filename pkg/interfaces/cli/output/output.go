package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/vsinha/transportopt/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format string
	// Output is a file path; empty writes to Stdout
	Output     string
	Stdout     io.Writer
	InputFiles map[string]string
}

// Generate writes the plan in the specified format
func Generate(plan *dto.AllocationPlan, config Config) (err error) {
	var render func(*dto.AllocationPlan, Config, io.Writer) error
	switch config.Format {
	case "text", "":
		render = generateTextOutput
	case "json":
		render = generateJSONOutput
	case "csv":
		render = generateCSVOutput
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}

	w := config.Stdout
	if w == nil {
		w = os.Stdout
	}
	if config.Output != "" {
		if dir := filepath.Dir(config.Output); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		file, err := os.Create(config.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		w = file
	}

	return render(plan, config, w)
}

// generateTextOutput creates human-readable text output
func generateTextOutput(plan *dto.AllocationPlan, config Config, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("📊 Allocation Results Summary\n")
	ew.printf("=============================\n\n")

	if len(config.InputFiles) > 0 {
		names := make([]string, 0, len(config.InputFiles))
		for name := range config.InputFiles {
			names = append(names, name)
		}
		sort.Strings(names)
		ew.printf("Input files:\n")
		for _, name := range names {
			ew.printf("  %s: %s\n", name, config.InputFiles[name])
		}
		ew.printf("\n")
	}

	ew.printf("Status: %s\n", plan.Status)
	ew.printf("Solver: %s\n", plan.Backend)
	ew.printf("Parts: %d\n", plan.Stats.Parts)
	ew.printf("Lanes: %d\n", plan.Stats.Triples)
	ew.printf("Variables: %d\n", plan.Stats.Variables)
	ew.printf("Constraints: %d\n", plan.Stats.Constraints)
	ew.printf("Solve Time: %v\n", plan.SolveTime.Round(time.Microsecond))
	if len(plan.Stats.SkippedRoots) > 0 {
		ew.printf("Skipped Roots: %v\n", plan.Stats.SkippedRoots)
	}
	ew.printf("\n")

	if plan.Solved() {
		ew.printf("Objective Value: %s\n\n", plan.Objective.String())
	}
	if len(plan.Allocations) == 0 {
		ew.printf("⚠️  No allocation found\n")
		return ew.err
	}

	ew.printf("📦 Allocations:\n")
	for _, a := range plan.Allocations {
		ew.printf("%s %s -> %s %d%% allocation\n", a.Part, a.Source, a.Destination, int(a.Percent))
	}

	return ew.err
}

type jsonAllocation struct {
	Part        string `json:"part_number"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Percent     int    `json:"percent"`
}

type jsonPlan struct {
	Status       string           `json:"status"`
	Solver       string           `json:"solver"`
	Objective    *string          `json:"objective,omitempty"`
	Allocations  []jsonAllocation `json:"allocations"`
	Parts        int              `json:"parts"`
	Lanes        int              `json:"lanes"`
	Variables    int              `json:"variables"`
	Constraints  int              `json:"constraints"`
	SkippedRoots []string         `json:"skipped_roots,omitempty"`
	SolveTimeMS  int64            `json:"solve_time_ms"`
}

// generateJSONOutput creates JSON output
func generateJSONOutput(plan *dto.AllocationPlan, config Config, w io.Writer) error {
	out := jsonPlan{
		Status:      plan.Status.String(),
		Solver:      plan.Backend,
		Allocations: make([]jsonAllocation, 0, len(plan.Allocations)),
		Parts:       plan.Stats.Parts,
		Lanes:       plan.Stats.Triples,
		Variables:   plan.Stats.Variables,
		Constraints: plan.Stats.Constraints,
		SolveTimeMS: plan.SolveTime.Milliseconds(),
	}
	if plan.Solved() {
		objective := plan.Objective.String()
		out.Objective = &objective
	}
	for _, a := range plan.Allocations {
		out.Allocations = append(out.Allocations, jsonAllocation{
			Part:        string(a.Part),
			Source:      string(a.Source),
			Destination: string(a.Destination),
			Percent:     int(a.Percent),
		})
	}
	for _, root := range plan.Stats.SkippedRoots {
		out.SkippedRoots = append(out.SkippedRoots, string(root))
	}

	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// generateCSVOutput writes one row per nonzero allocation
func generateCSVOutput(plan *dto.AllocationPlan, config Config, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"part_number", "source", "destination", "percent"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, a := range plan.Allocations {
		record := []string{string(a.Part), string(a.Source), string(a.Destination), strconv.Itoa(int(a.Percent))}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
