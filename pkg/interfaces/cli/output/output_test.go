package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/application/dto"
	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/solver"
)

func samplePlan() *dto.AllocationPlan {
	return &dto.AllocationPlan{
		Status:    solver.Optimal,
		Backend:   "branchbound",
		Objective: decimal.NewFromInt(201),
		Allocations: []entities.Allocation{
			{AllocationKey: entities.AllocationKey{Part: "A", Source: "M2", Destination: "M3"}, Percent: 100},
		},
		Parts: []entities.PartNumber{"A"},
		Stats: dto.ModelStats{Parts: 1, Triples: 2, Variables: 4, Constraints: 5, SkippedRoots: []entities.PartNumber{"ROOT"}},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(samplePlan(), Config{Format: "text", Stdout: &buf}); err != nil {
		t.Fatalf("Failed to generate text output: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Status: optimal",
		"Objective Value: 201",
		"A M2 -> M3 100% allocation",
		"Skipped Roots: [ROOT]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerate_TextNoSolution(t *testing.T) {
	plan := &dto.AllocationPlan{Status: solver.Infeasible, Backend: "branchbound"}

	var buf bytes.Buffer
	if err := Generate(plan, Config{Stdout: &buf}); err != nil {
		t.Fatalf("Failed to generate text output: %v", err)
	}
	if !strings.Contains(buf.String(), "No allocation found") {
		t.Errorf("Expected no-allocation notice, got:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Objective Value") {
		t.Error("Infeasible plan should not report an objective")
	}
}

func TestGenerate_TextSolvedWithoutAllocations(t *testing.T) {
	// every part was a skipped root, so the model is empty but solved
	plan := &dto.AllocationPlan{
		Status:    solver.Optimal,
		Backend:   "branchbound",
		Objective: decimal.Zero,
		Stats:     dto.ModelStats{SkippedRoots: []entities.PartNumber{"ROOT"}},
	}

	var buf bytes.Buffer
	if err := Generate(plan, Config{Stdout: &buf}); err != nil {
		t.Fatalf("Failed to generate text output: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Status: optimal", "Objective Value: 0", "No allocation found"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(samplePlan(), Config{Format: "json", Stdout: &buf}); err != nil {
		t.Fatalf("Failed to generate JSON output: %v", err)
	}

	var decoded jsonPlan
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON output: %v", err)
	}
	if decoded.Status != "optimal" || decoded.Objective == nil || *decoded.Objective != "201" {
		t.Errorf("Unexpected header fields: %+v", decoded)
	}
	if len(decoded.Allocations) != 1 || decoded.Allocations[0].Percent != 100 {
		t.Errorf("Unexpected allocations: %+v", decoded.Allocations)
	}
}

func TestGenerate_CSVToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "plan.csv")
	if err := Generate(samplePlan(), Config{Format: "csv", Output: path}); err != nil {
		t.Fatalf("Failed to generate CSV output: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read CSV output: %v", err)
	}
	expected := "part_number,source,destination,percent\nA,M2,M3,100\n"
	if string(data) != expected {
		t.Errorf("Expected %q, got %q", expected, string(data))
	}
}

func TestGenerate_UnknownFormat(t *testing.T) {
	err := Generate(samplePlan(), Config{Format: "html"})
	if err == nil || err.Error() != "unsupported output format: html" {
		t.Errorf("Expected unsupported format error, got %v", err)
	}
}
