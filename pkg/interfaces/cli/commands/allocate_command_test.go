package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/transportopt/pkg/application/allocation"
	"github.com/vsinha/transportopt/pkg/infrastructure/config"
	"github.com/vsinha/transportopt/pkg/solver/branchbound"
	"github.com/vsinha/transportopt/pkg/solver/nextmv"
)

func writeScenario(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func basicScenario() map[string]string {
	return map[string]string{
		"bom.csv":       "part_number,parent_pn\nROOT,\nA,ROOT\n",
		"suppliers.csv": "part_number,manufacturer\nROOT,M3\nA,M1\nA,M2\n",
		"distances.csv": "from,M1,M2,M3\nM1,0,4,5\nM2,4,0,2\nM3,5,2,0\n",
	}
}

func baseConfig(scenario string) *config.Config {
	return &config.Config{
		Scenario: scenario,
		Solver:   config.SolverBranchBound,
		Format:   "text",
	}
}

func TestAllocateCommand_Text(t *testing.T) {
	var stdout bytes.Buffer
	cfg := baseConfig(writeScenario(t, basicScenario()))

	err := NewAllocateCommand(cfg, logr.Discard(), &stdout).Execute(context.Background())
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Objective Value: 201")
	assert.Contains(t, out, "A M2 -> M3 100% allocation")
	assert.NotContains(t, out, "M1 -> M3")
}

func TestAllocateCommand_CapacitiesPickedUp(t *testing.T) {
	files := basicScenario()
	files["capacities.csv"] = "part_number,manufacturer,max_percent\nA,M2,60\n"

	var stdout bytes.Buffer
	cfg := baseConfig(writeScenario(t, files))
	cfg.Format = "csv"

	require.NoError(t, NewAllocateCommand(cfg, logr.Discard(), &stdout).Execute(context.Background()))
	assert.Equal(t, "part_number,source,destination,percent\nA,M1,M3,40\nA,M2,M3,60\n", stdout.String())
}

func TestAllocateCommand_NoSolution(t *testing.T) {
	var stdout bytes.Buffer
	cfg := baseConfig(writeScenario(t, basicScenario()))
	cfg.MinSupply = 60

	err := NewAllocateCommand(cfg, logr.Discard(), &stdout).Execute(context.Background())
	assert.ErrorIs(t, err, allocation.ErrNoSolution)
	assert.Contains(t, stdout.String(), "Status: infeasible")
}

func TestAllocateCommand_BuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		check  func(*testing.T, error)
	}{
		{
			name: "missing distance",
			mutate: func(f map[string]string) {
				f["distances.csv"] = "from,M1,M2,M3\nM1,0,4,5\nM2,4,0,\nM3,5,2,0\n"
			},
			check: func(t *testing.T, err error) {
				var lookup *allocation.LookupError
				require.ErrorAs(t, err, &lookup)
				assert.Equal(t, "M2", string(lookup.Source))
			},
		},
		{
			name: "part without suppliers",
			mutate: func(f map[string]string) {
				f["bom.csv"] = "part_number,parent_pn\nROOT,\nA,ROOT\nB,ROOT\n"
			},
			check: func(t *testing.T, err error) {
				var infeasible *allocation.InfeasibleIndexError
				require.ErrorAs(t, err, &infeasible)
				assert.Equal(t, "B", string(infeasible.Part))
			},
		},
		{
			name: "cyclic BOM",
			mutate: func(f map[string]string) {
				f["bom.csv"] = "part_number,parent_pn\nROOT,A\nA,ROOT\n"
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.True(t, strings.HasPrefix(err.Error(), "BOM validation failed: BOM cycle detected"), err.Error())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := basicScenario()
			tt.mutate(files)

			var stdout bytes.Buffer
			err := NewAllocateCommand(baseConfig(writeScenario(t, files)), logr.Discard(), &stdout).Execute(context.Background())
			tt.check(t, err)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestResolveInputFiles(t *testing.T) {
	dir := writeScenario(t, basicScenario())

	files, err := resolveInputFiles(baseConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bom.csv"), files.BOM)
	assert.Empty(t, files.Capacities)

	cfg := baseConfig(dir)
	cfg.CapacitiesFile = filepath.Join(dir, "nope.csv")
	_, err = resolveInputFiles(cfg)
	assert.EqualError(t, err, "Capacities file not found: "+cfg.CapacitiesFile)

	cfg = baseConfig("")
	cfg.BOMFile = filepath.Join(dir, "bom.csv")
	cfg.SuppliersFile = filepath.Join(dir, "suppliers.csv")
	cfg.DistancesFile = filepath.Join(dir, "missing.csv")
	_, err = resolveInputFiles(cfg)
	assert.EqualError(t, err, "Distances file not found: "+cfg.DistancesFile)
}

func TestNewBackend(t *testing.T) {
	cfg := baseConfig("")

	backend, err := NewBackend(cfg, logr.Discard())
	require.NoError(t, err)
	assert.IsType(t, &branchbound.Solver{}, backend)

	cfg.Solver = config.SolverHiGHS
	backend, err = NewBackend(cfg, logr.Discard())
	require.NoError(t, err)
	assert.IsType(t, &nextmv.Solver{}, backend)

	cfg.Solver = "cplex"
	_, err = NewBackend(cfg, logr.Discard())
	assert.EqualError(t, err, "unknown solver: cplex")
}

func TestImportCommand_RequiresDatabase(t *testing.T) {
	err := NewImportCommand(baseConfig(writeScenario(t, basicScenario())), logr.Discard()).Execute(context.Background())
	assert.EqualError(t, err, "import requires database_url (or DATABASE_URL)")
}
