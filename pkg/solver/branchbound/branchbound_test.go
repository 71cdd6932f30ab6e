package branchbound

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/transportopt/pkg/solver"
)

// knapsack: values 10, 13, 7; weights 3, 4, 2; capacity 6. Optimum picks the
// second and third items for 20.
func knapsack() (*solver.Model, []solver.Var) {
	m := solver.NewModel()
	values := []float64{10, 13, 7}
	weights := []float64{3, 4, 2}

	items := make([]solver.Var, len(values))
	capacity := m.NewConstraint("capacity", solver.LessThanOrEqual, 6)
	for i := range values {
		items[i] = m.NewBool("item")
		capacity.NewTerm(weights[i], items[i])
		m.Objective().NewTerm(values[i], items[i])
	}
	m.Objective().SetMaximize()
	return m, items
}

func TestSolver_Knapsack(t *testing.T) {
	m, items := knapsack()

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)

	assert.InDelta(t, 20.0, sol.Objective, 1e-9)
	assert.Equal(t, 0.0, sol.Value(items[0]))
	assert.Equal(t, 1.0, sol.Value(items[1]))
	assert.Equal(t, 1.0, sol.Value(items[2]))
	assert.Greater(t, sol.Nodes, 1)
}

func TestSolver_IntegerMinimization(t *testing.T) {
	// min 5a + 2b + ya + yb with a + b = 100, linking a,b to their indicators
	m := solver.NewModel()
	a := m.NewInt(0, 100, "a")
	b := m.NewInt(0, 100, "b")
	ya := m.NewBool("ya")
	yb := m.NewBool("yb")

	cover := m.NewConstraint("cover", solver.Equal, 100)
	cover.NewTerm(1, a)
	cover.NewTerm(1, b)
	for _, pair := range [][2]solver.Var{{a, ya}, {b, yb}} {
		lo := m.NewConstraint("lo", solver.GreaterThanOrEqual, 0)
		lo.NewTerm(1, pair[0])
		lo.NewTerm(-1, pair[1])
		hi := m.NewConstraint("hi", solver.LessThanOrEqual, 0)
		hi.NewTerm(1, pair[0])
		hi.NewTerm(-101, pair[1])
	}
	m.Objective().NewTerm(5, a)
	m.Objective().NewTerm(2, b)
	m.Objective().NewTerm(1, ya)
	m.Objective().NewTerm(1, yb)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)

	assert.InDelta(t, 201.0, sol.Objective, 1e-9)
	assert.Equal(t, 0.0, sol.Value(a))
	assert.Equal(t, 100.0, sol.Value(b))
	assert.Equal(t, 0.0, sol.Value(ya))
	assert.Equal(t, 1.0, sol.Value(yb))
}

func TestSolver_Infeasible(t *testing.T) {
	m := solver.NewModel()
	x := m.NewBool("x")
	y := m.NewBool("y")
	c := m.NewConstraint("too_much", solver.Equal, 3)
	c.NewTerm(1, x)
	c.NewTerm(1, y)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, sol.Status)
	assert.False(t, sol.HasValues())
}

func TestSolver_IntegerInfeasibleRelaxationFeasible(t *testing.T) {
	// 2x = 1 has the relaxed solution x = 0.5 but no integer one
	m := solver.NewModel()
	x := m.NewInt(0, 5, "x")
	m.NewConstraint("half", solver.Equal, 1).NewTerm(2, x)
	m.Objective().NewTerm(1, x)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, sol.Status)
}

func TestSolver_Unbounded(t *testing.T) {
	m := solver.NewModel()
	x := m.NewFloat(0, math.Inf(1), "x")
	m.NewConstraint("floor", solver.GreaterThanOrEqual, 1).NewTerm(1, x)
	m.Objective().NewTerm(1, x)
	m.Objective().SetMaximize()

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Unbounded, sol.Status)
}

func TestSolver_NodeLimit(t *testing.T) {
	m, _ := knapsack()

	sol, err := New(WithMaxNodes(1)).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.NotSolved, sol.Status)
	assert.Equal(t, 1, sol.Nodes)
}

func TestSolver_Cancelled(t *testing.T) {
	m, _ := knapsack()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Solve(ctx, m, solver.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSolver_RejectsFreeVariable(t *testing.T) {
	m := solver.NewModel()
	m.NewFloat(math.Inf(-1), 1, "free")

	_, err := New().Solve(context.Background(), m, solver.Options{})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestSolver_RejectsNegativeGap(t *testing.T) {
	m, _ := knapsack()

	_, err := New().Solve(context.Background(), m, solver.Options{MIPGapRelative: -0.1})
	assert.Error(t, err)
}

func TestSolver_EmptyModel(t *testing.T) {
	sol, err := New().Solve(context.Background(), solver.NewModel(), solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, sol.Status)
	assert.Equal(t, 0.0, sol.Objective)
}

func TestSolver_Deterministic(t *testing.T) {
	first, err := New().Solve(context.Background(), mustKnapsack(), solver.Options{})
	require.NoError(t, err)
	second, err := New().Solve(context.Background(), mustKnapsack(), solver.Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Objective, second.Objective)
	assert.Equal(t, first.Values, second.Values)
	assert.Equal(t, first.Nodes, second.Nodes)
}

func mustKnapsack() *solver.Model {
	m, _ := knapsack()
	return m
}

func TestWorthExploring(t *testing.T) {
	tests := []struct {
		name  string
		bound float64
		best  float64
		gap   float64
		want  bool
	}{
		{"no_incumbent", 500, math.Inf(1), 0, true},
		{"better_bound", 200, 201, 0, true},
		{"equal_bound", 201, 201, 0, false},
		{"worse_bound", 300, 201, 0, false},
		{"within_gap", 195, 200, 0.05, false},
		{"outside_gap", 150, 200, 0.05, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, worthExploring(tt.bound, tt.best, tt.gap))
		})
	}
}

// pickTwo needs two of three binary items (2 units each, demand 3) at costs
// 1.0, 1.1 and 1.15. The optimum takes the first two items for 2.1.
func pickTwo() *solver.Model {
	m := solver.NewModel()
	demand := m.NewConstraint("demand", solver.GreaterThanOrEqual, 3)
	for _, c := range []float64{1.0, 1.1, 1.15} {
		v := m.NewBool("item")
		demand.NewTerm(2, v)
		m.Objective().NewTerm(c, v)
	}
	return m
}

func TestSolver_MIPGap(t *testing.T) {
	tests := []struct {
		name   string
		gap    float64
		status solver.Status
	}{
		{"exact", 0, solver.Optimal},
		{"relative_gap", 0.5, solver.Feasible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := New().Solve(context.Background(), pickTwo(), solver.Options{MIPGapRelative: tt.gap})
			require.NoError(t, err)
			assert.Equal(t, tt.status, sol.Status)
			assert.InDelta(t, 2.1, sol.Objective, 1e-9)
		})
	}
}

func TestRelax_RespectsContext(t *testing.T) {
	m, _ := knapsack()
	p, err := compile(m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.relax(ctx, []float64{0, 0, 0}, []float64{1, 1, 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRelax_MatchesGonumSimplex(t *testing.T) {
	// min -3x - 5y with x <= 4, 2y <= 12, 3x + 2y <= 18 and x + y = 7.5
	m := solver.NewModel()
	x := m.NewFloat(0, math.Inf(1), "x")
	y := m.NewFloat(0, math.Inf(1), "y")
	m.NewConstraint("x_cap", solver.LessThanOrEqual, 4).NewTerm(1, x)
	m.NewConstraint("y_cap", solver.LessThanOrEqual, 12).NewTerm(2, y)
	mix := m.NewConstraint("mix", solver.LessThanOrEqual, 18)
	mix.NewTerm(3, x)
	mix.NewTerm(2, y)
	total := m.NewConstraint("total", solver.Equal, 7.5)
	total.NewTerm(1, x)
	total.NewTerm(1, y)
	m.Objective().NewTerm(-3, x)
	m.Objective().NewTerm(-5, y)

	p, err := compile(m)
	require.NoError(t, err)

	want, _, err := lp.Simplex(p.std.cost, p.std.a, p.std.b, 1e-10, nil)
	require.NoError(t, err)

	inf := math.Inf(1)
	rel, err := p.relax(context.Background(), []float64{0, 0}, []float64{inf, inf})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, rel.status)
	assert.InDelta(t, want, rel.obj, 1e-7)
	assert.InDelta(t, -34.5, rel.obj, 1e-7)
	assert.InDelta(t, 1.5, rel.x[0], 1e-7)
	assert.InDelta(t, 6.0, rel.x[1], 1e-7)
}

func TestRelax_DegenerateTransshipment(t *testing.T) {
	// Two parts, each split over four lanes with linking rows; half the
	// lanes cost nothing, so most pivots are degenerate.
	m := solver.NewModel()
	costs := [][]float64{{0, 0, 3, 3}, {2, 0, 0, 2}}
	for _, row := range costs {
		cover := m.NewConstraint("cover", solver.Equal, 100)
		for _, c := range row {
			a := m.NewInt(0, 100, "x")
			ind := m.NewBool("y")
			cover.NewTerm(1, a)
			lo := m.NewConstraint("lo", solver.GreaterThanOrEqual, 0)
			lo.NewTerm(1, a)
			lo.NewTerm(-1, ind)
			hi := m.NewConstraint("hi", solver.LessThanOrEqual, 0)
			hi.NewTerm(1, a)
			hi.NewTerm(-101, ind)
			m.Objective().NewTerm(c, a)
			m.Objective().NewTerm(1, ind)
		}
	}

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.InDelta(t, 2.0, sol.Objective, 1e-9)
	assert.LessOrEqual(t, sol.Nodes, 20)
}

func TestProblem_Bound(t *testing.T) {
	tests := []struct {
		name  string
		model func() *solver.Model
		obj   float64
		want  float64
	}{
		{"integral_costs_round_up", func() *solver.Model { m, _ := knapsack(); return m }, -20.25, -20},
		{"integral_within_tolerance", func() *solver.Model { m, _ := knapsack(); return m }, 3.0000000001, 3},
		{"fractional_costs_kept", pickTwo, 1.55, 1.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := compile(tt.model())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p.bound(tt.obj), 1e-12)
		})
	}
}
