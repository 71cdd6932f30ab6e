package nextmv

import (
	"math"
	"testing"

	"github.com/nextmv-io/sdk/mip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/transportopt/pkg/solver"
)

type fakeOutcome struct {
	values, optimal, infeasible, unbounded bool
}

func (f fakeOutcome) HasValues() bool    { return f.values }
func (f fakeOutcome) IsOptimal() bool    { return f.optimal }
func (f fakeOutcome) IsInfeasible() bool { return f.infeasible }
func (f fakeOutcome) IsUnbounded() bool  { return f.unbounded }

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		result fakeOutcome
		want   solver.Status
	}{
		{"optimal", fakeOutcome{values: true, optimal: true}, solver.Optimal},
		{"suboptimal", fakeOutcome{values: true}, solver.Feasible},
		{"infeasible", fakeOutcome{infeasible: true}, solver.Infeasible},
		{"unbounded", fakeOutcome{unbounded: true}, solver.Unbounded},
		{"nothing", fakeOutcome{}, solver.NotSolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.result))
		})
	}
}

func TestIntBound(t *testing.T) {
	assert.Equal(t, int64(100), intBound(100))
	assert.Equal(t, int64(0), intBound(0))
	assert.Equal(t, int64(math.MaxInt64), intBound(math.Inf(1)))
	assert.Equal(t, int64(math.MinInt64), intBound(math.Inf(-1)))
}

func coefficients(terms []mip.Term) map[int]float64 {
	out := make(map[int]float64, len(terms))
	for _, t := range terms {
		out[t.Var().Index()] += t.Coefficient()
	}
	return out
}

func TestTranslate(t *testing.T) {
	m := solver.NewModel()
	x := m.NewInt(0, 100, "x")
	y := m.NewBool("y")
	f := m.NewFloat(0.5, math.Inf(1), "f")

	m.NewConstraint("cover", solver.Equal, 100).NewTerm(1, x)
	link := m.NewConstraint("link", solver.LessThanOrEqual, 0)
	link.NewTerm(1, x)
	link.NewTerm(-101, y)
	floor := m.NewConstraint("floor", solver.GreaterThanOrEqual, 1.5)
	floor.NewTerm(1, f)
	floor.NewTerm(1, y)

	m.Objective().NewTerm(3, x)
	m.Objective().NewTerm(1, y)
	m.Objective().NewTerm(0.25, f)
	m.Objective().SetMaximize()

	model, vars := translate(m)

	require.Len(t, vars, 3)
	require.Len(t, model.Vars(), 3)
	for i, v := range vars {
		assert.Equal(t, model.Vars()[i].Index(), v.Index(), "handle %d", i)
	}

	assert.True(t, vars[x].IsInt())
	assert.Equal(t, 0.0, vars[x].LowerBound())
	assert.Equal(t, 100.0, vars[x].UpperBound())
	assert.True(t, vars[y].IsBool())
	assert.True(t, vars[f].IsFloat())
	assert.Equal(t, 0.5, vars[f].LowerBound())
	assert.True(t, math.IsInf(vars[f].UpperBound(), 1))

	constraints := model.Constraints()
	require.Len(t, constraints, 3)

	wantSense := []mip.Sense{mip.Equal, mip.LessThanOrEqual, mip.GreaterThanOrEqual}
	wantRHS := []float64{100, 0, 1.5}
	wantTerms := []map[int]float64{
		{vars[x].Index(): 1},
		{vars[x].Index(): 1, vars[y].Index(): -101},
		{vars[f].Index(): 1, vars[y].Index(): 1},
	}
	for i, c := range constraints {
		assert.Equal(t, wantSense[i], c.Sense(), "constraint %d", i)
		assert.Equal(t, wantRHS[i], c.RightHandSide(), "constraint %d", i)
		assert.Equal(t, wantTerms[i], coefficients(c.Terms()), "constraint %d", i)
	}

	assert.True(t, model.Objective().IsMaximize())
	assert.Equal(t, map[int]float64{
		vars[x].Index(): 3,
		vars[y].Index(): 1,
		vars[f].Index(): 0.25,
	}, coefficients(model.Objective().Terms()))
}

func TestTranslate_Minimize(t *testing.T) {
	m := solver.NewModel()
	x := m.NewInt(2, 7, "x")
	m.Objective().NewTerm(4, x)

	model, vars := translate(m)

	assert.False(t, model.Objective().IsMaximize())
	assert.Equal(t, 2.0, vars[x].LowerBound())
	assert.Equal(t, 7.0, vars[x].UpperBound())
	assert.Empty(t, model.Constraints())
}

func TestSenseOf(t *testing.T) {
	assert.Equal(t, mip.LessThanOrEqual, senseOf(solver.LessThanOrEqual))
	assert.Equal(t, mip.Equal, senseOf(solver.Equal))
	assert.Equal(t, mip.GreaterThanOrEqual, senseOf(solver.GreaterThanOrEqual))
}
