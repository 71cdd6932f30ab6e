package branchbound

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/vsinha/transportopt/pkg/solver"
)

const (
	pivotTol = 1e-9
	costTol  = 1e-9

	// blandAfter is the run of degenerate pivots after which pricing
	// switches to Bland's rule until the objective moves again.
	blandAfter = 50
	// ctxEvery is how many pivots pass between context checks.
	ctxEvery = 16
)

// ErrIterationLimit is returned when one relaxation exceeds its pivot budget
var ErrIterationLimit = errors.New("simplex iteration limit reached")

// row is a model constraint with duplicate terms merged and zeros dropped
type row struct {
	cols  []int
	coefs []float64
	sense solver.Sense
	rhs   float64
}

// standardForm is A x = b over the model variables followed by one slack
// column per inequality. Slacks live in [0, +Inf). It is built once per solve
// and shared by every node; nodes only change variable bounds.
type standardForm struct {
	a     *mat.Dense
	b     []float64
	cost  []float64
	slack []int // slack column of each row, -1 for equalities
	cols  int
}

// problem is a model compiled once per solve. Costs are always in
// minimization form.
type problem struct {
	n        int
	rows     []row
	cost     []float64
	integral []bool

	// integralCost is set when every objective term is an integer
	// coefficient on an integral variable, so node bounds round up.
	integralCost bool
	// infeasible is set when a constraint without terms cannot hold.
	infeasible bool

	std  *standardForm
	work []float64
}

func compile(m *solver.Model) (*problem, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedModel, err)
	}

	n := m.NumVars()
	p := &problem{
		n:        n,
		cost:     make([]float64, n),
		integral: make([]bool, n),
	}

	for j, info := range m.Vars() {
		if math.IsInf(info.Lower, -1) {
			return nil, fmt.Errorf("%w: variable %q has no finite lower bound", ErrUnsupportedModel, info.Name)
		}
		p.integral[j] = info.Kind.IsIntegral()
	}

	sign := 1.0
	if m.Objective().IsMaximize() {
		sign = -1
	}
	for _, t := range m.Objective().Terms() {
		p.cost[t.Var] += sign * t.Coefficient
	}

	p.integralCost = true
	for j, c := range p.cost {
		if c == 0 {
			continue
		}
		if !p.integral[j] || math.Abs(c-math.Round(c)) > 1e-9 {
			p.integralCost = false
			break
		}
	}

	for _, c := range m.Constraints() {
		merged := make(map[int]float64, len(c.Terms))
		order := make([]int, 0, len(c.Terms))
		for _, t := range c.Terms {
			j := int(t.Var)
			if _, seen := merged[j]; !seen {
				order = append(order, j)
			}
			merged[j] += t.Coefficient
		}

		r := row{sense: c.Sense, rhs: c.RHS}
		for _, j := range order {
			if merged[j] == 0 {
				continue
			}
			r.cols = append(r.cols, j)
			r.coefs = append(r.coefs, merged[j])
		}
		if len(r.cols) == 0 {
			if !holds(r.sense, 0, r.rhs) {
				p.infeasible = true
			}
			continue
		}
		p.rows = append(p.rows, r)
	}

	p.std = p.standardize()
	return p, nil
}

func (p *problem) standardize() *standardForm {
	std := &standardForm{
		b:     make([]float64, len(p.rows)),
		slack: make([]int, len(p.rows)),
		cols:  p.n,
	}
	for i, r := range p.rows {
		std.b[i] = r.rhs
		std.slack[i] = -1
		if r.sense != solver.Equal {
			std.slack[i] = std.cols
			std.cols++
		}
	}

	std.cost = make([]float64, std.cols)
	copy(std.cost, p.cost)

	if len(p.rows) == 0 {
		return std
	}
	std.a = mat.NewDense(len(p.rows), std.cols, nil)
	for i, r := range p.rows {
		for k, j := range r.cols {
			std.a.Set(i, j, r.coefs[k])
		}
		switch r.sense {
		case solver.LessThanOrEqual:
			std.a.Set(i, std.slack[i], 1)
		case solver.GreaterThanOrEqual:
			std.a.Set(i, std.slack[i], -1)
		}
	}
	return std
}

func holds(sense solver.Sense, lhs, rhs float64) bool {
	switch sense {
	case solver.LessThanOrEqual:
		return lhs <= rhs+feasibilityTol
	case solver.GreaterThanOrEqual:
		return lhs >= rhs-feasibilityTol
	default:
		return math.Abs(lhs-rhs) <= feasibilityTol
	}
}

// relaxation is the LP optimum of one node
type relaxation struct {
	status solver.Status
	x      []float64
	obj    float64
}

// relax solves the LP relaxation under the given bounds
func (p *problem) relax(ctx context.Context, lower, upper []float64) (relaxation, error) {
	if p.infeasible {
		return relaxation{status: solver.Infeasible}, nil
	}
	for j := 0; j < p.n; j++ {
		if lower[j] > upper[j]+feasibilityTol {
			return relaxation{status: solver.Infeasible}, nil
		}
	}

	if len(p.rows) == 0 {
		return p.relaxUnconstrained(lower, upper), nil
	}

	tb := p.newTableau(lower, upper)

	if tb.artificials > 0 {
		phaseOne := make([]float64, tb.total)
		for j := tb.cols; j < tb.total; j++ {
			phaseOne[j] = 1
		}
		tb.priceObjective(phaseOne)

		status, err := tb.run(ctx)
		if err != nil {
			return relaxation{}, err
		}
		if status == solver.Unbounded {
			return relaxation{}, fmt.Errorf("lp relaxation: phase one reported unbounded")
		}

		residual := 0.0
		for j := tb.cols; j < tb.total; j++ {
			residual += tb.x[j]
		}
		if residual > feasibilityTol*math.Max(1, floats.Norm(p.std.b, math.Inf(1))) {
			return relaxation{status: solver.Infeasible}, nil
		}

		// Artificials are pinned at zero for phase two.
		for j := tb.cols; j < tb.total; j++ {
			tb.hi[j] = 0
			if tb.pos[j] < 0 {
				tb.x[j] = 0
			}
		}
	}

	tb.priceObjective(p.std.cost)
	status, err := tb.run(ctx)
	if err != nil {
		return relaxation{}, err
	}
	if status == solver.Unbounded {
		return relaxation{status: solver.Unbounded}, nil
	}

	x := make([]float64, p.n)
	for j := 0; j < p.n; j++ {
		x[j] = math.Min(math.Max(tb.x[j], lower[j]), upper[j])
	}
	return relaxation{status: solver.Optimal, x: x, obj: p.objective(x)}, nil
}

// relaxUnconstrained puts every variable at its cheaper bound
func (p *problem) relaxUnconstrained(lower, upper []float64) relaxation {
	x := make([]float64, p.n)
	for j := 0; j < p.n; j++ {
		x[j] = lower[j]
		if p.cost[j] < 0 {
			if math.IsInf(upper[j], 1) {
				return relaxation{status: solver.Unbounded}
			}
			x[j] = upper[j]
		}
	}
	return relaxation{status: solver.Optimal, x: x, obj: p.objective(x)}
}

// tableau is a dense bounded-variable simplex tableau. Columns are the
// standard-form columns followed by one artificial per row that has no
// feasible starting slack.
type tableau struct {
	t     *mat.Dense
	m     int
	cols  int
	total int

	artificials int
	basis       []int
	pos         []int // row of a basic column, -1 when nonbasic

	lo, hi, x []float64
	d         []float64 // reduced costs
}

// newTableau starts every column at its lower bound and picks a slack or an
// artificial as the basic variable of each row
func (p *problem) newTableau(lower, upper []float64) *tableau {
	std := p.std
	m := len(p.rows)

	residual := make([]float64, m)
	copy(residual, std.b)
	for i, r := range p.rows {
		for k, j := range r.cols {
			residual[i] -= r.coefs[k] * lower[j]
		}
	}

	// A row can start on its slack when the slack absorbs the residual
	// without going negative.
	useSlack := make([]bool, m)
	artificials := 0
	for i := range p.rows {
		if s := std.slack[i]; s >= 0 && residual[i]*std.a.At(i, s) >= 0 {
			useSlack[i] = true
			continue
		}
		artificials++
	}

	total := std.cols + artificials
	if need := m * total; cap(p.work) < need {
		p.work = make([]float64, need)
	} else {
		p.work = p.work[:need]
		for k := range p.work {
			p.work[k] = 0
		}
	}

	tb := &tableau{
		t:           mat.NewDense(m, total, p.work),
		m:           m,
		cols:        std.cols,
		total:       total,
		artificials: artificials,
		basis:       make([]int, m),
		pos:         make([]int, total),
		lo:          make([]float64, total),
		hi:          make([]float64, total),
		x:           make([]float64, total),
		d:           make([]float64, total),
	}
	for j := range tb.pos {
		tb.pos[j] = -1
	}
	for j := 0; j < p.n; j++ {
		tb.lo[j], tb.hi[j] = lower[j], upper[j]
		tb.x[j] = lower[j]
	}
	for j := p.n; j < total; j++ {
		tb.hi[j] = math.Inf(1)
	}

	next := std.cols
	for i := 0; i < m; i++ {
		dst := tb.t.RawRowView(i)
		copy(dst[:std.cols], std.a.RawRowView(i))

		var basic int
		var scale float64
		if useSlack[i] {
			basic = std.slack[i]
			scale = std.a.At(i, basic)
		} else {
			basic = next
			next++
			scale = 1
			if residual[i] < 0 {
				scale = -1
			}
			dst[basic] = scale
		}
		// Normalize the row so the basic column has coefficient one.
		if scale != 1 {
			floats.Scale(1/scale, dst)
		}
		tb.basis[i] = basic
		tb.pos[basic] = i
		tb.x[basic] = residual[i] / scale
	}
	return tb
}

// priceObjective sets the reduced costs for cost over the current basis
func (tb *tableau) priceObjective(cost []float64) {
	for j := range tb.d {
		tb.d[j] = 0
	}
	copy(tb.d, cost)
	for i, j := range tb.basis {
		if j < len(cost) && cost[j] != 0 {
			floats.AddScaled(tb.d, -cost[j], tb.t.RawRowView(i))
		}
	}
	for _, j := range tb.basis {
		tb.d[j] = 0
	}
}

// run pivots until no improving column remains
func (tb *tableau) run(ctx context.Context) (solver.Status, error) {
	maxIter := 50*(tb.m+tb.total) + 1000
	degenerate := 0

	for iter := 0; ; iter++ {
		if iter >= maxIter {
			return solver.NotSolved, ErrIterationLimit
		}
		if iter%ctxEvery == 0 {
			if err := ctx.Err(); err != nil {
				return solver.NotSolved, err
			}
		}

		bland := degenerate >= blandAfter
		q, dir := tb.entering(bland)
		if q < 0 {
			return solver.Optimal, nil
		}

		step, leave := tb.ratio(q, dir, bland)
		if math.IsInf(step, 1) {
			return solver.Unbounded, nil
		}

		if step > feasibilityTol {
			degenerate = 0
		} else {
			degenerate++
		}

		for i, j := range tb.basis {
			if a := tb.t.At(i, q); a != 0 {
				tb.x[j] -= dir * a * step
			}
		}

		if leave < 0 {
			// Bound flip of the entering column.
			if dir > 0 {
				tb.x[q] = tb.hi[q]
			} else {
				tb.x[q] = tb.lo[q]
			}
			continue
		}

		tb.x[q] += dir * step
		out := tb.basis[leave]
		if dir*tb.t.At(leave, q) > 0 {
			tb.x[out] = tb.lo[out]
		} else {
			tb.x[out] = tb.hi[out]
		}
		tb.pivot(leave, q)
	}
}

// entering picks an improving nonbasic column. Dantzig pricing takes the
// largest reduced cost; Bland's rule takes the lowest index.
func (tb *tableau) entering(bland bool) (int, float64) {
	best, dir, score := -1, 0.0, 0.0
	for j := 0; j < tb.total; j++ {
		if tb.pos[j] >= 0 || tb.hi[j] <= tb.lo[j] {
			continue
		}
		dj := tb.d[j]
		var s, dj2 float64
		switch {
		case tb.x[j] == tb.lo[j] && dj < -costTol:
			s, dj2 = -dj, 1
		case tb.x[j] == tb.hi[j] && dj > costTol:
			s, dj2 = dj, -1
		default:
			continue
		}
		if bland {
			return j, dj2
		}
		if s > score {
			best, dir, score = j, dj2, s
		}
	}
	return best, dir
}

// ratio finds how far the entering column can move and which row blocks
// it. leave is -1 when the entering column reaches its own opposite bound.
func (tb *tableau) ratio(q int, dir float64, bland bool) (float64, int) {
	step := tb.hi[q] - tb.lo[q]
	leave := -1
	pivot := 0.0

	for i, j := range tb.basis {
		alpha := dir * tb.t.At(i, q)
		var limit float64
		switch {
		case alpha > pivotTol:
			limit = (tb.x[j] - tb.lo[j]) / alpha
		case alpha < -pivotTol && !math.IsInf(tb.hi[j], 1):
			limit = (tb.hi[j] - tb.x[j]) / -alpha
		default:
			continue
		}
		if limit < 0 {
			limit = 0
		}

		switch {
		case limit < step-feasibilityTol:
		case limit <= step+feasibilityTol && leave >= 0:
			if bland {
				if j > tb.basis[leave] {
					continue
				}
			} else if math.Abs(alpha) <= pivot {
				continue
			}
		default:
			continue
		}
		step, leave, pivot = limit, i, math.Abs(alpha)
	}
	return step, leave
}

// pivot makes column q basic in row r
func (tb *tableau) pivot(r, q int) {
	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[q], pr)
	pr[q] = 1

	for i := 0; i < tb.m; i++ {
		if i == r {
			continue
		}
		ri := tb.t.RawRowView(i)
		if f := ri[q]; f != 0 {
			floats.AddScaled(ri, -f, pr)
			ri[q] = 0
		}
	}
	if f := tb.d[q]; f != 0 {
		floats.AddScaled(tb.d, -f, pr)
		tb.d[q] = 0
	}

	out := tb.basis[r]
	tb.pos[out] = -1
	if out >= tb.cols {
		// An artificial that leaves never returns.
		tb.hi[out] = 0
	}
	tb.basis[r] = q
	tb.pos[q] = r
}

func (p *problem) objective(x []float64) float64 {
	total := 0.0
	for j, c := range p.cost {
		total += c * x[j]
	}
	return total
}

// bound is the best objective any integral point under a relaxation can reach
func (p *problem) bound(obj float64) float64 {
	if p.integralCost {
		return math.Ceil(obj - integralityTol)
	}
	return obj
}

// feasible reports whether x satisfies every row
func (p *problem) feasible(x []float64) bool {
	for _, r := range p.rows {
		lhs := 0.0
		for k, j := range r.cols {
			lhs += r.coefs[k] * x[j]
		}
		if !holds(r.sense, lhs, r.rhs) {
			return false
		}
	}
	return true
}

// branchVar picks the integral variable whose value is furthest from a whole
// number, lowest index first on ties. It returns -1 when x is integral.
func (p *problem) branchVar(x []float64) int {
	best := -1
	bestDist := integralityTol
	for j, integral := range p.integral {
		if !integral {
			continue
		}
		f := x[j] - math.Floor(x[j])
		dist := math.Min(f, 1-f)
		if dist > bestDist+1e-12 {
			best = j
			bestDist = dist
		}
	}
	return best
}

// round snaps integral variables to the nearest whole value
func (p *problem) round(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if p.integral[j] {
			out[j] = math.Round(v)
		} else {
			out[j] = v
		}
	}
	return out
}
