package solver

import (
	"fmt"
	"math"
)

// VarKind is the domain of a decision variable
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// String method for VarKind enum
func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// IsIntegral reports whether the kind only admits whole values
func (k VarKind) IsIntegral() bool {
	return k == Integer || k == Binary
}

// Var is a handle into a Model's variable arena
type Var int

// VarInfo describes one variable in the arena
type VarInfo struct {
	Kind  VarKind
	Lower float64
	Upper float64
	Name  string
}

// Sense is the relation between a constraint's terms and its right-hand side
type Sense int

const (
	LessThanOrEqual Sense = iota
	Equal
	GreaterThanOrEqual
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case GreaterThanOrEqual:
		return ">="
	default:
		return "?"
	}
}

// Term is a coefficient applied to a variable
type Term struct {
	Coefficient float64
	Var         Var
}

// Constraint is a linear relation over model variables
type Constraint struct {
	Name  string
	Sense Sense
	RHS   float64
	Terms []Term
}

// NewTerm appends coefficient*v to the constraint
func (c *Constraint) NewTerm(coefficient float64, v Var) Term {
	term := Term{Coefficient: coefficient, Var: v}
	c.Terms = append(c.Terms, term)
	return term
}

// Satisfied reports whether values meet the constraint within tol
func (c *Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := 0.0
	for _, t := range c.Terms {
		lhs += t.Coefficient * values[t.Var]
	}
	switch c.Sense {
	case LessThanOrEqual:
		return lhs <= c.RHS+tol
	case GreaterThanOrEqual:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Objective is the linear function a backend optimizes
type Objective struct {
	maximize bool
	terms    []Term
}

// SetMinimize makes the backend minimize the objective (the default)
func (o *Objective) SetMinimize() { o.maximize = false }

// SetMaximize makes the backend maximize the objective
func (o *Objective) SetMaximize() { o.maximize = true }

// IsMaximize reports the optimization direction
func (o *Objective) IsMaximize() bool { return o.maximize }

// NewTerm appends coefficient*v to the objective
func (o *Objective) NewTerm(coefficient float64, v Var) Term {
	term := Term{Coefficient: coefficient, Var: v}
	o.terms = append(o.terms, term)
	return term
}

// Terms returns the objective terms
func (o *Objective) Terms() []Term { return o.terms }

// Model is an arena of variables plus the constraints and objective over them
type Model struct {
	vars        []VarInfo
	constraints []*Constraint
	objective   Objective
}

// NewModel creates an empty minimization model
func NewModel() *Model {
	return &Model{}
}

func (m *Model) newVar(info VarInfo) Var {
	m.vars = append(m.vars, info)
	return Var(len(m.vars) - 1)
}

// NewInt declares an integer variable in [lower, upper]
func (m *Model) NewInt(lower, upper int64, name string) Var {
	return m.newVar(VarInfo{Kind: Integer, Lower: float64(lower), Upper: float64(upper), Name: name})
}

// NewBool declares a binary variable
func (m *Model) NewBool(name string) Var {
	return m.newVar(VarInfo{Kind: Binary, Lower: 0, Upper: 1, Name: name})
}

// NewFloat declares a continuous variable in [lower, upper]. upper may be +Inf.
func (m *Model) NewFloat(lower, upper float64, name string) Var {
	return m.newVar(VarInfo{Kind: Continuous, Lower: lower, Upper: upper, Name: name})
}

// NewConstraint adds an empty constraint; terms are attached with NewTerm
func (m *Model) NewConstraint(name string, sense Sense, rhs float64) *Constraint {
	c := &Constraint{Name: name, Sense: sense, RHS: rhs}
	m.constraints = append(m.constraints, c)
	return c
}

// Objective returns the model objective for modification
func (m *Model) Objective() *Objective {
	return &m.objective
}

// NumVars returns the arena size
func (m *Model) NumVars() int {
	return len(m.vars)
}

// Var returns the description of a variable
func (m *Model) Var(v Var) VarInfo {
	return m.vars[v]
}

// Vars returns the arena in handle order. The slice must not be modified.
func (m *Model) Vars() []VarInfo {
	return m.vars
}

// Constraints returns the constraints in insertion order
func (m *Model) Constraints() []*Constraint {
	return m.constraints
}

// Evaluate computes the objective at the given point
func (m *Model) Evaluate(values []float64) float64 {
	total := 0.0
	for _, t := range m.objective.terms {
		total += t.Coefficient * values[t.Var]
	}
	return total
}

// Validate checks that every term references a declared variable and that
// bounds are consistent.
func (m *Model) Validate() error {
	n := Var(len(m.vars))
	for i, info := range m.vars {
		if math.IsNaN(info.Lower) || math.IsNaN(info.Upper) {
			return fmt.Errorf("variable %d (%s): bound is NaN", i, info.Name)
		}
		if info.Lower > info.Upper {
			return fmt.Errorf("variable %d (%s): lower bound %g exceeds upper bound %g", i, info.Name, info.Lower, info.Upper)
		}
	}
	for _, c := range m.constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= n {
				return fmt.Errorf("constraint %s: unknown variable %d", c.Name, t.Var)
			}
		}
	}
	for _, t := range m.objective.terms {
		if t.Var < 0 || t.Var >= n {
			return fmt.Errorf("objective: unknown variable %d", t.Var)
		}
	}
	return nil
}
