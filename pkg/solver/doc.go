// Package solver describes the capability an optimization backend must offer
// to the allocation model: integer, binary and continuous variables with
// bounds, linear constraints, a linear objective, and a solve call that
// reports a status, an objective value and variable values.
//
// Variables live in an arena owned by Model and are addressed by Var
// handles. Callers keep their own side tables from domain keys to handles;
// names are for display and backend diagnostics only.
//
// Backends:
//
//   - branchbound: in-process branch and bound over gonum LP relaxations,
//     suited to small and medium models and to tests
//   - nextmv: HiGHS through the nextmv sdk mip package
package solver
