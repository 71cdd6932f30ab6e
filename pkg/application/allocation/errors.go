package allocation

import (
	"errors"
	"fmt"

	"github.com/vsinha/transportopt/pkg/domain/entities"
)

// ErrNoSolution is returned by Solve when the backend produced no assignment.
// The returned plan still carries the terminal status.
var ErrNoSolution = errors.New("allocation: no solution")

// ErrAlreadyBuilt is returned when Build is called twice on one builder
var ErrAlreadyBuilt = errors.New("allocation: model already built")

// ErrNotBuilt is returned when solving or inspecting before Build
var ErrNotBuilt = errors.New("allocation: model not built")

// LookupError reports input data the model cannot resolve: a part without a
// BOM row, or a lane without a distance entry.
type LookupError struct {
	Part        entities.PartNumber
	Source      entities.Manufacturer
	Destination entities.Manufacturer
	Err         error
}

func (e *LookupError) Error() string {
	if e.Source != "" || e.Destination != "" {
		return fmt.Sprintf("lookup distance for part %s from %s to %s: %v", e.Part, e.Source, e.Destination, e.Err)
	}
	return fmt.Sprintf("lookup parent of part %s: %v", e.Part, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// InfeasibleIndexError reports a part with no valid (source, destination)
// pair, whose coverage constraint could never be met.
type InfeasibleIndexError struct {
	Part         entities.PartNumber
	Parent       entities.PartNumber
	Sources      int
	Destinations int
}

func (e *InfeasibleIndexError) Error() string {
	parent := string(e.Parent)
	if parent == "" {
		parent = "<root>"
	}
	return fmt.Sprintf("part %s has no valid lanes: %d eligible sources, %d eligible destinations (parent %s)",
		e.Part, e.Sources, e.Destinations, parent)
}
