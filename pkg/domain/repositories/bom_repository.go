package repositories

import (
	"errors"

	"github.com/vsinha/transportopt/pkg/domain/entities"
)

// ErrNotFound is returned when a lookup has no matching row
var ErrNotFound = errors.New("not found")

// BOMRepository provides access to Bill of Materials data
type BOMRepository interface {
	// GetBOMLine returns the line for a part. It wraps ErrNotFound when the
	// part has no BOM row.
	GetBOMLine(partNumber entities.PartNumber) (*entities.BOMLine, error)
	// GetAllBOMLines returns every line in load order.
	GetAllBOMLines() ([]*entities.BOMLine, error)
	LoadBOMLines(lines []*entities.BOMLine) error
}
