package repositories

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/domain/entities"
)

// DistanceRepository provides access to manufacturer-to-manufacturer costs
type DistanceRepository interface {
	// GetCost wraps ErrNotFound when the pair has no entry.
	GetCost(from, to entities.Manufacturer) (decimal.Decimal, error)
	LoadMatrix(matrix *entities.DistanceMatrix) error
}
