package memory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/domain/repositories"
)

// DistanceRepository serves costs from a loaded DistanceMatrix
type DistanceRepository struct {
	matrix *entities.DistanceMatrix
}

// NewDistanceRepository creates an empty distance repository
func NewDistanceRepository() *DistanceRepository {
	return &DistanceRepository{}
}

// Verify interface compliance
var _ repositories.DistanceRepository = (*DistanceRepository)(nil)

// LoadMatrix replaces the stored matrix
func (r *DistanceRepository) LoadMatrix(matrix *entities.DistanceMatrix) error {
	if matrix == nil {
		return fmt.Errorf("distance matrix cannot be nil")
	}
	r.matrix = matrix
	return nil
}

// GetCost returns the cost of shipping from one manufacturer to another
func (r *DistanceRepository) GetCost(from, to entities.Manufacturer) (decimal.Decimal, error) {
	if r.matrix == nil {
		return decimal.Zero, fmt.Errorf("distance %s -> %s: no matrix loaded: %w", from, to, repositories.ErrNotFound)
	}
	cost, ok := r.matrix.Cost(from, to)
	if !ok {
		return decimal.Zero, fmt.Errorf("distance %s -> %s: %w", from, to, repositories.ErrNotFound)
	}
	return cost, nil
}
