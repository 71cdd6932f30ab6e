package memory

import (
	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/domain/repositories"
)

// SupplierRepository provides in-memory supplier eligibility storage
type SupplierRepository struct {
	rows      []entities.SupplierEligibility
	byPart    map[entities.PartNumber][]entities.Manufacturer
	seenPairs map[entities.SupplierEligibility]struct{}
}

// NewSupplierRepository creates a new in-memory supplier repository
func NewSupplierRepository(expectedRows int) *SupplierRepository {
	return &SupplierRepository{
		rows:      make([]entities.SupplierEligibility, 0, expectedRows),
		byPart:    make(map[entities.PartNumber][]entities.Manufacturer),
		seenPairs: make(map[entities.SupplierEligibility]struct{}, expectedRows),
	}
}

// Verify interface compliance
var _ repositories.SupplierRepository = (*SupplierRepository)(nil)

// LoadEligibilities loads eligibility rows into the repository
func (r *SupplierRepository) LoadEligibilities(rows []*entities.SupplierEligibility) error {
	for _, row := range rows {
		r.AddEligibility(*row)
	}
	return nil
}

// AddEligibility adds one row. Repeated (part, manufacturer) pairs are kept once.
func (r *SupplierRepository) AddEligibility(row entities.SupplierEligibility) {
	if _, seen := r.seenPairs[row]; seen {
		return
	}
	r.seenPairs[row] = struct{}{}
	r.rows = append(r.rows, row)
	r.byPart[row.PartNumber] = append(r.byPart[row.PartNumber], row.Manufacturer)
}

// GetManufacturers returns the eligible manufacturers for a part
func (r *SupplierRepository) GetManufacturers(partNumber entities.PartNumber) ([]entities.Manufacturer, error) {
	manufacturers := r.byPart[partNumber]
	out := make([]entities.Manufacturer, len(manufacturers))
	copy(out, manufacturers)
	return out, nil
}

// GetAllEligibilities returns all eligibility rows
func (r *SupplierRepository) GetAllEligibilities() ([]*entities.SupplierEligibility, error) {
	rows := make([]*entities.SupplierEligibility, 0, len(r.rows))
	for i := range r.rows {
		row := r.rows[i]
		rows = append(rows, &row)
	}
	return rows, nil
}
