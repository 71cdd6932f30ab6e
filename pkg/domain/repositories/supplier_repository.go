package repositories

import "github.com/vsinha/transportopt/pkg/domain/entities"

// SupplierRepository provides access to supplier eligibility data
type SupplierRepository interface {
	// GetManufacturers returns the manufacturers eligible to supply a part in
	// load order, without duplicates. A part with no rows yields an empty slice.
	GetManufacturers(partNumber entities.PartNumber) ([]entities.Manufacturer, error)
	GetAllEligibilities() ([]*entities.SupplierEligibility, error)
	LoadEligibilities(rows []*entities.SupplierEligibility) error
}
