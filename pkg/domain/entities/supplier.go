package entities

import "fmt"

// SupplierEligibility states that a manufacturer can supply a part
type SupplierEligibility struct {
	PartNumber   PartNumber
	Manufacturer Manufacturer
}

// NewSupplierEligibility creates a validated SupplierEligibility
func NewSupplierEligibility(partNumber PartNumber, manufacturer Manufacturer) (*SupplierEligibility, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if string(manufacturer) == "" {
		return nil, fmt.Errorf("manufacturer cannot be empty")
	}

	return &SupplierEligibility{
		PartNumber:   partNumber,
		Manufacturer: manufacturer,
	}, nil
}

// SupplyCapacity bounds the share of a part's demand a manufacturer can ship
type SupplyCapacity struct {
	PartNumber   PartNumber
	Manufacturer Manufacturer
	MaxPercent   Percent
}

// NewSupplyCapacity creates a validated SupplyCapacity
func NewSupplyCapacity(partNumber PartNumber, manufacturer Manufacturer, maxPercent Percent) (*SupplyCapacity, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if string(manufacturer) == "" {
		return nil, fmt.Errorf("manufacturer cannot be empty")
	}
	if err := maxPercent.Validate(); err != nil {
		return nil, fmt.Errorf("max percent: %w", err)
	}

	return &SupplyCapacity{
		PartNumber:   partNumber,
		Manufacturer: manufacturer,
		MaxPercent:   maxPercent,
	}, nil
}
