package entities

import "fmt"

// PartNumber represents a unique part identifier
type PartNumber string

// Manufacturer identifies a manufacturing site that can supply parts
type Manufacturer string

// Percent is an integral share of a part's demand, 0 through 100
type Percent int

// FullAllocation is the share every allocated part must reach
const FullAllocation Percent = 100

// Validate checks that the percentage lies in [0, 100]
func (p Percent) Validate() error {
	if p < 0 || p > FullAllocation {
		return fmt.Errorf("percent must be between 0 and 100, got %d", p)
	}
	return nil
}
