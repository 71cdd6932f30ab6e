package entities

import "fmt"

// AllocationKey identifies one shipping lane for a part: the part, the
// manufacturer supplying it and the manufacturer building its parent.
type AllocationKey struct {
	Part        PartNumber
	Source      Manufacturer
	Destination Manufacturer
}

func (k AllocationKey) String() string {
	return fmt.Sprintf("%s,%s,%s", k.Part, k.Source, k.Destination)
}

// Allocation is the share of a part's demand routed along one lane
type Allocation struct {
	AllocationKey
	Percent Percent
}
