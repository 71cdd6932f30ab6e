package entities

// Scenario bundles the input tables of one allocation run
type Scenario struct {
	BOM        []*BOMLine
	Suppliers  []*SupplierEligibility
	Distances  *DistanceMatrix
	Capacities []*SupplyCapacity
}
