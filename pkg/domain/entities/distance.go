package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DistanceMatrix holds the transportation cost between every ordered pair of
// manufacturers. Entries are stored densely in manufacturer order.
type DistanceMatrix struct {
	manufacturers []Manufacturer
	index         map[Manufacturer]int
	costs         []decimal.Decimal
	present       []bool
}

// NewDistanceMatrix creates an empty matrix over the given manufacturer set
func NewDistanceMatrix(manufacturers []Manufacturer) (*DistanceMatrix, error) {
	index := make(map[Manufacturer]int, len(manufacturers))
	for i, m := range manufacturers {
		if string(m) == "" {
			return nil, fmt.Errorf("manufacturer %d cannot be empty", i)
		}
		if _, exists := index[m]; exists {
			return nil, fmt.Errorf("duplicate manufacturer in distance matrix: %s", m)
		}
		index[m] = i
	}

	n := len(manufacturers)
	ordered := make([]Manufacturer, n)
	copy(ordered, manufacturers)

	return &DistanceMatrix{
		manufacturers: ordered,
		index:         index,
		costs:         make([]decimal.Decimal, n*n),
		present:       make([]bool, n*n),
	}, nil
}

// Set records the cost of shipping from one manufacturer to another
func (d *DistanceMatrix) Set(from, to Manufacturer, cost decimal.Decimal) error {
	i, ok := d.index[from]
	if !ok {
		return fmt.Errorf("unknown manufacturer: %s", from)
	}
	j, ok := d.index[to]
	if !ok {
		return fmt.Errorf("unknown manufacturer: %s", to)
	}
	if cost.IsNegative() {
		return fmt.Errorf("distance from %s to %s cannot be negative, got %s", from, to, cost)
	}

	pos := i*len(d.manufacturers) + j
	d.costs[pos] = cost
	d.present[pos] = true
	return nil
}

// Cost returns the recorded cost and whether the pair has an entry
func (d *DistanceMatrix) Cost(from, to Manufacturer) (decimal.Decimal, bool) {
	i, ok := d.index[from]
	if !ok {
		return decimal.Zero, false
	}
	j, ok := d.index[to]
	if !ok {
		return decimal.Zero, false
	}

	pos := i*len(d.manufacturers) + j
	return d.costs[pos], d.present[pos]
}

// Manufacturers returns the manufacturer set in matrix order
func (d *DistanceMatrix) Manufacturers() []Manufacturer {
	out := make([]Manufacturer, len(d.manufacturers))
	copy(out, d.manufacturers)
	return out
}

// Size returns the number of manufacturers
func (d *DistanceMatrix) Size() int {
	return len(d.manufacturers)
}

// Missing lists the ordered pairs that have no entry
func (d *DistanceMatrix) Missing() [][2]Manufacturer {
	var missing [][2]Manufacturer
	n := len(d.manufacturers)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if !d.present[i*n+j] {
				missing = append(missing, [2]Manufacturer{d.manufacturers[i], d.manufacturers[j]})
			}
		}
	}
	return missing
}
