package allocation

import (
	"errors"
	"fmt"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/domain/repositories"
)

// Index is the set of valid lanes, grouped by part in derivation order
type Index struct {
	parts        []entities.PartNumber
	keys         []entities.AllocationKey
	byPart       map[entities.PartNumber][]int
	skippedRoots []entities.PartNumber
}

// Parts returns the allocated parts in derivation order
func (ix *Index) Parts() []entities.PartNumber {
	return ix.parts
}

// Keys returns every lane, grouped by part
func (ix *Index) Keys() []entities.AllocationKey {
	return ix.keys
}

// Lanes returns the lanes of one part
func (ix *Index) Lanes(part entities.PartNumber) []entities.AllocationKey {
	positions := ix.byPart[part]
	lanes := make([]entities.AllocationKey, len(positions))
	for i, pos := range positions {
		lanes[i] = ix.keys[pos]
	}
	return lanes
}

// SkippedRoots returns root assemblies left out because no final-assembly
// destinations were configured
func (ix *Index) SkippedRoots() []entities.PartNumber {
	return ix.skippedRoots
}

// Len returns the number of lanes
func (ix *Index) Len() int {
	return len(ix.keys)
}

// DeriveIndex enumerates Sources(i) x Sources(parent(i)) for every part.
//
// parts selects and orders the parts to allocate; when empty every BOM part
// is used in BOM order. Root parts are allocated into rootDestinations, or
// skipped when rootDestinations is empty.
func DeriveIndex(
	bom repositories.BOMRepository,
	suppliers repositories.SupplierRepository,
	parts []entities.PartNumber,
	rootDestinations []entities.Manufacturer,
) (*Index, error) {
	if len(parts) == 0 {
		lines, err := bom.GetAllBOMLines()
		if err != nil {
			return nil, fmt.Errorf("derive index: read BOM: %w", err)
		}
		parts = make([]entities.PartNumber, 0, len(lines))
		for _, line := range lines {
			parts = append(parts, line.PartNumber)
		}
	}

	roots := uniqueManufacturers(rootDestinations)

	ix := &Index{
		byPart: make(map[entities.PartNumber][]int, len(parts)),
	}
	seen := make(map[entities.PartNumber]bool, len(parts))

	for _, part := range parts {
		if seen[part] {
			continue
		}
		seen[part] = true

		line, err := bom.GetBOMLine(part)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, &LookupError{Part: part, Err: err}
			}
			return nil, fmt.Errorf("derive index: part %s: %w", part, err)
		}

		sources, err := suppliers.GetManufacturers(part)
		if err != nil {
			return nil, fmt.Errorf("derive index: suppliers of %s: %w", part, err)
		}

		var destinations []entities.Manufacturer
		if line.IsRoot() {
			if len(roots) == 0 {
				ix.skippedRoots = append(ix.skippedRoots, part)
				continue
			}
			destinations = roots
		} else {
			destinations, err = suppliers.GetManufacturers(line.ParentPN)
			if err != nil {
				return nil, fmt.Errorf("derive index: suppliers of %s: %w", line.ParentPN, err)
			}
		}

		if len(sources) == 0 || len(destinations) == 0 {
			return nil, &InfeasibleIndexError{
				Part:         part,
				Parent:       line.ParentPN,
				Sources:      len(sources),
				Destinations: len(destinations),
			}
		}

		ix.parts = append(ix.parts, part)
		for _, source := range sources {
			for _, destination := range destinations {
				ix.byPart[part] = append(ix.byPart[part], len(ix.keys))
				ix.keys = append(ix.keys, entities.AllocationKey{
					Part:        part,
					Source:      source,
					Destination: destination,
				})
			}
		}
	}

	return ix, nil
}

func uniqueManufacturers(in []entities.Manufacturer) []entities.Manufacturer {
	seen := make(map[entities.Manufacturer]bool, len(in))
	out := make([]entities.Manufacturer, 0, len(in))
	for _, m := range in {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
