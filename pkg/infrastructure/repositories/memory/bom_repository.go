package memory

import (
	"fmt"

	"github.com/vsinha/transportopt/pkg/domain/entities"
	"github.com/vsinha/transportopt/pkg/domain/repositories"
)

// BOMRepository stores BOM lines in load order with a part index
type BOMRepository struct {
	bomLines  []entities.BOMLine
	partIndex map[entities.PartNumber]int
}

// NewBOMRepository creates a BOM repository sized for the expected line count
func NewBOMRepository(expectedBOMLines int) *BOMRepository {
	return &BOMRepository{
		bomLines:  make([]entities.BOMLine, 0, expectedBOMLines),
		partIndex: make(map[entities.PartNumber]int, expectedBOMLines),
	}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// LoadBOMLines loads BOM lines into the repository
func (r *BOMRepository) LoadBOMLines(lines []*entities.BOMLine) error {
	for _, line := range lines {
		if err := r.AddBOMLine(*line); err != nil {
			return err
		}
	}
	return nil
}

// AddBOMLine adds a BOM line. A part may appear only once since its parent
// must be unambiguous.
func (r *BOMRepository) AddBOMLine(line entities.BOMLine) error {
	if existing, exists := r.partIndex[line.PartNumber]; exists {
		return fmt.Errorf("duplicate BOM line for part %s (parent %q already recorded)",
			line.PartNumber, r.bomLines[existing].ParentPN)
	}
	r.partIndex[line.PartNumber] = len(r.bomLines)
	r.bomLines = append(r.bomLines, line)
	return nil
}

// GetBOMLine returns the BOM line for a part number
func (r *BOMRepository) GetBOMLine(partNumber entities.PartNumber) (*entities.BOMLine, error) {
	index, exists := r.partIndex[partNumber]
	if !exists {
		return nil, fmt.Errorf("bom line for part %s: %w", partNumber, repositories.ErrNotFound)
	}
	line := r.bomLines[index]
	return &line, nil
}

// GetAllBOMLines returns all BOM lines
func (r *BOMRepository) GetAllBOMLines() ([]*entities.BOMLine, error) {
	lines := make([]*entities.BOMLine, 0, len(r.bomLines))
	for i := range r.bomLines {
		line := r.bomLines[i]
		lines = append(lines, &line)
	}
	return lines, nil
}

// Len returns the number of stored lines
func (r *BOMRepository) Len() int {
	return len(r.bomLines)
}
