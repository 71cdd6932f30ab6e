package entities

import "fmt"

// BOMLine places a part under the assembly it feeds into.
// An empty ParentPN marks a root (final) assembly.
type BOMLine struct {
	PartNumber PartNumber
	ParentPN   PartNumber
}

// NewBOMLine creates a validated BOMLine
func NewBOMLine(partNumber, parentPN PartNumber) (*BOMLine, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if partNumber == parentPN {
		return nil, fmt.Errorf("part cannot be its own parent: %s", partNumber)
	}

	return &BOMLine{
		PartNumber: partNumber,
		ParentPN:   parentPN,
	}, nil
}

// IsRoot reports whether the line has no parent assembly
func (l BOMLine) IsRoot() bool {
	return l.ParentPN == ""
}
