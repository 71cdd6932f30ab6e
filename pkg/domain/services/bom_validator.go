package services

import (
	"fmt"

	"github.com/vsinha/transportopt/pkg/domain/entities"
)

// BOMValidator provides validation for BOM structure integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]entities.PartNumber
	DuplicateLines []entities.BOMLine
	MissingParents []entities.PartNumber
	Errors         []string
	Warnings       []string
}

// Valid reports whether no blocking problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateBOM checks that every part has one parent row and that following
// parents always ends at a root.
func (v *BOMValidator) ValidateBOM(bomLines []entities.BOMLine) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.PartNumber, 0),
		DuplicateLines: make([]entities.BOMLine, 0),
		MissingParents: make([]entities.PartNumber, 0),
		Errors:         make([]string, 0),
		Warnings:       make([]string, 0),
	}

	parents, order := v.buildParentMap(bomLines)

	// Detect cycles
	cycles := v.detectCycles(parents, order)
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	// Detect duplicate BOM lines
	result.DuplicateLines = v.detectDuplicateLines(bomLines)

	for _, part := range order {
		parent := parents[part]
		if parent == "" {
			continue
		}
		if _, known := parents[parent]; !known {
			result.MissingParents = append(result.MissingParents, parent)
		}
	}

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d duplicate BOM lines", len(result.DuplicateLines)))
	}
	if len(result.MissingParents) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Parents without BOM lines (no destinations for their children): %v", result.MissingParents))
	}

	return result
}

// buildParentMap creates a map of part -> parent relationships. The first
// line for a part wins; order keeps first appearance.
func (v *BOMValidator) buildParentMap(bomLines []entities.BOMLine) (map[entities.PartNumber]entities.PartNumber, []entities.PartNumber) {
	parents := make(map[entities.PartNumber]entities.PartNumber, len(bomLines))
	order := make([]entities.PartNumber, 0, len(bomLines))

	for _, line := range bomLines {
		if _, exists := parents[line.PartNumber]; exists {
			continue
		}
		parents[line.PartNumber] = line.ParentPN
		order = append(order, line.PartNumber)
	}

	return parents, order
}

// detectCycles walks the parent chain from each part. Each part has at most
// one parent, so a walk that revisits a part on its own path is a cycle.
func (v *BOMValidator) detectCycles(parents map[entities.PartNumber]entities.PartNumber, order []entities.PartNumber) [][]entities.PartNumber {
	visited := make(map[entities.PartNumber]bool, len(order))
	cycles := make([][]entities.PartNumber, 0)

	for _, start := range order {
		if visited[start] {
			continue
		}

		onPath := make(map[entities.PartNumber]int)
		path := make([]entities.PartNumber, 0)
		current := start
		for current != "" && !visited[current] {
			if at, seen := onPath[current]; seen {
				cycle := make([]entities.PartNumber, 0, len(path)-at+1)
				cycle = append(cycle, path[at:]...)
				cycle = append(cycle, current) // Close the cycle
				cycles = append(cycles, cycle)
				break
			}
			onPath[current] = len(path)
			path = append(path, current)

			parent, known := parents[current]
			if !known {
				break
			}
			current = parent
		}

		for _, part := range path {
			visited[part] = true
		}
	}

	return cycles
}

// detectDuplicateLines finds parts listed on more than one BOM line
func (v *BOMValidator) detectDuplicateLines(bomLines []entities.BOMLine) []entities.BOMLine {
	seen := make(map[entities.PartNumber]entities.BOMLine)
	duplicates := make([]entities.BOMLine, 0)

	for _, line := range bomLines {
		if existingLine, exists := seen[line.PartNumber]; exists {
			duplicates = append(duplicates, existingLine, line)
		} else {
			seen[line.PartNumber] = line
		}
	}

	return duplicates
}

// EligibilityResult contains the results of supplier eligibility validation
type EligibilityResult struct {
	UnknownParts  []entities.PartNumber
	Unsupplied    []entities.PartNumber
	DuplicateRows []entities.SupplierEligibility
	Warnings      []string
}

// ValidateEligibility cross-checks the eligibility table against the BOM:
// rows for parts not in the BOM, BOM parts no manufacturer can supply, and
// repeated rows.
func (v *BOMValidator) ValidateEligibility(bomLines []entities.BOMLine, rows []entities.SupplierEligibility) *EligibilityResult {
	result := &EligibilityResult{
		UnknownParts:  make([]entities.PartNumber, 0),
		Unsupplied:    make([]entities.PartNumber, 0),
		DuplicateRows: make([]entities.SupplierEligibility, 0),
		Warnings:      make([]string, 0),
	}

	inBOM := make(map[entities.PartNumber]bool, len(bomLines))
	for _, line := range bomLines {
		inBOM[line.PartNumber] = true
	}

	supplied := make(map[entities.PartNumber]bool)
	reported := make(map[entities.PartNumber]bool)
	seen := make(map[entities.SupplierEligibility]bool, len(rows))
	for _, row := range rows {
		if seen[row] {
			result.DuplicateRows = append(result.DuplicateRows, row)
			continue
		}
		seen[row] = true
		supplied[row.PartNumber] = true

		if !inBOM[row.PartNumber] && !reported[row.PartNumber] {
			reported[row.PartNumber] = true
			result.UnknownParts = append(result.UnknownParts, row.PartNumber)
		}
	}

	for _, line := range bomLines {
		if !supplied[line.PartNumber] {
			result.Unsupplied = append(result.Unsupplied, line.PartNumber)
		}
	}

	if len(result.UnknownParts) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Eligibility rows for parts not in BOM: %v", result.UnknownParts))
	}
	if len(result.Unsupplied) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Parts without eligible suppliers: %v", result.Unsupplied))
	}
	if len(result.DuplicateRows) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d duplicate eligibility rows", len(result.DuplicateRows)))
	}

	return result
}
