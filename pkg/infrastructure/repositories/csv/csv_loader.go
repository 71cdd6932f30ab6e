package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/transportopt/pkg/domain/entities"
)

// Loader handles loading allocation input tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadBOM loads BOM lines from a CSV file with columns part_number,parent_pn.
// An empty parent_pn marks a root assembly.
func (l *Loader) LoadBOM(filename string) ([]*entities.BOMLine, error) {
	records, err := readRecords(filename, "BOM")
	if err != nil {
		return nil, err
	}

	// Validate header
	expectedHeader := []string{"part_number", "parent_pn"}
	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("BOM CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var bomLines []*entities.BOMLine
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("BOM CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		bomLine, err := entities.NewBOMLine(
			entities.PartNumber(strings.TrimSpace(record[0])),
			entities.PartNumber(strings.TrimSpace(record[1])),
		)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}

		bomLines = append(bomLines, bomLine)
	}

	return bomLines, nil
}

// LoadSuppliers loads supplier eligibility rows from a CSV file with columns
// part_number,manufacturer
func (l *Loader) LoadSuppliers(filename string) ([]*entities.SupplierEligibility, error) {
	records, err := readRecords(filename, "suppliers")
	if err != nil {
		return nil, err
	}

	// Validate header
	expectedHeader := []string{"part_number", "manufacturer"}
	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("suppliers CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var rows []*entities.SupplierEligibility
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("suppliers CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		row, err := entities.NewSupplierEligibility(
			entities.PartNumber(strings.TrimSpace(record[0])),
			entities.Manufacturer(strings.TrimSpace(record[1])),
		)
		if err != nil {
			return nil, fmt.Errorf("suppliers CSV row %d: %w", i+2, err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// LoadDistances loads a square distance matrix. The header row names the
// destination manufacturers after a leading label cell; each data row starts
// with the source manufacturer. Empty cells leave the pair without an entry.
func (l *Loader) LoadDistances(filename string) (*entities.DistanceMatrix, error) {
	records, err := readRecords(filename, "distances")
	if err != nil {
		return nil, err
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("distances CSV header must name at least one manufacturer")
	}

	manufacturers := make([]entities.Manufacturer, 0, len(header)-1)
	for _, col := range header[1:] {
		manufacturers = append(manufacturers, entities.Manufacturer(strings.TrimSpace(col)))
	}

	matrix, err := entities.NewDistanceMatrix(manufacturers)
	if err != nil {
		return nil, fmt.Errorf("distances CSV header: %w", err)
	}

	seenRows := make(map[entities.Manufacturer]bool, len(manufacturers))
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("distances CSV row %d: expected %d columns, got %d", i+2, len(header), len(record))
		}

		from := entities.Manufacturer(strings.TrimSpace(record[0]))
		if seenRows[from] {
			return nil, fmt.Errorf("distances CSV row %d: duplicate row for %s", i+2, from)
		}
		seenRows[from] = true

		for j, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			cost, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("distances CSV row %d: invalid cost for %s: %s", i+2, manufacturers[j], cell)
			}
			if err := matrix.Set(from, manufacturers[j], cost); err != nil {
				return nil, fmt.Errorf("distances CSV row %d: %w", i+2, err)
			}
		}
	}

	return matrix, nil
}

// LoadCapacities loads per-source supply limits from a CSV file with columns
// part_number,manufacturer,max_percent
func (l *Loader) LoadCapacities(filename string) ([]*entities.SupplyCapacity, error) {
	records, err := readRecords(filename, "capacities")
	if err != nil {
		return nil, err
	}

	// Validate header
	expectedHeader := []string{"part_number", "manufacturer", "max_percent"}
	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("capacities CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var capacities []*entities.SupplyCapacity
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("capacities CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		maxPercent, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("capacities CSV row %d: invalid max_percent: %s", i+2, record[2])
		}

		capacity, err := entities.NewSupplyCapacity(
			entities.PartNumber(strings.TrimSpace(record[0])),
			entities.Manufacturer(strings.TrimSpace(record[1])),
			entities.Percent(maxPercent),
		)
		if err != nil {
			return nil, fmt.Errorf("capacities CSV row %d: %w", i+2, err)
		}

		capacities = append(capacities, capacity)
	}

	return capacities, nil
}

// Files names the CSV files of one scenario. Capacities is optional.
type Files struct {
	BOM        string
	Suppliers  string
	Distances  string
	Capacities string
}

// LoadScenario loads every table named in files
func (l *Loader) LoadScenario(files Files) (*entities.Scenario, error) {
	bom, err := l.LoadBOM(files.BOM)
	if err != nil {
		return nil, err
	}
	suppliers, err := l.LoadSuppliers(files.Suppliers)
	if err != nil {
		return nil, err
	}
	distances, err := l.LoadDistances(files.Distances)
	if err != nil {
		return nil, err
	}

	scenario := &entities.Scenario{
		BOM:       bom,
		Suppliers: suppliers,
		Distances: distances,
	}
	if files.Capacities != "" {
		if scenario.Capacities, err = l.LoadCapacities(files.Capacities); err != nil {
			return nil, err
		}
	}
	return scenario, nil
}

// Helper functions for parsing CSV records

func readRecords(filename, table string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", table, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", table, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", table)
	}

	return records, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}
