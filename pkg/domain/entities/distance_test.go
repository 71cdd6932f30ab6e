package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDistanceMatrix_SetAndCost(t *testing.T) {
	matrix, err := NewDistanceMatrix([]Manufacturer{"M1", "M2", "M3"})
	if err != nil {
		t.Fatalf("Failed to create matrix: %v", err)
	}

	if err := matrix.Set("M1", "M3", decimal.NewFromInt(5)); err != nil {
		t.Fatalf("Failed to set distance: %v", err)
	}

	cost, ok := matrix.Cost("M1", "M3")
	if !ok {
		t.Fatal("Expected entry for M1 -> M3")
	}
	if !cost.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected cost 5, got %s", cost)
	}

	// The matrix is directional
	if _, ok := matrix.Cost("M3", "M1"); ok {
		t.Error("Expected no entry for M3 -> M1")
	}
	if _, ok := matrix.Cost("M1", "UNKNOWN"); ok {
		t.Error("Expected no entry for unknown manufacturer")
	}

	if got := len(matrix.Missing()); got != 8 {
		t.Errorf("Expected 8 missing pairs, got %d", got)
	}
}

func TestDistanceMatrix_Validation(t *testing.T) {
	if _, err := NewDistanceMatrix([]Manufacturer{"M1", "M1"}); err == nil {
		t.Error("Expected error for duplicate manufacturer")
	}

	matrix, err := NewDistanceMatrix([]Manufacturer{"M1", "M2"})
	if err != nil {
		t.Fatalf("Failed to create matrix: %v", err)
	}

	testCases := []struct {
		name        string
		from, to    Manufacturer
		cost        decimal.Decimal
		expectError string
	}{
		{"unknown source", "M9", "M2", decimal.NewFromInt(1), "unknown manufacturer: M9"},
		{"unknown destination", "M1", "M9", decimal.NewFromInt(1), "unknown manufacturer: M9"},
		{"negative cost", "M1", "M2", decimal.NewFromInt(-1), "distance from M1 to M2 cannot be negative, got -1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := matrix.Set(tc.from, tc.to, tc.cost)
			if err == nil {
				t.Fatalf("Expected error for %s", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}
