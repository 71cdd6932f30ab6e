package entities

import "testing"

func TestSupplierEligibility_Validation(t *testing.T) {
	eligibility, err := NewSupplierEligibility("BRACKET", "PLANT_A")
	if err != nil {
		t.Fatalf("Expected valid eligibility: %v", err)
	}
	if eligibility.Manufacturer != "PLANT_A" {
		t.Errorf("Expected manufacturer PLANT_A, got %s", eligibility.Manufacturer)
	}

	testCases := []struct {
		name         string
		partNumber   PartNumber
		manufacturer Manufacturer
		expectError  string
	}{
		{"empty part", "", "PLANT_A", "part number cannot be empty"},
		{"empty manufacturer", "BRACKET", "", "manufacturer cannot be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSupplierEligibility(tc.partNumber, tc.manufacturer)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestSupplyCapacity_Validation(t *testing.T) {
	if _, err := NewSupplyCapacity("BRACKET", "PLANT_A", 60); err != nil {
		t.Fatalf("Expected valid capacity: %v", err)
	}

	_, err := NewSupplyCapacity("BRACKET", "PLANT_A", 120)
	if err == nil {
		t.Fatal("Expected error for capacity above 100")
	}
	if err.Error() != "max percent: percent must be between 0 and 100, got 120" {
		t.Errorf("Unexpected error: %v", err)
	}
}
