package testkit

import (
	"testing"
)

func TestRetailDataGenerator_Basic(t *testing.T) {
	config := DefaultRetailConfig()
	config.OrderCount = 50

	generator := NewRetailDataGenerator(config)
	rows, err := generator.GenerateRows()
	if err != nil {
		t.Fatalf("Failed to generate rows: %v", err)
	}
	if len(rows) != 50 {
		t.Fatalf("Expected 50 rows, got %d", len(rows))
	}

	for i, row := range rows {
		for _, key := range generator.Dimensions() {
			if row.Get(key).IsNull() {
				t.Errorf("Row %d missing dimension %s", i, key)
			}
		}
		for _, key := range generator.Measures() {
			if !row.Get(key).IsNumber() {
				t.Errorf("Row %d has non-numeric measure %s", i, key)
			}
		}
	}
}

func TestRetailDataGenerator_Deterministic(t *testing.T) {
	a, _ := NewRetailDataGenerator(DefaultRetailConfig()).GenerateRows()
	b, _ := NewRetailDataGenerator(DefaultRetailConfig()).GenerateRows()
	for i := range a {
		if !a[i].MatchesOn(b[i], []string{FieldRegion, FieldChannel, FieldRevenue}) {
			t.Fatalf("Row %d differs between runs with the same seed", i)
		}
	}
}

func TestRetailDataGenerator_InvalidConfig(t *testing.T) {
	config := DefaultRetailConfig()
	config.Regions = nil
	if _, err := NewRetailDataGenerator(config).GenerateRows(); err == nil {
		t.Error("Expected error for empty regions")
	}
}

func TestStudentsFixture(t *testing.T) {
	rows := Students()
	if len(rows) != 7 {
		t.Fatalf("Expected 7 students, got %d", len(rows))
	}
	if n := len(StudentsWhere(FieldAge, rows[0].Get(FieldAge))); n != 4 {
		t.Errorf("Expected 4 students aged 18, got %d", n)
	}
}
