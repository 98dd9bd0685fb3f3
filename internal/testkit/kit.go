package testkit

import (
	"insightminer/domain/dataset"
)

// Student fixture field keys.
const (
	FieldName   = "name"
	FieldHeight = "height"
	FieldGender = "gender"
	FieldAge    = "age"
)

// Students returns the seven-row reference table used across explain tests.
func Students() []dataset.Row {
	type student struct {
		name   string
		height float64
		gender string
		age    float64
	}
	students := []student{
		{"Alice", 160, "f", 18},
		{"Bob", 178, "m", 17},
		{"Carl", 181, "m", 18},
		{"Duke", 170, "f", 18},
		{"Elisa", 168, "f", 17},
		{"Elisa2", 184, "m", 17},
		{"Frank", 185, "m", 18},
	}

	rows := make([]dataset.Row, len(students))
	for i, s := range students {
		rows[i] = dataset.Row{
			FieldName:   dataset.String(s.name),
			FieldHeight: dataset.Number(s.height),
			FieldGender: dataset.String(s.gender),
			FieldAge:    dataset.Number(s.age),
		}
	}
	return rows
}

// StudentDimensions are the declared dimensions of the student fixture.
func StudentDimensions() []string { return []string{FieldGender, FieldAge} }

// StudentMeasures are the declared measures of the student fixture.
func StudentMeasures() []string { return []string{FieldHeight} }

// StudentsWhere returns the fixture rows whose key equals v.
func StudentsWhere(key string, v dataset.Value) []dataset.Row {
	var out []dataset.Row
	for _, r := range Students() {
		if r.Get(key).Equal(v) {
			out = append(out, r)
		}
	}
	return out
}

// Dominant/small fixture field keys.
const (
	FieldRegion  = "region"
	FieldSegment = "segment"
	FieldSales   = "sales"

	SegmentBig   = "big"
	SegmentSmall = "small"
)

// DominantAndSmallGroup returns a table where segment "big" carries most of
// every region's sales with an even shape, and segment "small" carries a tiny,
// skewed share. Grouped by region, "big" reconstructs the totals and "small"
// deviates the most from them.
func DominantAndSmallGroup() []dataset.Row {
	cells := []struct {
		region, segment string
		sales           float64
	}{
		{"A", SegmentBig, 100},
		{"B", SegmentBig, 100},
		{"C", SegmentBig, 100},
		{"A", SegmentSmall, 9},
		{"B", SegmentSmall, 1},
		{"C", SegmentSmall, 0},
	}
	rows := make([]dataset.Row, len(cells))
	for i, c := range cells {
		rows[i] = dataset.Row{
			FieldRegion:  dataset.String(c.region),
			FieldSegment: dataset.String(c.segment),
			FieldSales:   dataset.Number(c.sales),
		}
	}
	return rows
}
