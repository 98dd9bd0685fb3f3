package analytics

import (
	"time"

	"insightminer/domain/dataset"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
}

// summarizeFields computes cardinality and semantic type for the declared fields.
func summarizeFields(rows []dataset.Row, dimensions, measures []string) []dataset.Field {
	fields := make([]dataset.Field, 0, len(dimensions)+len(measures))
	for _, d := range dimensions {
		fields = append(fields, dataset.Field{
			Key:          d,
			Role:         dataset.RoleDimension,
			Cardinality:  cardinality(rows, d),
			SemanticType: dimensionType(rows, d),
		})
	}
	for _, m := range measures {
		fields = append(fields, dataset.Field{
			Key:          m,
			Role:         dataset.RoleMeasure,
			Cardinality:  cardinality(rows, m),
			SemanticType: dataset.SemanticQuantitative,
		})
	}
	return fields
}

func cardinality(rows []dataset.Row, key string) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Get(key).GroupKey()] = struct{}{}
	}
	return len(seen)
}

// dimensionType is temporal when every non-null value parses as a date,
// ordinal when every non-null value is numeric, nominal otherwise.
func dimensionType(rows []dataset.Row, key string) dataset.SemanticType {
	allNumeric, allDates, present := true, true, false
	for _, r := range rows {
		v := r.Get(key)
		if v.IsNull() {
			continue
		}
		present = true
		if !v.IsNumber() {
			allNumeric = false
		}
		if v.IsNumber() || !isDate(v.Text()) {
			allDates = false
		}
		if !allNumeric && !allDates {
			break
		}
	}
	switch {
	case !present:
		return dataset.SemanticNominal
	case allDates:
		return dataset.SemanticTemporal
	case allNumeric:
		return dataset.SemanticOrdinal
	}
	return dataset.SemanticNominal
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// SemanticTypes projects fields onto {key, type} pairs.
func SemanticTypes(fields []dataset.Field) []dataset.FieldType {
	out := make([]dataset.FieldType, len(fields))
	for i, f := range fields {
		out[i] = dataset.FieldType{Key: f.Key, Type: f.SemanticType}
	}
	return out
}
