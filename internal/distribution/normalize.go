// Package distribution scales aggregated rows into relative distributions and
// measures the divergence between two of them.
package distribution

import (
	"math"

	"insightminer/domain/dataset"
)

// totals returns the sum of absolute values per measure. Non-numeric cells count as 0.
func totals(rows []dataset.Row, measures []string) map[string]float64 {
	out := make(map[string]float64, len(measures))
	for _, m := range measures {
		var sum float64
		for _, r := range rows {
			sum += math.Abs(r.Get(m).FloatOrZero())
		}
		out[m] = sum
	}
	return out
}

func scale(rows []dataset.Row, measures []string, by map[string]float64) []dataset.Row {
	out := make([]dataset.Row, len(rows))
	for i, r := range rows {
		nr := r.Clone()
		for _, m := range measures {
			total := by[m]
			if total == 0 {
				nr[m] = dataset.Number(0)
				continue
			}
			nr[m] = dataset.Number(r.Get(m).FloatOrZero() / total)
		}
		out[i] = nr
	}
	return out
}

// NormalizeRelative divides each measure by the sum of its absolute values
// across rows. A measure whose total is zero normalizes to 0 in every row.
// Dimension cells are copied unchanged; the input is not modified.
func NormalizeRelative(rows []dataset.Row, measures []string) []dataset.Row {
	return scale(rows, measures, totals(rows, measures))
}

// NormalizeWithParent normalizes parent relative to itself and child either
// against the parent's totals (syncScale) or against its own. Both normalized
// sets are returned.
func NormalizeWithParent(child, parent []dataset.Row, measures []string, syncScale bool) (normChild, normParent []dataset.Row) {
	parentTotals := totals(parent, measures)
	normParent = scale(parent, measures, parentTotals)
	if syncScale {
		normChild = scale(child, measures, parentTotals)
	} else {
		normChild = scale(child, measures, totals(child, measures))
	}
	return normChild, normParent
}
