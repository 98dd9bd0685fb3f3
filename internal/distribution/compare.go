package distribution

import (
	"math"

	"insightminer/domain/dataset"
)

// Compare returns the L1 divergence between two distributions. Rows are paired
// one-to-one by equality on dimensions, first match wins and each row of b is
// consumed at most once. Paired rows add the absolute per-measure difference;
// rows left unpaired on either side add their absolute measure values.
func Compare(a, b []dataset.Row, dimensions, measures []string) float64 {
	consumed := make([]bool, len(b))
	var score float64
	for _, ra := range a {
		matched := -1
		for j, rb := range b {
			if consumed[j] || !ra.MatchesOn(rb, dimensions) {
				continue
			}
			matched = j
			break
		}
		if matched < 0 {
			score += absSum(ra, measures)
			continue
		}
		consumed[matched] = true
		rb := b[matched]
		for _, m := range measures {
			score += math.Abs(ra.Get(m).FloatOrZero() - rb.Get(m).FloatOrZero())
		}
	}
	for j, rb := range b {
		if !consumed[j] {
			score += absSum(rb, measures)
		}
	}
	return score
}

// Deviation sums, over reference rows, the absolute difference to the first
// matching row of group on dimensions. Reference rows without a match
// contribute their full absolute value; rows present only in group are ignored.
func Deviation(reference, group []dataset.Row, dimensions, measures []string) float64 {
	var score float64
	for _, ref := range reference {
		var hit dataset.Row
		for _, g := range group {
			if ref.MatchesOn(g, dimensions) {
				hit = g
				break
			}
		}
		for _, m := range measures {
			rv := ref.Get(m).FloatOrZero()
			if hit == nil {
				score += math.Abs(rv)
				continue
			}
			score += math.Abs(rv - hit.Get(m).FloatOrZero())
		}
	}
	return score
}

func absSum(r dataset.Row, measures []string) float64 {
	var s float64
	for _, m := range measures {
		s += math.Abs(r.Get(m).FloatOrZero())
	}
	return s
}
