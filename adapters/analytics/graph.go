package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"insightminer/domain/dataset"
)

// buildGraph computes Cramér's V between dimensions and Pearson correlation
// between measures. Diagonals are 1; undefined associations are 0.
func buildGraph(rows []dataset.Row, dimensions, measures []string) *dataset.CorrelationGraph {
	g := &dataset.CorrelationGraph{
		DimensionKeys:   append([]string(nil), dimensions...),
		DimensionMatrix: squareMatrix(len(dimensions)),
		MeasureKeys:     append([]string(nil), measures...),
		MeasureMatrix:   squareMatrix(len(measures)),
	}
	for i := range dimensions {
		for j := i + 1; j < len(dimensions); j++ {
			v := cramersV(rows, dimensions[i], dimensions[j])
			g.DimensionMatrix[i][j], g.DimensionMatrix[j][i] = v, v
		}
	}
	for i := range measures {
		for j := i + 1; j < len(measures); j++ {
			v := pearson(rows, measures[i], measures[j])
			g.MeasureMatrix[i][j], g.MeasureMatrix[j][i] = v, v
		}
	}
	return g
}

func squareMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// cramersV measures association between two categorical fields from their
// contingency table: sqrt(chi² / (n * min(r-1, c-1))).
func cramersV(rows []dataset.Row, a, b string) float64 {
	rowIdx := make(map[string]int)
	colIdx := make(map[string]int)
	type cell struct{ r, c int }
	counts := make(map[cell]float64)
	for _, r := range rows {
		ka, kb := r.Get(a).GroupKey(), r.Get(b).GroupKey()
		ri, ok := rowIdx[ka]
		if !ok {
			ri = len(rowIdx)
			rowIdx[ka] = ri
		}
		ci, ok := colIdx[kb]
		if !ok {
			ci = len(colIdx)
			colIdx[kb] = ci
		}
		counts[cell{ri, ci}]++
	}

	nr, nc := len(rowIdx), len(colIdx)
	minDim := math.Min(float64(nr-1), float64(nc-1))
	n := float64(len(rows))
	if minDim <= 0 || n == 0 {
		return 0
	}

	rowTotals := make([]float64, nr)
	colTotals := make([]float64, nc)
	for k, v := range counts {
		rowTotals[k.r] += v
		colTotals[k.c] += v
	}
	obs := make([]float64, 0, nr*nc)
	exp := make([]float64, 0, nr*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			obs = append(obs, counts[cell{i, j}])
			exp = append(exp, rowTotals[i]*colTotals[j]/n)
		}
	}

	chi2 := stat.ChiSquare(obs, exp)
	v := math.Sqrt(chi2 / (n * minDim))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(v, 1)
}

// pearson correlates two measures over rows where both are numeric.
func pearson(rows []dataset.Row, a, b string) float64 {
	x := make([]float64, 0, len(rows))
	y := make([]float64, 0, len(rows))
	for _, r := range rows {
		fa, okA := r.Measure(a)
		fb, okB := r.Measure(b)
		if okA && okB {
			x = append(x, fa)
			y = append(y, fb)
		}
	}
	if len(x) < 2 {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}
