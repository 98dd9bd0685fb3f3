package dataset

import "math"

// CorrelationGraph holds pairwise association strengths between dimensions (DG)
// and between measures (MG). Matrices are square, symmetric, and indexed by the
// parallel key lists. The diagonal is never consulted.
type CorrelationGraph struct {
	DimensionKeys   []string    `json:"dimensionKeys"`
	DimensionMatrix [][]float64 `json:"dimensionMatrix"`
	MeasureKeys     []string    `json:"measureKeys"`
	MeasureMatrix   [][]float64 `json:"measureMatrix"`
}

// Keys returns the index list for a role.
func (g *CorrelationGraph) Keys(role FieldRole) []string {
	if g == nil {
		return nil
	}
	if role == RoleMeasure {
		return g.MeasureKeys
	}
	return g.DimensionKeys
}

// Matrix returns the association matrix for a role.
func (g *CorrelationGraph) Matrix(role FieldRole) [][]float64 {
	if g == nil {
		return nil
	}
	if role == RoleMeasure {
		return g.MeasureMatrix
	}
	return g.DimensionMatrix
}

// IndexOf returns the matrix index of key, or -1.
func (g *CorrelationGraph) IndexOf(role FieldRole, key string) int {
	for i, k := range g.Keys(role) {
		if k == key {
			return i
		}
	}
	return -1
}

// Strength returns |m[i][j]|, with NaN and out-of-range treated as 0.
func (g *CorrelationGraph) Strength(role FieldRole, i, j int) float64 {
	m := g.Matrix(role)
	if i < 0 || i >= len(m) || j < 0 || j >= len(m[i]) {
		return 0
	}
	v := math.Abs(m[i][j])
	if math.IsNaN(v) {
		return 0
	}
	return v
}
