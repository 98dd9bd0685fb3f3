package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"insightminer/domain/dataset"
)

func testGraph() *dataset.CorrelationGraph {
	return &dataset.CorrelationGraph{
		DimensionKeys: []string{"region", "channel", "month", "store(group)"},
		DimensionMatrix: [][]float64{
			{1, 0.6, 0.2, 0.9},
			{0.6, 1, 0.5, 0.1},
			{0.2, 0.5, 1, 0.05},
			{0.9, 0.1, 0.05, 1},
		},
		MeasureKeys: []string{"units", "revenue", "discount"},
		MeasureMatrix: [][]float64{
			{1, 0.95, -0.7},
			{0.95, 1, -0.6},
			{-0.7, -0.6, 1},
		},
	}
}

func testFields() []dataset.Field {
	return []dataset.Field{
		{Key: "region", Role: dataset.RoleDimension, Cardinality: 4},
		{Key: "channel", Role: dataset.RoleDimension, Cardinality: 3},
		{Key: "month", Role: dataset.RoleDimension, Cardinality: 6},
		{Key: "units", Role: dataset.RoleMeasure, Cardinality: 12},
		{Key: "revenue", Role: dataset.RoleMeasure, Cardinality: 300},
		{Key: "discount", Role: dataset.RoleMeasure, Cardinality: 40},
	}
}

func TestSelect_ExcludesSeeds(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	got := s.Select(dataset.RoleDimension, []string{"region", "channel"}, 10, 0)
	assert.NotContains(t, got, "region")
	assert.NotContains(t, got, "channel")
	assert.NotEmpty(t, got)
}

func TestSelect_RanksByStrengthOverCardinality(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	// channel: 0.6/3 = 0.2, month: 0.2/6 = 0.033, store(group) unknown cardinality -> last
	got := s.Select(dataset.RoleDimension, []string{"region"}, 3, 0)
	assert.Equal(t, []string{"channel", "month", "store(group)"}, got)
}

func TestSelect_Threshold(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	got := s.Select(dataset.RoleDimension, []string{"region"}, 3, 0.5)
	assert.Equal(t, []string{"channel", "store(group)"}, got)

	g := testGraph()
	for _, key := range got {
		idx := g.IndexOf(dataset.RoleDimension, key)
		assert.GreaterOrEqual(t, g.Strength(dataset.RoleDimension, 0, idx), 0.5)
	}
}

func TestSelect_NegativeCorrelationUsesAbsoluteValue(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	got := s.Select(dataset.RoleMeasure, []string{"units"}, 1, 0.65)
	// revenue 0.95/300, discount 0.7/40: discount wins
	assert.Equal(t, []string{"discount"}, got)
}

func TestSelect_K(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	assert.Len(t, s.Select(dataset.RoleDimension, []string{"region"}, 1, 0), 1)
	assert.Empty(t, s.Select(dataset.RoleDimension, []string{"region"}, 0, 0))
}

func TestSelect_MissingSeed(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	assert.Empty(t, s.Select(dataset.RoleDimension, []string{"nope"}, 3, 0))

	// group-qualified fallback resolves "store" to "store(group)"
	got := s.Select(dataset.RoleDimension, []string{"store"}, 1, 0)
	assert.Equal(t, []string{"region"}, got)
}

func TestSelect_EmptySeedsFallsBackToCenter(t *testing.T) {
	s := NewSelector(testGraph(), testFields(), nil)
	// sums: region 1.7, channel 1.2, month 0.75, store 1.05
	assert.Equal(t, []string{"region", "channel"}, s.Select(dataset.RoleDimension, nil, 2, 0))
	assert.Equal(t, s.CenterFields(dataset.RoleDimension, 2), s.Select(dataset.RoleDimension, []string{}, 2, 0))
}
