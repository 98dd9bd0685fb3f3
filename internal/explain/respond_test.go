package explain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/internal/testkit"
)

func TestQueryFromRequest(t *testing.T) {
	req := insight.ExplainRequest{
		Measures: []dataset.MeasureRef{{Key: "height", Op: dataset.OpMean}},
		CurrentSpace: insight.CurrentSpace{
			Dimensions: []string{"age"},
			Measures:   []string{"height", "weight"},
		},
	}
	q := QueryFromRequest(req)
	assert.Equal(t, []string{"age"}, q.Dimensions)
	assert.Equal(t, []dataset.MeasureRef{
		{Key: "height", Op: dataset.OpMean},
		{Key: "weight", Op: dataset.OpSum},
	}, q.Measures)
}

func TestRespond(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0
	e := studentsExplainer(t, opts)

	resp, err := e.Respond(context.Background(), Query{
		Dimensions: []string{testkit.FieldAge},
		Measures:   heightSum,
		Filters: map[string][]dataset.Value{
			testkit.FieldAge:  {dataset.Number(18)},
			testkit.FieldName: {dataset.String("Alice")},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Explanations, 3)
	assert.Len(t, resp.VisualizableSpaces, len(resp.Explanations))
	assert.Equal(t, insight.SelectionDimensionDistribution, resp.Explanations[0].Type)
	assert.Contains(t, resp.FieldSemanticTypes, dataset.FieldType{Key: testkit.FieldHeight, Type: dataset.SemanticQuantitative})

	// selection data view is restricted to the selected age
	for _, r := range resp.VisualizableSpaces[0].DataView {
		assert.True(t, r.Get(testkit.FieldAge).Equal(dataset.Number(18)))
	}
}
