package explain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"insightminer/adapters/analytics"
	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/domain/predicate"
	"insightminer/internal"
	"insightminer/internal/testkit"
	"insightminer/ports"
)

var heightSum = []dataset.MeasureRef{{Key: testkit.FieldHeight, Op: dataset.OpSum}}

func newExplainer(t *testing.T, rows []dataset.Row, dims, measures []string, opts Options) *Explainer {
	t.Helper()
	engine, err := analytics.Build(context.Background(), rows, dims, measures, analytics.BuildOptions{}, internal.NewNopLogger())
	require.NoError(t, err)
	e, err := New(engine, opts, internal.NewNopLogger())
	require.NoError(t, err)
	return e
}

func studentsExplainer(t *testing.T, opts Options) *Explainer {
	return newExplainer(t, testkit.Students(), testkit.StudentDimensions(), testkit.StudentMeasures(), opts)
}

func TestExplainByChildren_Students(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	preds := []predicate.Predicate{
		predicate.NewDiscrete(testkit.FieldAge, dataset.Number(18)),
		predicate.NewDiscrete(testkit.FieldAge, dataset.Number(17)),
	}

	res, err := e.ExplainByChildren(context.Background(), preds, []string{testkit.FieldAge}, heightSum, 2)
	require.NoError(t, err)

	// same result as the selection's merged predicate
	selection := append(testkit.StudentsWhere(testkit.FieldAge, dataset.Number(18)),
		testkit.StudentsWhere(testkit.FieldAge, dataset.Number(17))...)
	merged, err := e.ExplainByChildren(context.Background(),
		predicate.Build(selection, []string{testkit.FieldAge}, nil), []string{testkit.FieldAge}, heightSum, 2)
	require.NoError(t, err)
	assert.Equal(t, merged, res)
	require.NotEmpty(t, res.MajorList)
	require.NotEmpty(t, res.OutlierList)
	for _, c := range append(res.MajorList, res.OutlierList...) {
		assert.Len(t, c.Dimensions, 1)
	}

	// males split evenly across ages like the whole class; females lean to 18
	assert.Equal(t, "m", res.MajorList[0].ChildKey.Text())
	assert.InDelta(t, 0.4062, res.MajorList[0].Score, 1e-3)
	assert.Equal(t, "f", res.OutlierList[0].ChildKey.Text())
	assert.InDelta(t, 0.19, res.OutlierList[0].Score, 1e-3)
}

func TestExplainByChildren_MajorAndOutlierDisagree(t *testing.T) {
	e := newExplainer(t, testkit.DominantAndSmallGroup(),
		[]string{testkit.FieldRegion, testkit.FieldSegment}, []string{testkit.FieldSales}, DefaultOptions())

	res, err := e.ExplainByChildren(context.Background(), nil, []string{testkit.FieldRegion},
		[]dataset.MeasureRef{{Key: testkit.FieldSales, Op: dataset.OpSum}}, 2)
	require.NoError(t, err)
	require.Len(t, res.MajorList, 1)
	require.Len(t, res.OutlierList, 1)

	assert.Equal(t, testkit.SegmentBig, res.MajorList[0].ChildKey.Text())
	assert.Equal(t, testkit.SegmentSmall, res.OutlierList[0].ChildKey.Text())
}

func TestExplainByChildren_SameMeasureUnderTwoOps(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	ctx := context.Background()
	dims := []string{testkit.FieldAge}
	ref := func(op dataset.AggregationOp) dataset.MeasureRef {
		return dataset.MeasureRef{Key: testkit.FieldHeight, Op: op}
	}

	sumMean, err := e.ExplainByChildren(ctx, nil, dims, []dataset.MeasureRef{ref(dataset.OpSum), ref(dataset.OpMean)}, 2)
	require.NoError(t, err)
	meanMean, err := e.ExplainByChildren(ctx, nil, dims, []dataset.MeasureRef{ref(dataset.OpMean), ref(dataset.OpMean)}, 2)
	require.NoError(t, err)
	sumOnly, err := e.ExplainByChildren(ctx, nil, dims, []dataset.MeasureRef{ref(dataset.OpSum)}, 2)
	require.NoError(t, err)
	meanOnly, err := e.ExplainByChildren(ctx, nil, dims, []dataset.MeasureRef{ref(dataset.OpMean)}, 2)
	require.NoError(t, err)

	require.Len(t, sumMean.MajorList, 1)
	require.Len(t, sumMean.OutlierList, 1)
	assert.NotEqual(t, meanMean.MajorList[0].Score, sumMean.MajorList[0].Score)
	assert.NotEqual(t, meanMean.OutlierList[0].Score, sumMean.OutlierList[0].Score)

	// per-measure deviations add up, so the joint fit is no tighter than either part
	assert.GreaterOrEqual(t, sumMean.MajorList[0].Score, sumOnly.MajorList[0].Score-1e-12)
	assert.GreaterOrEqual(t, sumMean.MajorList[0].Score, meanOnly.MajorList[0].Score-1e-12)
	assert.LessOrEqual(t, sumMean.OutlierList[0].Score, sumOnly.OutlierList[0].Score+meanOnly.OutlierList[0].Score+1e-12)
}

func TestVisualize_SameMeasureUnderTwoOps(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	space := insight.Space{
		BaseDimensions: []string{testkit.FieldAge},
		BaseMeasures: []dataset.MeasureRef{
			{Key: testkit.FieldHeight, Op: dataset.OpSum},
			{Key: testkit.FieldHeight, Op: dataset.OpMean},
		},
		Type: insight.ChildrenMajorFactor,
	}

	vs, err := e.Visualize(space)
	require.NoError(t, err)
	assert.Equal(t, []string{testkit.FieldAge, "height:sum"}, vs.Schema.Position)
	assert.Equal(t, []string{"height:mean"}, vs.Schema.Size)
	require.Len(t, vs.DataView, 2)
	for _, r := range vs.DataView {
		if r.Get(testkit.FieldAge).Equal(dataset.Number(18)) {
			assert.Equal(t, 696.0, r.Get("height:sum").FloatOrZero())
			assert.Equal(t, 174.0, r.Get("height:mean").FloatOrZero())
		}
	}
}

func TestExplain_RejectsMalformedPredicates(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	bad := []predicate.Predicate{{Key: testkit.FieldHeight, Kind: predicate.Continuous, Range: [2]float64{180, 170}}}

	_, err := e.Explain(context.Background(), bad, []string{testkit.FieldAge}, heightSum)
	assert.True(t, errors.Is(err, core.ErrInvalidPredicate))
	_, err = e.ExplainByChildren(context.Background(), bad, []string{testkit.FieldAge}, heightSum, 2)
	assert.True(t, errors.Is(err, core.ErrInvalidPredicate))
	_, err = e.ExplainBySelection(context.Background(), bad, []string{testkit.FieldAge}, heightSum, 2)
	assert.True(t, errors.Is(err, core.ErrInvalidPredicate))
	_, err = e.ExplainByCorMeasures(context.Background(), bad, []string{testkit.FieldAge}, heightSum, 2)
	assert.True(t, errors.Is(err, core.ErrInvalidPredicate))
}

func TestExplainByChildren_NoMeasures(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	res, err := e.ExplainByChildren(context.Background(), nil, []string{testkit.FieldAge}, nil, 2)
	require.NoError(t, err)
	assert.Empty(t, res.MajorList)
	assert.Empty(t, res.OutlierList)
}

func TestExplainBySelection_Students(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	preds := []predicate.Predicate{predicate.NewDiscrete(testkit.FieldAge, dataset.String("18"))}

	got, err := e.ExplainBySelection(context.Background(), preds, []string{testkit.FieldAge}, heightSum, 2)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, []string{testkit.FieldGender}, got[0].Dimensions)
	assert.InDelta(t, 0.068, got[0].Score, 1e-3)
}

func TestExplainBySelection_EmptySelectionSkipsCandidates(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	preds := []predicate.Predicate{predicate.NewDiscrete(testkit.FieldAge, dataset.Number(99))}

	got, err := e.ExplainBySelection(context.Background(), preds, []string{testkit.FieldAge}, heightSum, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExplainByCorMeasures_Retail(t *testing.T) {
	gen := testkit.NewRetailDataGenerator(testkit.DefaultRetailConfig())
	rows, err := gen.GenerateRows()
	require.NoError(t, err)
	e := newExplainer(t, rows, gen.Dimensions(), gen.Measures(), DefaultOptions())

	preds := []predicate.Predicate{predicate.NewDiscrete(testkit.FieldRegion, dataset.String("north"), dataset.String("west"))}
	got, err := e.ExplainByCorMeasures(context.Background(), preds, []string{testkit.FieldRegion},
		[]dataset.MeasureRef{{Key: testkit.FieldRevenue, Op: dataset.OpSum}}, 2)
	require.NoError(t, err)

	// two neighbor measures under five operators
	require.Len(t, got, 2*len(dataset.AllOps))
	for i, c := range got {
		require.Len(t, c.Measures, 1)
		assert.NotEqual(t, testkit.FieldRevenue, c.Measures[0].Key)
		require.NotNil(t, c.MaxDivergence)
		require.NotNil(t, c.MinDivergence)
		assert.InDelta(t, max(1-*c.MinDivergence, *c.MaxDivergence), c.Score, 1e-12)
		assert.LessOrEqual(t, c.Score, 1.0+1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, c.Score)
		}
	}
}

func TestExplain_SkipsSelectionWithoutPredicates(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0
	e := studentsExplainer(t, opts)

	spaces, err := e.Explain(context.Background(), nil, []string{testkit.FieldAge}, heightSum)
	require.NoError(t, err)
	require.NotEmpty(t, spaces)
	for _, s := range spaces {
		assert.Contains(t, []insight.StrategyType{insight.ChildrenMajorFactor, insight.ChildrenOutlier}, s.Type)
		assert.Empty(t, s.Predicates)
	}
}

func TestExplain_StrategyOrderAndSignificance(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0
	e := studentsExplainer(t, opts)
	preds := []predicate.Predicate{predicate.NewDiscrete(testkit.FieldAge, dataset.Number(18))}

	spaces, err := e.Explain(context.Background(), preds, []string{testkit.FieldAge}, heightSum)
	require.NoError(t, err)
	require.Len(t, spaces, 3)

	assert.Equal(t, insight.SelectionDimensionDistribution, spaces[0].Type)
	assert.Equal(t, insight.ChildrenMajorFactor, spaces[1].Type)
	assert.Equal(t, insight.ChildrenOutlier, spaces[2].Type)

	major := spaces[1]
	assert.InDelta(t, 1-major.Description.RawScore/2, major.Score, 1e-12)
	assert.Equal(t, []string{testkit.FieldGender}, major.ExtendDimensions)
	assert.Equal(t, []string{testkit.FieldAge, testkit.FieldGender}, major.Dimensions())
	assert.Len(t, spaces[0].Predicates, 1)
}

func TestExplain_Threshold(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0.5
	e := studentsExplainer(t, opts)
	preds := []predicate.Predicate{predicate.NewDiscrete(testkit.FieldAge, dataset.Number(18))}

	spaces, err := e.Explain(context.Background(), preds, []string{testkit.FieldAge}, heightSum)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, insight.ChildrenMajorFactor, spaces[0].Type)
	for _, s := range spaces {
		assert.GreaterOrEqual(t, s.Score, opts.Threshold)
	}

	opts.Threshold = 0.8
	spaces, err = studentsExplainer(t, opts).Explain(context.Background(), preds, []string{testkit.FieldAge}, heightSum)
	require.NoError(t, err)
	assert.Empty(t, spaces)
}

func TestExplain_CanceledContext(t *testing.T) {
	e := studentsExplainer(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Explain(ctx, nil, []string{testkit.FieldAge}, heightSum)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestVisualize(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0
	e := studentsExplainer(t, opts)

	spaces, err := e.Explain(context.Background(), nil, []string{testkit.FieldAge}, heightSum)
	require.NoError(t, err)
	vs := e.VisualizeAll(spaces)
	require.Len(t, vs, len(spaces))

	assert.Equal(t, []string{testkit.FieldAge, testkit.FieldHeight}, vs[0].Schema.Position)
	assert.Equal(t, []string{testkit.FieldGender}, vs[0].Schema.Color)
	assert.Equal(t, GeomInterval, vs[0].Schema.GeomType)
	assert.Len(t, vs[0].DataView, 4)
}

func TestSchema_TemporalAndMeasureOnly(t *testing.T) {
	gen := testkit.NewRetailDataGenerator(testkit.DefaultRetailConfig())
	rows, err := gen.GenerateRows()
	require.NoError(t, err)
	e := newExplainer(t, rows, gen.Dimensions(), gen.Measures(), DefaultOptions())

	s := e.Schema([]string{testkit.FieldMonth}, []dataset.MeasureRef{{Key: testkit.FieldRevenue, Op: dataset.OpSum}})
	assert.Equal(t, GeomLine, s.GeomType)

	s = e.Schema(nil, []dataset.MeasureRef{{Key: testkit.FieldUnits}, {Key: testkit.FieldRevenue}})
	assert.Equal(t, GeomPoint, s.GeomType)
	assert.Equal(t, []string{testkit.FieldUnits, testkit.FieldRevenue}, s.Position)
}

// engine double

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Fields() []dataset.Field {
	args := m.Called()
	return args.Get(0).([]dataset.Field)
}

func (m *mockEngine) Graph() (*dataset.CorrelationGraph, error) {
	args := m.Called()
	g, _ := args.Get(0).(*dataset.CorrelationGraph)
	return g, args.Error(1)
}

func (m *mockEngine) Cube() (ports.Cube, error) {
	args := m.Called()
	c, _ := args.Get(0).(ports.Cube)
	return c, args.Error(1)
}

type mockCube struct {
	mock.Mock
}

func (m *mockCube) Cuboid(dimensions []string) (ports.Cuboid, error) {
	args := m.Called(dimensions)
	c, _ := args.Get(0).(ports.Cuboid)
	return c, args.Error(1)
}

func TestNew_GraphUnavailable(t *testing.T) {
	engine := new(mockEngine)
	engine.On("Graph").Return(nil, core.ErrGraphUnavailable)

	_, err := New(engine, DefaultOptions(), internal.NewNopLogger())
	assert.True(t, errors.Is(err, core.ErrGraphUnavailable))
	assert.True(t, core.IsEngineFault(err))
	engine.AssertExpectations(t)
}

func TestExplain_NoCuboidData(t *testing.T) {
	graph := &dataset.CorrelationGraph{
		DimensionKeys:   []string{"a", "b"},
		DimensionMatrix: [][]float64{{1, 0.5}, {0.5, 1}},
		MeasureKeys:     []string{"m"},
		MeasureMatrix:   [][]float64{{1}},
	}
	cube := new(mockCube)
	cube.On("Cuboid", mock.Anything).Return(nil, errors.New("storage offline"))

	engine := new(mockEngine)
	engine.On("Graph").Return(graph, nil)
	engine.On("Cube").Return(cube, nil)
	engine.On("Fields").Return([]dataset.Field{})

	e, err := New(engine, DefaultOptions(), internal.NewNopLogger())
	require.NoError(t, err)

	_, err = e.Explain(context.Background(), nil, []string{"a"}, []dataset.MeasureRef{{Key: "m", Op: dataset.OpSum}})
	assert.True(t, errors.Is(err, core.ErrNoCuboidData))
	cube.AssertCalled(t, "Cuboid", []string{"a"})
}

func TestExplain_PartialCuboidFailureIsAbsorbed(t *testing.T) {
	graph := &dataset.CorrelationGraph{
		DimensionKeys:   []string{"a", "b"},
		DimensionMatrix: [][]float64{{1, 0.5}, {0.5, 1}},
	}
	parentRows := []dataset.Row{
		{"a": dataset.String("x"), "m": dataset.Number(1)},
		{"a": dataset.String("y"), "m": dataset.Number(3)},
	}
	cube := new(mockCube)
	cube.On("Cuboid", []string{"a"}).Return(staticCuboid{rows: parentRows}, nil)
	cube.On("Cuboid", []string{"a", "b"}).Return(nil, errors.New("too wide"))

	engine := new(mockEngine)
	engine.On("Graph").Return(graph, nil)
	engine.On("Cube").Return(cube, nil)
	engine.On("Fields").Return([]dataset.Field{})

	e, err := New(engine, Options{K: 3, Threshold: 0}, internal.NewNopLogger())
	require.NoError(t, err)

	spaces, err := e.Explain(context.Background(), nil, []string{"a"}, []dataset.MeasureRef{{Key: "m", Op: dataset.OpSum}})
	require.NoError(t, err)
	assert.Empty(t, spaces)
}

type staticCuboid struct {
	rows []dataset.Row
}

func (s staticCuboid) Dimensions() []string { return nil }

func (s staticCuboid) AggregatedRows([]string, []dataset.AggregationOp) ([]dataset.Row, error) {
	return dataset.CloneRows(s.rows), nil
}
