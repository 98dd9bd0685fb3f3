// Package analytics is the in-process analytics engine: field summaries, the
// correlation graph, field clusters, subspaces and a memoized cube.
package analytics

import (
	"context"
	"fmt"
	"sync"

	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/internal"
	"insightminer/ports"
)

// Engine implements ports.AnalyticsBuilder. Setup calls invalidate the built
// graph and cube; readers take the read lock.
type Engine struct {
	mu         sync.RWMutex
	rows       []dataset.Row
	dimensions []string
	measures   []string
	fields     []dataset.Field
	graph      *dataset.CorrelationGraph
	cube       *cube
	clusters   []ports.FieldCluster
	subspaces  []ports.Subspace
	logger     *internal.Logger
}

var _ ports.AnalyticsBuilder = (*Engine)(nil)

// NewEngine creates an empty engine
func NewEngine(logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{logger: logger.Named("analytics")}
}

// SetDataset replaces the dataset. The rows are copied.
func (e *Engine) SetDataset(rows []dataset.Row) ports.AnalyticsBuilder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = dataset.CloneRows(rows)
	e.invalidate()
	return e
}

// SetDimensionFields declares the grouping fields
func (e *Engine) SetDimensionFields(keys []string) ports.AnalyticsBuilder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dimensions = append([]string(nil), keys...)
	e.invalidate()
	return e
}

// SetMeasureFields declares the aggregated fields
func (e *Engine) SetMeasureFields(keys []string) ports.AnalyticsBuilder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.measures = append([]string(nil), keys...)
	e.invalidate()
	return e
}

func (e *Engine) invalidate() {
	e.fields = summarizeFields(e.rows, e.dimensions, e.measures)
	e.graph = nil
	e.cube = nil
	e.clusters = nil
	e.subspaces = nil
}

// Fields returns the declared fields with cardinality and semantic type
func (e *Engine) Fields() []dataset.Field {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]dataset.Field(nil), e.fields...)
}

// Dataset returns the rows the engine was built from. Callers must not modify them.
func (e *Engine) Dataset() []dataset.Row {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rows
}

// BuildCorrelationGraph computes the dimension and measure association matrices
func (e *Engine) BuildCorrelationGraph() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkDeclared(); err != nil {
		return core.NewEngineFaultError("graph", err)
	}
	e.graph = buildGraph(e.rows, e.dimensions, e.measures)
	e.logger.Debug("correlation graph built: %d dimensions, %d measures over %d rows",
		len(e.dimensions), len(e.measures), len(e.rows))
	return nil
}

// Graph returns the built correlation graph
func (e *Engine) Graph() (*dataset.CorrelationGraph, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.graph == nil {
		return nil, core.ErrGraphUnavailable
	}
	return e.graph, nil
}

// ClusterFields groups strongly associated fields of each role
func (e *Engine) ClusterFields(threshold float64) ([]ports.FieldCluster, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil, core.ErrGraphUnavailable
	}
	clusters := clusterRole(e.graph, dataset.RoleDimension, threshold)
	clusters = append(clusters, clusterRole(e.graph, dataset.RoleMeasure, threshold)...)
	e.clusters = clusters
	e.logger.Debug("clustered fields at threshold %.2f into %d groups", threshold, len(clusters))
	return append([]ports.FieldCluster(nil), clusters...), nil
}

// BuildSubspaces enumerates view combinations within clusters. Fields are
// treated as one cluster per role when ClusterFields was not called.
func (e *Engine) BuildSubspaces(maxDimensions, maxMeasures int) ([]ports.Subspace, error) {
	if maxDimensions <= 0 || maxMeasures <= 0 {
		return nil, fmt.Errorf("subspace bounds must be positive, got %d dimensions and %d measures", maxDimensions, maxMeasures)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var dimClusters, meaClusters []ports.FieldCluster
	for _, c := range e.clusters {
		if c.Role == dataset.RoleDimension {
			dimClusters = append(dimClusters, c)
		} else {
			meaClusters = append(meaClusters, c)
		}
	}
	if e.clusters == nil {
		dimClusters = []ports.FieldCluster{{Role: dataset.RoleDimension, Keys: e.dimensions}}
		meaClusters = []ports.FieldCluster{{Role: dataset.RoleMeasure, Keys: e.measures}}
	}

	subspaces, truncated := enumerateSubspaces(dimClusters, meaClusters, maxDimensions, maxMeasures)
	if truncated {
		e.logger.Warn("subspace enumeration truncated at %d entries", len(subspaces))
	}
	e.subspaces = subspaces
	return append([]ports.Subspace(nil), subspaces...), nil
}

// Subspaces returns the last enumerated subspaces
func (e *Engine) Subspaces() []ports.Subspace {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]ports.Subspace(nil), e.subspaces...)
}

// BuildCube creates the cube and materializes the sum aggregation of every
// known subspace.
func (e *Engine) BuildCube(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkDeclared(); err != nil {
		return core.NewEngineFaultError("cube", err)
	}
	c := newCube(e.rows, e.dimensions, e.measures)
	for _, s := range e.subspaces {
		if err := ctx.Err(); err != nil {
			return err
		}
		cb, err := c.Cuboid(s.Dimensions)
		if err != nil {
			return core.NewEngineFaultError("cube", err)
		}
		ops := make([]dataset.AggregationOp, len(s.Measures))
		for i := range ops {
			ops[i] = dataset.OpSum
		}
		if _, err := cb.AggregatedRows(s.Measures, ops); err != nil {
			return core.NewEngineFaultError("cube", err)
		}
	}
	e.cube = c
	e.logger.Debug("cube built with %d cuboids", c.cuboidCount())
	return nil
}

// Cube returns the built cube
func (e *Engine) Cube() (ports.Cube, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cube == nil {
		return nil, core.ErrCubeUnavailable
	}
	return e.cube, nil
}

// checkDeclared verifies fields are declared and the dataset is non-empty
func (e *Engine) checkDeclared() error {
	if len(e.rows) == 0 {
		return fmt.Errorf("%w: dataset has no rows", core.ErrEmptyInput)
	}
	if len(e.dimensions) == 0 && len(e.measures) == 0 {
		return fmt.Errorf("%w: no fields declared", core.ErrEmptyInput)
	}
	return nil
}

// Build runs the full setup sequence on a fresh engine.
func Build(ctx context.Context, rows []dataset.Row, dimensions, measures []string, opts BuildOptions, logger *internal.Logger) (*Engine, error) {
	e := NewEngine(logger)
	e.SetDataset(rows).SetDimensionFields(dimensions).SetMeasureFields(measures)
	if err := e.BuildCorrelationGraph(); err != nil {
		return nil, err
	}
	if opts.ClusterThreshold > 0 {
		if _, err := e.ClusterFields(opts.ClusterThreshold); err != nil {
			return nil, err
		}
	}
	if opts.MaxDimensions > 0 && opts.MaxMeasures > 0 {
		if _, err := e.BuildSubspaces(opts.MaxDimensions, opts.MaxMeasures); err != nil {
			return nil, err
		}
	}
	if err := e.BuildCube(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// BuildOptions bounds the optional setup steps of Build. Zero values skip them.
type BuildOptions struct {
	ClusterThreshold float64
	MaxDimensions    int
	MaxMeasures      int
}

// DefaultBuildOptions clusters at 0.3 and enumerates views of up to three
// dimensions and two measures.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{ClusterThreshold: 0.3, MaxDimensions: 3, MaxMeasures: 2}
}
