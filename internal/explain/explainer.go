// Package explain generates ranked, explained candidate views for a current
// view over an analytics engine.
package explain

import (
	"fmt"

	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/internal"
	"insightminer/internal/neighbors"
	"insightminer/ports"
)

// Options tune candidate generation.
type Options struct {
	// K is the number of neighbor fields tried per strategy.
	K int
	// Threshold drops insight spaces whose significance is below it.
	Threshold float64
	// SelectorThreshold drops neighbor fields whose association is below it.
	SelectorThreshold float64
}

// DefaultOptions mirrors the explain section of the default configuration.
func DefaultOptions() Options {
	return Options{K: 5, Threshold: 0.8}
}

// Explainer runs the insight strategies against one built engine. It holds no
// per-call state and can serve concurrent calls.
type Explainer struct {
	graph    *dataset.CorrelationGraph
	cube     ports.Cube
	fields   []dataset.Field
	selector *neighbors.Selector
	opts     Options
	logger   *internal.Logger
}

// New binds an explainer to the engine's graph and cube. A missing graph or
// cube is an engine fault.
func New(engine ports.AnalyticsEngine, opts Options, logger *internal.Logger) (*Explainer, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	graph, err := engine.Graph()
	if err != nil {
		return nil, fmt.Errorf("explainer: %w", err)
	}
	cube, err := engine.Cube()
	if err != nil {
		return nil, fmt.Errorf("explainer: %w", err)
	}
	fields := engine.Fields()
	logger = logger.Named("explain")
	return &Explainer{
		graph:    graph,
		cube:     cube,
		fields:   fields,
		selector: neighbors.NewSelector(graph, fields, logger),
		opts:     opts,
		logger:   logger,
	}, nil
}

// Options returns the options the explainer was built with.
func (e *Explainer) Options() Options { return e.opts }

// Fields returns the engine's field summary.
func (e *Explainer) Fields() []dataset.Field { return e.fields }

// tally counts cuboid retrievals within one call.
type tally struct {
	fetched int
	failed  int
}

// err reports ErrNoCuboidData when every attempted retrieval failed.
func (t *tally) err() error {
	if t.fetched == 0 && t.failed > 0 {
		return fmt.Errorf("%w (%d attempts)", core.ErrNoCuboidData, t.failed)
	}
	return nil
}

// rows fetches the aggregated rows of dimensions for measures, with measure
// cells named by dataset.CellKeys. Failures are counted and logged; the caller
// skips the candidate.
func (e *Explainer) rows(dimensions []string, measures []dataset.MeasureRef, t *tally) ([]dataset.Row, error) {
	cb, err := e.cube.Cuboid(dimensions)
	if err == nil {
		var rows []dataset.Row
		rows, err = cb.AggregatedRows(dataset.MeasureKeys(measures), dataset.MeasureOps(measures))
		if err == nil {
			t.fetched++
			return rows, nil
		}
	}
	t.failed++
	e.logger.Warn("cuboid %v for %v unavailable: %v", dimensions, measures, err)
	return nil, err
}
