package ports

import (
	"context"

	"insightminer/domain/dataset"
)

// AnalyticsEngine is the read side consumed by the explain core.
// Implementations are safe for concurrent readers once built.
type AnalyticsEngine interface {
	Fields() []dataset.Field
	Graph() (*dataset.CorrelationGraph, error)
	Cube() (Cube, error)
}

// AnalyticsBuilder adds the session setup operations. These run once per
// dataset or field declaration, never concurrently with explain calls.
type AnalyticsBuilder interface {
	AnalyticsEngine

	SetDataset(rows []dataset.Row) AnalyticsBuilder
	SetDimensionFields(keys []string) AnalyticsBuilder
	SetMeasureFields(keys []string) AnalyticsBuilder
	BuildCorrelationGraph() error
	ClusterFields(threshold float64) ([]FieldCluster, error)
	BuildSubspaces(maxDimensions, maxMeasures int) ([]Subspace, error)
	BuildCube(ctx context.Context) error
	Subspaces() []Subspace
	Dataset() []dataset.Row
}

// Cube hands out aggregations of the dataset by dimension subset.
type Cube interface {
	Cuboid(dimensions []string) (Cuboid, error)
}

// Cuboid aggregates one dimension subset. Returned rows are snapshots that the
// caller owns.
type Cuboid interface {
	Dimensions() []string
	AggregatedRows(measures []string, ops []dataset.AggregationOp) ([]dataset.Row, error)
}

// FieldCluster is a connected group of strongly associated fields of one role.
type FieldCluster struct {
	Role dataset.FieldRole `json:"role"`
	Keys []string          `json:"keys"`
}

// Subspace is a candidate dimension/measure combination drawn from clusters.
type Subspace struct {
	Dimensions []string `json:"dimensions"`
	Measures   []string `json:"measures"`
}
