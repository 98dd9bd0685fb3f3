package ports

import (
	"context"

	"insightminer/domain/dataset"
)

// RowSource loads a dataset from an external store
type RowSource interface {
	ReadRows(ctx context.Context) ([]dataset.Row, error)
	// Name describes the source for logs and reports
	Name() string
}
