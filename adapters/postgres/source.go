package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"insightminer/domain/dataset"
	"insightminer/internal"
	"insightminer/internal/errors"
)

// Connect opens and pings a Postgres database
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("database URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

// QuerySource loads a dataset from the result set of one query. Every
// column becomes a field; NUMERIC and integer columns become numbers.
type QuerySource struct {
	db     *sqlx.DB
	query  string
	args   []interface{}
	name   string
	logger *internal.Logger
}

// NewQuerySource creates a source running query with args
func NewQuerySource(db *sqlx.DB, query string, logger *internal.Logger, args ...interface{}) *QuerySource {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &QuerySource{db: db, query: query, args: args, name: "query", logger: logger.Named("postgres")}
}

// NewTableSource creates a source selecting columns (all when empty) of table
func NewTableSource(db *sqlx.DB, table string, columns []string, logger *internal.Logger) *QuerySource {
	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		cols = strings.Join(quoted, ", ")
	}
	src := NewQuerySource(db, fmt.Sprintf("SELECT %s FROM %s", cols, quoteTable(table)), logger)
	src.name = table
	return src
}

// quoteTable quotes a possibly schema-qualified table name
func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// Name describes the source
func (s *QuerySource) Name() string {
	return s.name
}

// Query returns the SQL the source runs
func (s *QuerySource) Query() string {
	return s.query
}

// ReadRows runs the query and converts every row
func (s *QuerySource) ReadRows(ctx context.Context) ([]dataset.Row, error) {
	rows, err := s.db.QueryxContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, errors.DatabaseError("failed to run dataset query", describe(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read result columns", err)
	}

	var out []dataset.Row
	for rows.Next() {
		raw := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(raw); err != nil {
			return nil, errors.DatabaseError("failed to scan dataset row", err)
		}
		row := make(dataset.Row, len(columns))
		for _, c := range columns {
			row[c] = dataset.FromAny(raw[c])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate dataset rows", describe(err))
	}
	s.logger.Debug("%s: %d rows, %d columns", s.name, len(out), len(columns))
	return out, nil
}

// describe adds the SQLSTATE of server errors
func describe(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pqErr.Message, pqErr.Code, err)
	}
	return err
}
