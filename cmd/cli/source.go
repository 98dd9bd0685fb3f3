package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"insightminer/adapters/excel"
	"insightminer/adapters/postgres"
	"insightminer/domain/dataset"
	"insightminer/internal"
	"insightminer/internal/config"
	"insightminer/internal/testkit"
	"insightminer/ports"
)

// sourceFlags select where the dataset comes from
type sourceFlags struct {
	file        string
	sheet       string
	sql         string
	table       string
	databaseURL string
	demo        string
	dimensions  []string
	measures    []string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "file", "", "dataset file (.xlsx or .csv)")
	cmd.Flags().StringVar(&s.sheet, "sheet", "", "xlsx sheet name (default: first sheet)")
	cmd.Flags().StringVar(&s.sql, "sql", "", "SQL query returning the dataset")
	cmd.Flags().StringVar(&s.table, "table", "", "database table holding the dataset")
	cmd.Flags().StringVar(&s.databaseURL, "database-url", "", "Postgres URL (overrides config)")
	cmd.Flags().StringVar(&s.demo, "demo", "", "built-in dataset: students|retail")
	cmd.Flags().StringSliceVar(&s.dimensions, "dimensions", nil, "declared dimension fields")
	cmd.Flags().StringSliceVar(&s.measures, "measures", nil, "declared measure fields")
}

// loaded is a dataset with its declared fields
type loaded struct {
	name       string
	rows       []dataset.Row
	dimensions []string
	measures   []string
}

// load reads the dataset. Demo datasets bring their own field declaration
// when none is given.
func (s *sourceFlags) load(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*loaded, error) {
	if s.demo != "" {
		return s.loadDemo()
	}

	var src ports.RowSource
	switch {
	case s.file != "":
		src = excel.NewDataReader(s.file, logger).WithSheet(s.sheet)
	case s.sql != "" || s.table != "":
		url := s.databaseURL
		if url == "" {
			url = cfg.Database.URL
		}
		db, err := postgres.Connect(ctx, url)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if s.sql != "" {
			src = postgres.NewQuerySource(db, s.sql, logger)
		} else {
			src = postgres.NewTableSource(db, s.table, nil, logger)
		}
	default:
		return nil, fmt.Errorf("one of --file, --sql, --table or --demo is required")
	}

	rows, err := src.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	if len(s.dimensions) == 0 && len(s.measures) == 0 {
		return nil, fmt.Errorf("declare fields with --dimensions and --measures")
	}
	return &loaded{name: src.Name(), rows: rows, dimensions: s.dimensions, measures: s.measures}, nil
}

func (s *sourceFlags) loadDemo() (*loaded, error) {
	var l loaded
	switch strings.ToLower(s.demo) {
	case "students":
		l = loaded{name: "students", rows: testkit.Students(), dimensions: testkit.StudentDimensions(), measures: testkit.StudentMeasures()}
	case "retail":
		gen := testkit.NewRetailDataGenerator(testkit.DefaultRetailConfig())
		rows, err := gen.GenerateRows()
		if err != nil {
			return nil, err
		}
		l = loaded{name: "retail", rows: rows, dimensions: gen.Dimensions(), measures: gen.Measures()}
	default:
		return nil, fmt.Errorf("unknown demo dataset %q", s.demo)
	}
	if len(s.dimensions) > 0 || len(s.measures) > 0 {
		l.dimensions, l.measures = s.dimensions, s.measures
	}
	return &l, nil
}
