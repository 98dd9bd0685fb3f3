package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"insightminer/adapters/analytics"
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/internal/explain"
	"insightminer/internal/report"
)

type explainFlags struct {
	source       sourceFlags
	viewDims     []string
	viewMeasures []string
	filters      []string
	k            int
	threshold    float64
	format       string
}

func newExplainCmd(root *rootOptions) *cobra.Command {
	f := &explainFlags{}
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain the current view of a dataset",
		Long: `Build the analytics engine over a dataset and explain the current view.

The view is given by --view-dimensions and --view-measures (key or key:op,
op one of sum|count|mean|min|max). Selections are given with repeated
--filter key=value[,value...] flags.

Example: insightminer explain --demo students --view-dimensions age --view-measures height:sum --filter age=18`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, root, f)
		},
	}
	f.source.register(cmd)
	cmd.Flags().StringSliceVar(&f.viewDims, "view-dimensions", nil, "dimensions of the current view")
	cmd.Flags().StringSliceVar(&f.viewMeasures, "view-measures", nil, "measures of the current view as key[:op]")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "selection as key=value[,value...] (repeatable)")
	cmd.Flags().IntVar(&f.k, "k", 0, "neighbors per strategy (default from config)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", -1, "minimum significance (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "json", "output format: json|markdown")
	return cmd
}

func runExplain(cmd *cobra.Command, root *rootOptions, f *explainFlags) error {
	ctx := cmd.Context()
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	if f.format != "json" && f.format != "markdown" {
		return fmt.Errorf("unknown format %q", f.format)
	}

	data, err := f.source.load(ctx, cfg, logger)
	if err != nil {
		return err
	}
	measures, err := parseMeasures(f.viewMeasures)
	if err != nil {
		return err
	}
	filters, err := parseFilters(f.filters)
	if err != nil {
		return err
	}

	opts := cfg.ExplainOptions()
	if f.k > 0 {
		opts.K = f.k
	}
	if f.threshold >= 0 {
		opts.Threshold = f.threshold
	}

	engine, err := analytics.Build(ctx, data.rows, data.dimensions, data.measures, cfg.BuildOptions(), logger)
	if err != nil {
		return err
	}
	ex, err := explain.New(engine, opts, logger)
	if err != nil {
		return err
	}
	resp, err := ex.Respond(ctx, explain.Query{Dimensions: f.viewDims, Measures: measures, Filters: filters})
	if err != nil {
		return err
	}

	return writeResponse(cmd.OutOrStdout(), f.format, report.Report{
		Title:       "Explanations for " + data.name,
		Source:      data.name,
		GeneratedAt: time.Now(),
		View:        insight.CurrentSpace{Dimensions: f.viewDims, Measures: dataset.MeasureKeys(measures)},
		Response:    resp,
	})
}

func writeResponse(w io.Writer, format string, rep report.Report) error {
	if format == "markdown" {
		_, err := io.WriteString(w, rep.Markdown())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep.Response)
}

func parseMeasures(raw []string) ([]dataset.MeasureRef, error) {
	out := make([]dataset.MeasureRef, 0, len(raw))
	for _, r := range raw {
		m, err := dataset.ParseMeasureRef(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// parseFilters reads key=v1,v2 flags; values are typed like file cells
func parseFilters(raw []string) (map[string][]dataset.Value, error) {
	out := make(map[string][]dataset.Value, len(raw))
	for _, r := range raw {
		key, values, ok := strings.Cut(r, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("filter %q must look like key=value[,value...]", r)
		}
		for _, v := range strings.Split(values, ",") {
			out[key] = append(out[key], dataset.ParseValue(strings.TrimSpace(v)))
		}
	}
	return out, nil
}
