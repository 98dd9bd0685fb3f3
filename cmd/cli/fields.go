package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"insightminer/adapters/analytics"
	"insightminer/domain/dataset"
	"insightminer/ports"
)

type fieldsFlags struct {
	source           sourceFlags
	clusterThreshold float64
	format           string
}

type fieldsOutput struct {
	Fields    []dataset.Field      `json:"fields"`
	Types     []dataset.FieldType  `json:"fieldSemanticTypes"`
	Clusters  []ports.FieldCluster `json:"clusters"`
	Subspaces []ports.Subspace     `json:"subspaces"`
}

func newFieldsCmd(root *rootOptions) *cobra.Command {
	f := &fieldsFlags{}
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Summarize declared fields, their clusters and subspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			data, err := f.source.load(ctx, cfg, logger)
			if err != nil {
				return err
			}
			build := cfg.BuildOptions()
			if f.clusterThreshold > 0 {
				build.ClusterThreshold = f.clusterThreshold
			}
			engine, err := analytics.Build(ctx, data.rows, data.dimensions, data.measures, build, logger)
			if err != nil {
				return err
			}
			clusters, err := engine.ClusterFields(build.ClusterThreshold)
			if err != nil {
				return err
			}
			out := fieldsOutput{
				Fields:    engine.Fields(),
				Types:     analytics.SemanticTypes(engine.Fields()),
				Clusters:  clusters,
				Subspaces: engine.Subspaces(),
			}

			if f.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tROLE\tTYPE\tCARDINALITY")
			for _, fld := range out.Fields {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", fld.Key, fld.Role, fld.SemanticType, fld.Cardinality)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nclusters (|corr| >= %.2f):\n", build.ClusterThreshold)
			for _, c := range out.Clusters {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", c.Role, strings.Join(c.Keys, ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d subspaces\n", len(out.Subspaces))
			for _, s := range out.Subspaces {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] x [%s]\n", strings.Join(s.Dimensions, ", "), strings.Join(s.Measures, ", "))
			}
			return nil
		},
	}
	f.source.register(cmd)
	cmd.Flags().Float64Var(&f.clusterThreshold, "cluster-threshold", 0, "correlation threshold for clusters (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "table", "output format: table|json")
	return cmd
}
