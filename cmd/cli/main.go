package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"insightminer/internal"
	"insightminer/internal/config"
)

type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "insightminer",
		Short:         "Explain what stands out in an aggregated view of a dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "ERROR|WARN|INFO|DEBUG|TRACE (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "console|json (overrides config)")

	rootCmd.AddCommand(
		newExplainCmd(opts),
		newFieldsCmd(opts),
	)
	return rootCmd
}

// load reads the configuration and builds the logger
func (o *rootOptions) load() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, cfg.NewLogger(), nil
}
