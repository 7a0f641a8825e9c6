package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"valuation_engine/pkg/core/config"
	"valuation_engine/pkg/core/dispatch"
	"valuation_engine/pkg/core/logging"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	configPath string
	engine     *dispatch.Dispatcher
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "engine",
		Short:         "Run financial analyses from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(a.configPath)
			if err != nil {
				return err
			}
			a.log = logging.New(cfg.Logging)
			a.engine = dispatch.NewFromConfig(cfg, prometheus.NewRegistry(), a.log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv(config.PathEnv), "path to engine.yaml")

	root.AddCommand(newAnalyzeCmd(a), newBatchCmd(a))
	return root
}

// openInput opens a file, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
