package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"valuation_engine/pkg/api/analysis"
	"valuation_engine/pkg/core/dataset"
	"valuation_engine/pkg/core/report"
)

type analyzeOpts struct {
	task   string
	model  string
	file   string
	format string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	o := &analyzeOpts{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one JSON dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.analyze(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVar(&o.task, "task", "", "analysis task, e.g. \"DCF\" or \"Risk Mitigation\"")
	cmd.Flags().StringVar(&o.model, "model", "", "prediction model (default from config)")
	cmd.Flags().StringVar(&o.file, "file", "-", "JSON dataset file, - for stdin")
	cmd.Flags().StringVar(&o.format, "format", "json", "output format: json or table")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func (a *app) analyze(w io.Writer, o *analyzeOpts) error {
	in, err := openInput(o.file)
	if err != nil {
		return err
	}
	defer in.Close()
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	ds, strategy, err := dataset.Decode(body)
	if err != nil {
		return err
	}
	a.log.Debug().Str("strategy", string(strategy)).Int("fields", len(ds)).Msg("dataset decoded")

	entry := report.Entry{
		AnalysisID: uuid.NewString(),
		Task:       o.task,
		Result:     a.engine.Analyze(context.Background(), o.task, o.model, ds),
	}
	return write(w, o.format, entry)
}

func write(w io.Writer, format string, e report.Entry) error {
	switch format {
	case "table":
		return report.WriteTable(w, e)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis.AnalyzeResponse{AnalysisID: e.AnalysisID, Task: e.Task, Result: e.Result})
	}
	return fmt.Errorf("unknown format %q", format)
}
