package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"valuation_engine/pkg/core/dataset"
	"valuation_engine/pkg/core/report"
)

const maxLineBytes = 4 << 20

type batchOpts struct {
	task   string
	model  string
	file   string
	format string
	xlsx   string
}

func newBatchCmd(a *app) *cobra.Command {
	o := &batchOpts{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every record of a JSON Lines file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.batch(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVar(&o.task, "task", "", "analysis task")
	cmd.Flags().StringVar(&o.model, "model", "", "prediction model (default from config)")
	cmd.Flags().StringVar(&o.file, "file", "-", "JSON Lines file, one dataset per line, - for stdin")
	cmd.Flags().StringVar(&o.format, "format", "json", "output format: json or table")
	cmd.Flags().StringVar(&o.xlsx, "xlsx", "", "also write results to this spreadsheet")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func (a *app) batch(w io.Writer, o *batchOpts) error {
	records, err := readRecords(o.file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results := a.engine.AnalyzeBatch(ctx, o.task, o.model, records)

	entries := make([]report.Entry, len(results))
	failed := 0
	for i, res := range results {
		entries[i] = report.Entry{AnalysisID: uuid.NewString(), Task: o.task, Result: res}
		if res.Failed() {
			failed++
		}
		if err := write(w, o.format, entries[i]); err != nil {
			return err
		}
	}
	a.log.Info().Int("records", len(results)).Int("failed", failed).Msg("batch complete")

	if o.xlsx != "" {
		if err := report.WriteXLSX(o.xlsx, entries); err != nil {
			return err
		}
		a.log.Info().Str("path", o.xlsx).Msg("spreadsheet written")
	}
	return nil
}

// readRecords decodes one dataset per non-blank line.
func readRecords(path string) ([]dataset.Dataset, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var records []dataset.Dataset
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		ds, _, err := dataset.Decode([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, ds)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}
