// Package report renders analysis results for terminals and spreadsheets.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"

	"valuation_engine/pkg/core/dispatch"
)

// Entry is one analysis outcome with its identifiers.
type Entry struct {
	AnalysisID string
	Task       string
	Result     dispatch.Result
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	variantColor = color.New(color.FgCyan)
)

// Field is one flattened key path and its formatted value.
type Field struct {
	Key   string
	Value string
}

// Flatten turns a nested result into dotted key paths in sorted order. Numeric
// lists are joined on one line; lists of records are indexed.
func Flatten(res map[string]any) []Field {
	var out []Field
	flattenInto(&out, "", res)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func flattenInto(out *[]Field, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flattenInto(out, join(prefix, k), child)
		}
	case dispatch.Result:
		flattenInto(out, prefix, map[string]any(t))
	case []any:
		if isScalarList(t) {
			parts := make([]string, len(t))
			for i, item := range t {
				parts[i] = formatScalar(item)
			}
			*out = append(*out, Field{Key: prefix, Value: strings.Join(parts, ", ")})
			return
		}
		for i, item := range t {
			flattenInto(out, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	default:
		*out = append(*out, Field{Key: prefix, Value: formatScalar(t)})
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func isScalarList(items []any) bool {
	for _, it := range items {
		switch it.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// WriteTable prints one result as a two-column table.
func WriteTable(w io.Writer, e Entry) error {
	fmt.Fprintf(w, "%s  %s  %s\n", e.Task, variantColor.Sprint(e.Result[dispatch.KeyVariant]), e.AnalysisID)
	if msg, ok := e.Result[dispatch.KeyError]; ok {
		_, err := errorColor.Fprintf(w, "error: %v\n", msg)
		return err
	}
	if reason, ok := e.Result[dispatch.KeyDegradationReason]; ok {
		warnColor.Fprintf(w, "degraded: %v\n", reason)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	var rows [][]string
	for _, f := range Flatten(e.Result) {
		if f.Key == dispatch.KeyVariant || f.Key == dispatch.KeyDegradationReason || f.Key == dispatch.KeyDegradedFrom {
			continue
		}
		rows = append(rows, []string{f.Key, f.Value})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// SheetName is the worksheet holding batch results.
const SheetName = "Results"

var leadingColumns = []string{"analysis_id", "task", dispatch.KeyVariant, dispatch.KeyError}

// WriteXLSX saves a batch as a spreadsheet with one row per result and one
// column per flattened field.
func WriteXLSX(path string, entries []Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	flat := make([]map[string]string, len(entries))
	seen := map[string]bool{}
	var fields []string
	for i, e := range entries {
		flat[i] = map[string]string{}
		for _, fl := range Flatten(e.Result) {
			flat[i][fl.Key] = fl.Value
			if !seen[fl.Key] && !isLeading(fl.Key) {
				seen[fl.Key] = true
				fields = append(fields, fl.Key)
			}
		}
	}
	sort.Strings(fields)
	header := append(append([]string(nil), leadingColumns...), fields...)

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		row := []any{e.AnalysisID, e.Task, flat[i][dispatch.KeyVariant], flat[i][dispatch.KeyError]}
		for _, k := range fields {
			row = append(row, cellValue(flat[i][k]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func isLeading(key string) bool {
	for _, c := range leadingColumns {
		if c == key {
			return true
		}
	}
	return false
}

// cellValue stores numbers as numbers so spreadsheet formulas work.
func cellValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
