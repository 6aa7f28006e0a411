package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wrangle/internal/core"
	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/logging"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
)

// --- Flags ---
type options struct {
	sheet    string
	logLevel string
	maxBytes int64
	output   string
	asJSON   bool
	dedupe   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "wrangle",
		Short:         "Inspect, profile and convert CSV, Excel and Parquet files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "workbook sheet to read")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().Int64Var(&opts.maxBytes, "max-bytes", 0, "reject files larger than this many bytes (0 = unlimited)")

	inspectCmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show shape, column types, missing values and the first rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	inspectCmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	profileCmd := &cobra.Command{
		Use:   "profile FILE",
		Short: "Write a standalone HTML profile report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	profileCmd.Flags().StringVarP(&opts.output, "output", "o", "", "report path (default FILE_profile.html)")
	profileCmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON instead")

	convertCmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a file to csv, xlsx or parquet, chosen by the output extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	convertCmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path")
	convertCmd.Flags().BoolVar(&opts.dedupe, "dedupe", false, "drop duplicate rows before writing")
	_ = convertCmd.MarkFlagRequired("output")

	root.AddCommand(inspectCmd, profileCmd, convertCmd)
	return root
}

func loadFile(ctx context.Context, path string, opts *options) (*table.Table, ingest.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ingest.Source{}, err
	}
	defer f.Close()

	t, src, err := ingest.Load(ctx, filepath.Base(path), f, ingest.Options{Sheet: opts.sheet, MaxBytes: opts.maxBytes})
	if err != nil {
		return nil, src, userError(err)
	}
	slog.Info("loaded", "file", path, "format", src.Format, "rows", t.NumRows(), "cols", t.NumCols())
	return t, src, nil
}

// userError adds the mapped message and action to err.
func userError(err error) error {
	msg := core.MapError(err)
	if msg.Code == "ERR000" {
		return err
	}
	return fmt.Errorf("%s. %s [%s]: %w", msg.Message, msg.Action, msg.Code, err)
}

// inspection is the JSON form of inspect output.
type inspection struct {
	Source     ingest.Source     `json:"source"`
	Rows       int               `json:"rows"`
	Cols       int               `json:"cols"`
	Columns    []core.ColumnInfo `json:"columns"`
	Duplicates int               `json:"duplicates"`
	Preview    [][]string        `json:"preview"`
}

func inspect(t *table.Table, src ingest.Source) inspection {
	rows, cols := t.Shape()
	in := inspection{Source: src, Rows: rows, Cols: cols, Duplicates: ops.DuplicateCount(t)}
	for _, c := range t.Columns() {
		in.Columns = append(in.Columns, core.ColumnInfo{Name: c.Name, Type: c.Type.String(), Nulls: c.NullCount()})
	}
	head := t.Head(core.PreviewRows)
	for i := 0; i < head.NumRows(); i++ {
		row := make([]string, head.NumCols())
		for j, c := range head.Columns() {
			row[j] = c.Format(i)
		}
		in.Preview = append(in.Preview, row)
	}
	return in
}

func runInspect(ctx context.Context, out io.Writer, path string, opts *options) error {
	t, src, err := loadFile(ctx, path, opts)
	if err != nil {
		return err
	}
	in := inspect(t, src)
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	}

	fmt.Fprintf(out, "%s (%s)\n", src.Name, describeSource(src))
	fmt.Fprintf(out, "%d rows x %d columns, %d duplicate rows\n\n", in.Rows, in.Cols, in.Duplicates)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMISSING")
	for _, c := range in.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Type, c.Nulls)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, strings.Join(t.Names(), "\t"))
	for _, row := range in.Preview {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func describeSource(src ingest.Source) string {
	switch {
	case src.Sheet != "":
		return src.Format + ", sheet " + src.Sheet
	case src.Delimiter != "":
		return src.Format + ", " + src.Delimiter + " delimited"
	}
	return src.Format
}

func runProfile(ctx context.Context, out io.Writer, path string, opts *options) error {
	t, src, err := loadFile(ctx, path, opts)
	if err != nil {
		return err
	}
	report, err := profile.Generate(t, profile.Options{Title: src.Name + " profile"})
	if err != nil {
		return userError(err)
	}
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	dest := opts.output
	if dest == "" {
		dest = strings.TrimSuffix(path, filepath.Ext(path)) + "_profile.html"
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := profile.WriteHTML(ctx, f, report); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%d alerts)\n", dest, len(report.Alerts))
	return nil
}

func runConvert(ctx context.Context, out io.Writer, path string, opts *options) error {
	format, err := ingest.DetectFormat(opts.output)
	if err != nil {
		return userError(fmt.Errorf("%w: %q", err, opts.output))
	}
	t, _, err := loadFile(ctx, path, opts)
	if err != nil {
		return err
	}
	removed := 0
	if opts.dedupe {
		t, removed = ops.DropDuplicates(t)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	if err := ingest.Write(f, t, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s: %d rows, %d columns", opts.output, t.NumRows(), t.NumCols())
	if opts.dedupe {
		fmt.Fprintf(out, ", %d duplicates removed", removed)
	}
	fmt.Fprintln(out)
	return nil
}
