package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/dlog/internal/model"
)

var (
	exportFormat string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json or yaml")
	exportCmd.Flags().IntVarP(&exportLimit, "limit", "l", 0, "Only export the last n entries (0 exports all)")
}

// exportRow is the CSV layout of an entry.
type exportRow struct {
	Date            string `csv:"date"`
	Activity        string `csv:"activity"`
	Project         string `csv:"project"`
	Tags            string `csv:"tags"`
	Comment         string `csv:"comment"`
	Start           string `csv:"start"`
	End             string `csv:"end"`
	DurationMinutes int64  `csv:"duration_minutes"`
}

func newExportRow(e model.Entry, t time.Time) exportRow {
	row := exportRow{
		Date:            e.Start().Format(time.DateOnly),
		Activity:        e.Activity,
		Project:         e.Project,
		Tags:            strings.Join(e.Tags, " "),
		Comment:         e.Comment,
		Start:           e.Start().Format(time.RFC3339),
		DurationMinutes: int64(e.Duration(t) / time.Minute),
	}
	if e.To != 0 {
		row.End = e.End().Format(time.RFC3339)
	}
	return row
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportLimit < 0 {
		return fmt.Errorf("invalid --limit %d: must not be negative", exportLimit)
	}
	entries, err := app.Repo.ReadAll(exportLimit)
	if err != nil {
		return err
	}
	return writeExport(cmd.OutOrStdout(), exportFormat, entries, now())
}

func writeExport(w io.Writer, format string, entries []model.Entry, t time.Time) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		rows := make([]exportRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, newExportRow(e, t))
		}
		return gocsv.Marshal(&rows, w)
	default:
		return fmt.Errorf("unknown export format %q: use csv, json or yaml", format)
	}
}
