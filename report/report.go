// Package report renders benchmark CSV files as markdown tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/weiihann/shufbench/config"
	"github.com/weiihann/shufbench/harness"
)

// AggregateRow is one row of an aggregate mode file.
type AggregateRow struct {
	Function  string `json:"function"`
	PRNG      string `json:"prng"`
	Buckets   int    `json:"buckets"`
	Threshold int    `json:"threshold"`
	MinExp    int    `json:"min_exp"`
	MaxExp    int    `json:"max_exp"`
	Size      int    `json:"integers"`
	Runs      int    `json:"total_runs"`
	TotalNs   int64  `json:"total_runtime"`
}

// RunRow is one row of a per-run mode file.
type RunRow struct {
	Buckets   int   `json:"buckets"`
	Threshold int   `json:"threshold"`
	Run       int   `json:"run"`
	Size      int   `json:"integers"`
	RuntimeNs int64 `json:"runtime"`
}

// Table holds the parsed rows of one result file. Only the slice matching
// Mode is populated.
type Table struct {
	Mode      string         `json:"mode"`
	Aggregate []AggregateRow `json:"aggregate,omitempty"`
	Runs      []RunRow       `json:"runs,omitempty"`
}

// Load parses a result CSV, detecting its mode from the header.
func Load(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty result file")
	}

	header, rows := records[0], records[1:]

	switch {
	case slices.Equal(header, harness.AggregateHeader):
		t := &Table{Mode: config.ModeAggregate}
		for i, rec := range rows {
			row, err := parseAggregate(rec)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			t.Aggregate = append(t.Aggregate, row)
		}

		return t, nil

	case slices.Equal(header, harness.PerRunHeader):
		t := &Table{Mode: config.ModePerRun}
		for i, rec := range rows {
			row, err := parseRun(rec)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			t.Runs = append(t.Runs, row)
		}

		return t, nil

	default:
		return nil, fmt.Errorf("unrecognized header %v", header)
	}
}

func parseAggregate(rec []string) (AggregateRow, error) {
	var p parser

	row := AggregateRow{
		Function:  rec[0],
		PRNG:      rec[1],
		Buckets:   p.parseInt(rec[2]),
		Threshold: p.parseInt(rec[3]),
		MinExp:    p.parseInt(rec[4]),
		MaxExp:    p.parseInt(rec[5]),
		Size:      p.parseInt(rec[6]),
		Runs:      p.parseInt(rec[7]),
		TotalNs:   p.parseInt64(rec[8]),
	}

	return row, p.err
}

func parseRun(rec []string) (RunRow, error) {
	var p parser

	row := RunRow{
		Buckets:   p.parseInt(rec[0]),
		Threshold: p.parseInt(rec[1]),
		Run:       p.parseInt(rec[2]),
		Size:      p.parseInt(rec[3]),
		RuntimeNs: p.parseInt64(rec[4]),
	}

	return row, p.err
}

// parser keeps the first conversion error.
type parser struct {
	err error
}

func (p *parser) parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil && p.err == nil {
		p.err = err
	}

	return v
}

func (p *parser) parseInt(s string) int {
	return int(p.parseInt64(s))
}

// Generate writes a markdown table for t.
func Generate(w io.Writer, t *Table) error {
	switch t.Mode {
	case config.ModeAggregate:
		return generateAggregate(w, t.Aggregate)
	case config.ModePerRun:
		return generatePerRun(w, t.Runs)
	default:
		return fmt.Errorf("unknown mode %q", t.Mode)
	}
}

func generateAggregate(w io.Writer, rows []AggregateRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("no results to report")
	}

	first := rows[0]

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Function: **%s**, PRNG: **%s**, buckets: %d, threshold: %d\n",
		first.Function, first.PRNG, first.Buckets, first.Threshold)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Size | Runs | Total | Per Run | Per Element |")
	fmt.Fprintln(w, "|------|------|-------|---------|-------------|")

	for _, r := range rows {
		perRun, perElem := "-", "-"
		if r.Runs > 0 {
			ns := float64(r.TotalNs) / float64(r.Runs)
			perRun = formatNs(ns)
			if r.Size > 0 {
				perElem = formatNs(ns / float64(r.Size))
			}
		}

		fmt.Fprintf(w, "| %d | %d | %s | %s | %s |\n",
			r.Size, r.Runs, formatNs(float64(r.TotalNs)), perRun, perElem)
	}

	return nil
}

func generatePerRun(w io.Writer, rows []RunRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("no results to report")
	}

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Buckets: %d, threshold: %d\n", rows[0].Buckets, rows[0].Threshold)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Size | Run | Runtime | Per Element |")
	fmt.Fprintln(w, "|------|-----|---------|-------------|")

	for _, r := range rows {
		perElem := "-"
		if r.Size > 0 {
			perElem = formatNs(float64(r.RuntimeNs) / float64(r.Size))
		}

		fmt.Fprintf(w, "| %d | %d | %s | %s |\n",
			r.Size, r.Run, formatNs(float64(r.RuntimeNs)), perElem)
	}

	return nil
}

// GenerateJSON writes t as JSON to w.
func GenerateJSON(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(t)
}

func formatNs(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.2fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2fµs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2fms", ns/1e6)
	default:
		return fmt.Sprintf("%.2fs", ns/1e9)
	}
}
