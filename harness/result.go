// Package harness runs the adaptive timing loop over a sweep of input sizes
// and hands each measurement to a recording strategy.
package harness

import "time"

// Trial is one input size of the sweep.
type Trial struct {
	Size     int
	Exponent int
}

// ScaleResult is the outcome of scaling the run count for one Trial.
type ScaleResult struct {
	Runs  int
	Total time.Duration
}

// Sink receives the rows produced by a recorder. WriteHeader is called once
// before any WriteRow.
type Sink interface {
	WriteHeader(fields []string) error
	WriteRow(fields []string) error
}
