package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrHeaderState is returned when the header is written twice or a row is
// written before the header.
var ErrHeaderState = errors.New("csv header state")

// CSVSink writes one header followed by data rows. Close flushes before
// releasing the underlying stream.
type CSVSink struct {
	w       *csv.Writer
	closer  io.Closer
	columns int
}

// Create opens path for writing. It does not create missing directories.
func Create(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	return NewCSVSink(f), nil
}

// NewCSVSink wraps w. If w is an io.Closer it is closed by Close.
func NewCSVSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}

	return s
}

// WriteHeader writes the column names. It must be called exactly once,
// before any row.
func (s *CSVSink) WriteHeader(fields []string) error {
	if s.columns != 0 {
		return fmt.Errorf("%w: header already written", ErrHeaderState)
	}

	if len(fields) == 0 {
		return fmt.Errorf("%w: empty header", ErrHeaderState)
	}

	if err := s.w.Write(fields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	s.columns = len(fields)

	return nil
}

// WriteRow appends one row with as many fields as the header.
func (s *CSVSink) WriteRow(fields []string) error {
	if s.columns == 0 {
		return fmt.Errorf("%w: row before header", ErrHeaderState)
	}

	if len(fields) != s.columns {
		return fmt.Errorf("row has %d fields, header has %d",
			len(fields), s.columns)
	}

	if err := s.w.Write(fields); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	return nil
}

// Flush writes buffered rows to the underlying stream.
func (s *CSVSink) Flush() error {
	s.w.Flush()

	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}

// Close flushes and then closes the underlying stream. The stream is closed
// even when the flush fails.
func (s *CSVSink) Close() error {
	err := s.Flush()

	if s.closer != nil {
		if cerr := s.closer.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close: %w", cerr))
		}

		s.closer = nil
	}

	return err
}
