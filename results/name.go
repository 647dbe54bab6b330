// Package results persists benchmark rows as CSV and names the output
// files.
package results

import (
	"fmt"
	"strings"
	"time"
)

// Clock supplies the wall-clock instant used to name an output file.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Identifier returns the output file name for a run started at clock.Now().
func Identifier(clock Clock, buckets, threshold int) string {
	return IdentifierAt(clock.Now(), buckets, threshold)
}

// IdentifierAt returns the output file name for a run started at t:
// YYYYMMDD-HHMMSS-nb=<buckets>-th=<threshold>-r.csv.
func IdentifierAt(t time.Time, buckets, threshold int) string {
	return fmt.Sprintf("%04d%02d%02d-%02d%02d%02d-nb=%d-th=%d-r.csv",
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
		buckets, threshold,
	)
}

// MetadataName returns the sidecar file name that accompanies a CSV
// identifier.
func MetadataName(identifier string) string {
	return strings.TrimSuffix(identifier, ".csv") + ".json"
}
