package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/shufbench/config"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		buckets   int
		threshold int
		want      string
	}{
		{
			name:      "zero padded",
			at:        time.Date(2024, time.March, 5, 7, 8, 9, 0, time.Local),
			buckets:   4,
			threshold: 256,
			want:      "20240305-070809-nb=4-th=256-r.csv",
		},
		{
			name:      "two digit fields",
			at:        time.Date(2023, time.December, 31, 23, 59, 58, 999, time.Local),
			buckets:   16,
			threshold: 1024,
			want:      "20231231-235958-nb=16-th=1024-r.csv",
		},
		{
			name:      "short year",
			at:        time.Date(987, time.January, 1, 0, 0, 0, 0, time.Local),
			buckets:   2,
			threshold: 2,
			want:      "09870101-000000-nb=2-th=2-r.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identifier(fixedClock(tt.at), tt.buckets, tt.threshold)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, IdentifierAt(tt.at, tt.buckets, tt.threshold))
		})
	}
}

func TestIdentifierIdempotent(t *testing.T) {
	clock := fixedClock(time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local))

	assert.Equal(t, Identifier(clock, 4, 256), Identifier(clock, 4, 256))
}

// steppingClock moves one second forward on every reading.
type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)

	return c.now
}

func TestIdentifierAtUsesGivenInstant(t *testing.T) {
	clock := &steppingClock{now: time.Date(2024, time.March, 5, 7, 8, 8, 0, time.Local)}
	started := clock.Now()

	// Later clock readings must not leak into a name built from started.
	_ = clock.Now()

	assert.Equal(t, "20240305-070809-nb=4-th=256-r.csv", IdentifierAt(started, 4, 256))
	assert.Equal(t, "20240305-070811-nb=4-th=256-r.csv", Identifier(clock, 4, 256))
}

func TestMetadataName(t *testing.T) {
	assert.Equal(t,
		"20240305-070809-nb=4-th=256-r.json",
		MetadataName("20240305-070809-nb=4-th=256-r.csv"),
	)
}

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	sink, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteHeader([]string{"integers", "runtime"}))
	require.NoError(t, sink.WriteRow([]string{"1", "10"}))
	require.NoError(t, sink.WriteRow([]string{"2", "20"}))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"integers", "runtime"},
		{"1", "10"},
		{"2", "20"},
	}, records)
}

func TestCSVSinkHeaderState(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCSVSink(&buf)

	err := sink.WriteRow([]string{"1"})
	assert.True(t, errors.Is(err, ErrHeaderState), "row before header")

	require.NoError(t, sink.WriteHeader([]string{"a", "b"}))

	err = sink.WriteHeader([]string{"a", "b"})
	assert.True(t, errors.Is(err, ErrHeaderState), "second header")

	assert.Error(t, sink.WriteRow([]string{"only one"}))
	require.NoError(t, sink.Close())
	assert.Equal(t, "a,b\n", buf.String())
}

func TestCSVSinkFlushOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCSVSink(&buf)

	require.NoError(t, sink.WriteHeader([]string{"a"}))
	require.NoError(t, sink.WriteRow([]string{"1"}))
	assert.Empty(t, buf.String(), "rows are buffered until flushed")

	require.NoError(t, sink.Close())
	assert.Equal(t, "a\n1\n", buf.String())
}

func TestCreateMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := Create(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, statErr := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr), "directory must not be created")
}

func TestWriteMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	started := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	m := NewMetadata(config.Default(), "run.csv", 42, started)
	m.Rows = 30
	m.FinishedAt = started.Add(time.Minute)

	_, err := uuid.Parse(m.RunID)
	require.NoError(t, err)

	require.NoError(t, WriteMetadata(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed Metadata
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, m.RunID, parsed.RunID)
	assert.Equal(t, 30, parsed.Rows)
	assert.Equal(t, uint64(42), parsed.Seed)
	assert.Equal(t, config.Default(), parsed.Config)
	assert.True(t, m.FinishedAt.Equal(parsed.FinishedAt))
	assert.NotEmpty(t, parsed.Host.GoVersion)
}
