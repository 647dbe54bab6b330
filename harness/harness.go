package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/weiihann/shufbench/config"
)

// Bench bundles the capabilities a Recorder needs to measure one trial.
type Bench struct {
	Config config.Config
	Logger *slog.Logger

	op     Permuter
	rng    *rand.Rand
	scaler Scaler
}

// Scale runs the adaptive timing loop on data using the configured floor.
func (b *Bench) Scale(data []uint64, initialRuns int) (ScaleResult, error) {
	return b.scaler.Scale(b.op, data, b.rng, initialRuns, b.Config.MinDuration)
}

// TimeOnce times a single permutation of data.
func (b *Bench) TimeOnce(data []uint64) time.Duration {
	return b.scaler.TimeOnce(b.op, data, b.rng)
}

// Driver walks the size sweep and feeds every trial to a Recorder.
type Driver struct {
	bench *Bench
	rows  int
}

// NewDriver creates a Driver for a validated config. The random source is
// shared by every run of the sweep.
func NewDriver(
	cfg config.Config,
	op Permuter,
	rng *rand.Rand,
	ts TimeSource,
	logger *slog.Logger,
) *Driver {
	return &Driver{
		bench: &Bench{
			Config: cfg,
			Logger: logger.With(slog.String("function", cfg.Function)),
			op:     op,
			rng:    rng,
			scaler: Scaler{
				Time:        ts,
				Factor:      DefaultScaleFactor,
				MaxAttempts: cfg.MaxScaleAttempts,
			},
		},
	}
}

// Run writes rec's header to sink and records every trial of the sweep in
// ascending size order. It returns the number of data rows written. The
// first error aborts the sweep; the sink is left for the caller to close.
func (d *Driver) Run(ctx context.Context, sink Sink, rec Recorder) (int, error) {
	cfg := d.bench.Config
	d.rows = 0
	counter := &countingSink{Sink: sink, rows: &d.rows}

	if err := sink.WriteHeader(rec.Header()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	d.bench.Logger.InfoContext(ctx, "starting benchmark",
		slog.Int("buckets", cfg.BucketCount),
		slog.Int("threshold", cfg.BaseCaseThreshold),
		slog.String("mode", cfg.Mode),
		slog.Int("min_exp", cfg.MinExponent),
		slog.Int("max_exp", cfg.MaxExponent),
	)

	for trial := range Sweep(cfg.MinExponent, cfg.MaxExponent) {
		d.bench.Logger.InfoContext(ctx, "setting size",
			slog.Int("size", trial.Size),
			slog.Int("exp", trial.Exponent),
		)

		if err := rec.Record(ctx, trial, d.bench, counter); err != nil {
			return d.rows, fmt.Errorf("size %d: %w", trial.Size, err)
		}
	}

	return d.rows, nil
}

// Rows reports the data rows written so far by the current or most recent
// Run. It stays accurate when Run unwinds through a panic.
func (d *Driver) Rows() int {
	return d.rows
}

type countingSink struct {
	Sink
	rows *int
}

func (c *countingSink) WriteRow(fields []string) error {
	if err := c.Sink.WriteRow(fields); err != nil {
		return err
	}

	*c.rows++

	return nil
}
