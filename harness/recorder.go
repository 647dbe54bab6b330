package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/weiihann/shufbench/config"
	"github.com/weiihann/shufbench/workload"
)

// Recorder measures one trial and writes its rows.
type Recorder interface {
	Header() []string
	Record(ctx context.Context, trial Trial, b *Bench, sink Sink) error
}

// NewRecorder returns the recorder for a config mode.
func NewRecorder(mode string) (Recorder, error) {
	switch mode {
	case config.ModeAggregate:
		return &Aggregate{}, nil
	case config.ModePerRun:
		return &PerRun{}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// AggregateHeader lists the columns written by Aggregate.
var AggregateHeader = []string{
	"function", "prng", "buckets", "threshold", "min_exp",
	"max_exp", "integers", "total_runs", "total_runtime",
}

// Aggregate writes one row per trial holding the scaled run count and the
// total time of those runs. The working sequence is a single buffer resliced
// to each size.
type Aggregate struct {
	buf []uint64
}

// Header implements Recorder.
func (a *Aggregate) Header() []string { return AggregateHeader }

// Record implements Recorder.
func (a *Aggregate) Record(ctx context.Context, trial Trial, b *Bench, sink Sink) error {
	a.buf = workload.Grow(a.buf, trial.Size)

	res, err := b.Scale(a.buf, b.Config.DefaultRunCount)
	if err != nil {
		return err
	}

	cfg := b.Config
	if err := sink.WriteRow([]string{
		cfg.Function,
		cfg.PRNG,
		strconv.Itoa(cfg.BucketCount),
		strconv.Itoa(cfg.BaseCaseThreshold),
		strconv.Itoa(cfg.MinExponent),
		strconv.Itoa(cfg.MaxExponent),
		strconv.Itoa(trial.Size),
		strconv.Itoa(res.Runs),
		strconv.FormatInt(res.Total.Nanoseconds(), 10),
	}); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	b.Logger.InfoContext(ctx, "size measured",
		slog.Int("size", trial.Size),
		slog.Int("runs", res.Runs),
		slog.Int64("runtime_ns", res.Total.Nanoseconds()),
	)

	return nil
}

// PerRunHeader lists the columns written by PerRun.
var PerRunHeader = []string{
	"buckets", "threshold", "run", "integers", "runtime",
}

// PerRun times Config.Runs single permutations per trial, each on a freshly
// allocated sequence. An extra warm-up run with index 0 is timed first and
// never written.
type PerRun struct{}

// Header implements Recorder.
func (PerRun) Header() []string { return PerRunHeader }

// Record implements Recorder.
func (PerRun) Record(ctx context.Context, trial Trial, b *Bench, sink Sink) error {
	cfg := b.Config

	for run := 0; run <= cfg.Runs; run++ {
		data := workload.Sequence(trial.Size)
		elapsed := b.TimeOnce(data)

		b.Logger.InfoContext(ctx, "run measured",
			slog.Int("size", trial.Size),
			slog.Int("run", run),
			slog.Int64("runtime_ns", elapsed.Nanoseconds()),
		)

		if run == 0 {
			continue
		}

		if err := sink.WriteRow([]string{
			strconv.Itoa(cfg.BucketCount),
			strconv.Itoa(cfg.BaseCaseThreshold),
			strconv.Itoa(run),
			strconv.Itoa(trial.Size),
			strconv.FormatInt(elapsed.Nanoseconds(), 10),
		}); err != nil {
			return fmt.Errorf("write row %d: %w", run, err)
		}
	}

	return nil
}
