// Package main provides the CLI entry point for shufbench, an adaptive
// benchmark harness for in-place shuffle algorithms.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/weiihann/shufbench/config"
	"github.com/weiihann/shufbench/harness"
	"github.com/weiihann/shufbench/report"
	"github.com/weiihann/shufbench/results"
	"github.com/weiihann/shufbench/shuffle"
	"github.com/weiihann/shufbench/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := newLogger(os.Stderr, level)

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger writes text logs to terminals and JSON logs otherwise.
func newLogger(w io.Writer, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "shufbench",
		Short: "Adaptive benchmark harness for in-place shuffles",
		Long: `Shufbench times an in-place permutation over a sweep of power-of-two
input sizes, scaling the repeat count per size until the measured interval
clears a minimum duration, and writes the results as CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		newRunCmd(logger),
		newReportCmd(),
		newListCmd(),
	)

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath string
		flagCfg    = config.Default()
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the size sweep and write a CSV result file",
		Long: `Sweep input sizes 2^min-exp through 2^max-exp (inclusive) and time the
selected operation. In aggregate mode one row per size holds the scaled run
count and total runtime; in per-run mode every run is written separately
after one discarded warm-up run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, configPath, flagCfg)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, cfg, runDeps{
				clock: results.SystemClock{},
				time:  harness.NewMonotonicTime(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "",
		"YAML config file; flags set explicitly override its values")
	flags.StringVar(&flagCfg.Mode, "mode", flagCfg.Mode,
		"Recording mode: aggregate, per-run")
	flags.StringVar(&flagCfg.Function, "function", flagCfg.Function,
		"Operation under test: "+strings.Join(shuffle.Names(), ", "))
	flags.StringVar(&flagCfg.PRNG, "prng", flagCfg.PRNG,
		"Random source: "+strings.Join(workload.Sources(), ", "))
	flags.Uint64Var(&flagCfg.Seed, "seed", flagCfg.Seed,
		"Random seed (0 = use current time)")
	flags.IntVar(&flagCfg.BucketCount, "buckets", flagCfg.BucketCount,
		"Number of scatter buckets")
	flags.IntVar(&flagCfg.BaseCaseThreshold, "threshold", flagCfg.BaseCaseThreshold,
		"Input size below which the scatter shuffle falls back to Fisher-Yates "+
			"(scatter_shuffle requires threshold >= buckets)")
	flags.IntVar(&flagCfg.MinExponent, "min-exp", flagCfg.MinExponent,
		"Smallest size exponent")
	flags.IntVar(&flagCfg.MaxExponent, "max-exp", flagCfg.MaxExponent,
		"Largest size exponent (inclusive)")
	flags.IntVar(&flagCfg.DefaultRunCount, "default-runs", flagCfg.DefaultRunCount,
		"Initial run count for aggregate mode")
	flags.DurationVar(&flagCfg.MinDuration, "min-duration", flagCfg.MinDuration,
		"Total runtime a size must exceed in aggregate mode")
	flags.IntVar(&flagCfg.MaxScaleAttempts, "max-scale-attempts", flagCfg.MaxScaleAttempts,
		"Timed attempts before giving up on reaching min-duration")
	flags.IntVar(&flagCfg.Runs, "runs", flagCfg.Runs,
		"Recorded runs per size in per-run mode")
	flags.StringVar(&flagCfg.OutputDir, "output-dir", flagCfg.OutputDir,
		"Directory for result files (must exist)")
	flags.BoolVar(&flagCfg.Metadata, "metadata", flagCfg.Metadata,
		"Write a JSON metadata file next to the CSV")

	return cmd
}

// resolveConfig layers explicitly set flags over the config file, or over
// the defaults when no file is given.
func resolveConfig(
	cmd *cobra.Command,
	configPath string,
	flagCfg config.Config,
) (config.Config, error) {
	if configPath == "" {
		return flagCfg, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]func(){
		"mode":               func() { cfg.Mode = flagCfg.Mode },
		"function":           func() { cfg.Function = flagCfg.Function },
		"prng":               func() { cfg.PRNG = flagCfg.PRNG },
		"seed":               func() { cfg.Seed = flagCfg.Seed },
		"buckets":            func() { cfg.BucketCount = flagCfg.BucketCount },
		"threshold":          func() { cfg.BaseCaseThreshold = flagCfg.BaseCaseThreshold },
		"min-exp":            func() { cfg.MinExponent = flagCfg.MinExponent },
		"max-exp":            func() { cfg.MaxExponent = flagCfg.MaxExponent },
		"default-runs":       func() { cfg.DefaultRunCount = flagCfg.DefaultRunCount },
		"min-duration":       func() { cfg.MinDuration = flagCfg.MinDuration },
		"max-scale-attempts": func() { cfg.MaxScaleAttempts = flagCfg.MaxScaleAttempts },
		"runs":               func() { cfg.Runs = flagCfg.Runs },
		"output-dir":         func() { cfg.OutputDir = flagCfg.OutputDir },
		"metadata":           func() { cfg.Metadata = flagCfg.Metadata },
	}

	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	return cfg, nil
}

type runDeps struct {
	clock results.Clock
	time  harness.TimeSource
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	deps runDeps,
) (err error) {
	// Everything that can be rejected is checked before the output file
	// exists.
	if err = cfg.Validate(); err != nil {
		return err
	}

	op, err := shuffle.New(cfg.Function, cfg.BucketCount, cfg.BaseCaseThreshold)
	if err != nil {
		return err
	}

	seed := workload.ResolveSeed(cfg.Seed)

	rng, err := workload.NewSource(cfg.PRNG, seed)
	if err != nil {
		return err
	}

	rec, err := harness.NewRecorder(cfg.Mode)
	if err != nil {
		return err
	}

	started := deps.clock.Now()
	name := results.IdentifierAt(started, cfg.BucketCount, cfg.BaseCaseThreshold)
	path := filepath.Join(cfg.OutputDir, name)

	sink, err := results.Create(path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	meta := results.NewMetadata(cfg, path, seed, started)
	logger = logger.With(slog.String("run_id", meta.RunID))

	logger.InfoContext(ctx, "writing results",
		slog.String("path", path),
		slog.Uint64("seed", seed),
		slog.String("prng", cfg.PRNG),
	)

	driver := harness.NewDriver(cfg, op, rng, deps.time, logger)

	// Rows already written reach the file even when the operation panics.
	// The panic is re-raised once the output and metadata are closed out.
	defer func() {
		recovered := recover()

		if closeErr := sink.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close output: %w", closeErr))
		}

		if cfg.Metadata {
			meta.Rows = driver.Rows()
			meta.FinishedAt = deps.clock.Now()

			switch {
			case recovered != nil:
				meta.Error = fmt.Sprintf("panic: %v", recovered)
			case err != nil:
				meta.Error = err.Error()
			}

			metaPath := filepath.Join(cfg.OutputDir, results.MetadataName(name))
			if metaErr := results.WriteMetadata(metaPath, meta); metaErr != nil {
				err = errors.Join(err, metaErr)
			}
		}

		if recovered != nil {
			logger.ErrorContext(ctx, "benchmark panicked",
				slog.Int("rows", driver.Rows()),
				slog.Any("error", err),
			)
			panic(recovered)
		}

		if err != nil {
			err = fmt.Errorf("benchmark %s: %w", path, err)

			return
		}

		logger.InfoContext(ctx, "benchmark complete",
			slog.Int("rows", driver.Rows()),
			slog.Duration("elapsed", deps.clock.Now().Sub(started)),
		)
	}()

	_, err = driver.Run(ctx, sink, rec)

	return err
}

func newReportCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "report <results.csv>",
		Short: "Render a result file as a markdown table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open results: %w", err)
			}
			defer f.Close()

			table, err := report.Load(f)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}

			if outputJSON {
				return report.GenerateJSON(cmd.OutOrStdout(), table)
			}

			return report.Generate(cmd.OutOrStdout(), table)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of markdown")

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available operations and random sources",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "operations:")
			for _, name := range shuffle.Names() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			fmt.Fprintln(out, "random sources:")
			for _, name := range workload.Sources() {
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}
}
