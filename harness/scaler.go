package harness

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrScaleLimit is returned when the run count cannot be scaled far enough
// to clear the minimum duration. It indicates a configuration problem, such
// as a zero cost operation or a clock coarser than the floor.
var ErrScaleLimit = errors.New("run count scale limit reached")

// DefaultScaleFactor multiplies the run count after each short attempt.
const DefaultScaleFactor = 10

// Permuter is the operation under test.
type Permuter interface {
	Permute(data []uint64, rng *rand.Rand)
}

// PermuteFunc adapts a plain function to Permuter.
type PermuteFunc func(data []uint64, rng *rand.Rand)

// Permute implements Permuter.
func (f PermuteFunc) Permute(data []uint64, rng *rand.Rand) { f(data, rng) }

// Scaler grows the repeat count for a fixed input until the measured
// interval exceeds a floor. A Factor below 2 falls back to
// DefaultScaleFactor.
type Scaler struct {
	Time        TimeSource
	Factor      int
	MaxAttempts int
}

// Scale times runs back-to-back permutations of data, starting at
// initialRuns and multiplying by Factor, until the total strictly exceeds
// minDuration. The data is not reset between runs.
func (s Scaler) Scale(
	op Permuter,
	data []uint64,
	rng *rand.Rand,
	initialRuns int,
	minDuration time.Duration,
) (ScaleResult, error) {
	if initialRuns < 1 {
		return ScaleResult{}, fmt.Errorf(
			"%w: initial run count %d < 1", ErrScaleLimit, initialRuns,
		)
	}

	factor := s.Factor
	if factor < 2 {
		factor = DefaultScaleFactor
	}

	runs := initialRuns

	for attempt := 1; ; attempt++ {
		start := s.Time.Now()
		for range runs {
			op.Permute(data, rng)
		}
		total := s.Time.Now() - start

		if total > minDuration {
			return ScaleResult{Runs: runs, Total: total}, nil
		}

		if attempt >= s.MaxAttempts {
			return ScaleResult{}, fmt.Errorf(
				"%w: %d runs of %d elements took %s after %d attempts, floor is %s",
				ErrScaleLimit, runs, len(data), total, attempt, minDuration,
			)
		}

		if runs > math.MaxInt/factor {
			return ScaleResult{}, fmt.Errorf(
				"%w: run count %d would overflow", ErrScaleLimit, runs,
			)
		}

		runs *= factor
	}
}

// TimeOnce times a single permutation of data.
func (s Scaler) TimeOnce(op Permuter, data []uint64, rng *rand.Rand) time.Duration {
	start := s.Time.Now()
	op.Permute(data, rng)

	return s.Time.Now() - start
}
