// Package shuffle provides the in-place permutation routines measured by the
// benchmark harness.
package shuffle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

// ErrUnknownOperation is returned by New for names not in the registry.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation permutes a sequence in place using the given random source.
type Operation interface {
	Name() string
	Permute(data []uint64, rng *rand.Rand)
}

const (
	FisherYatesName = "fisher_yates"
	StdShuffleName  = "std_shuffle"
	ScatterName     = "scatter_shuffle"
)

type factory func(buckets, threshold int) Operation

var registry = map[string]factory{
	FisherYatesName: func(int, int) Operation { return FisherYates{} },
	StdShuffleName:  func(int, int) Operation { return StdShuffle{} },
	ScatterName: func(buckets, threshold int) Operation {
		return Scatter{Buckets: buckets, Threshold: threshold}
	},
}

// Names returns the registered operation names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Known reports whether name is a registered operation.
func Known(name string) bool {
	_, ok := registry[name]

	return ok
}

// New returns the operation registered under name. The bucket count and
// threshold are only used by the scatter shuffle.
func New(name string, buckets, threshold int) (Operation, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownOperation, name)
	}

	return f(buckets, threshold), nil
}

// FisherYates is the textbook in-place shuffle.
type FisherYates struct{}

// Name implements Operation.
func (FisherYates) Name() string { return FisherYatesName }

// Permute implements Operation.
func (FisherYates) Permute(data []uint64, rng *rand.Rand) {
	fisherYates(data, rng)
}

func fisherYates(data []uint64, rng *rand.Rand) {
	for i := len(data) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		data[i], data[j] = data[j], data[i]
	}
}

// StdShuffle delegates to (*rand.Rand).Shuffle.
type StdShuffle struct{}

// Name implements Operation.
func (StdShuffle) Name() string { return StdShuffleName }

// Permute implements Operation.
func (StdShuffle) Permute(data []uint64, rng *rand.Rand) {
	rng.Shuffle(len(data), func(i, j int) {
		data[i], data[j] = data[j], data[i]
	})
}
