package shuffle

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []uint64 {
	data := make([]uint64, n)
	for i := range data {
		data[i] = uint64(i)
	}

	return data
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func allOperations() []Operation {
	return []Operation{
		FisherYates{},
		StdShuffle{},
		Scatter{Buckets: 4, Threshold: 256},
		Scatter{Buckets: 2, Threshold: 2},
		Scatter{Buckets: 8, Threshold: 16},
	}
}

func TestPermuteIsPermutation(t *testing.T) {
	for _, op := range allOperations() {
		for _, n := range []int{0, 1, 2, 3, 17, 255, 256, 1000, 4096} {
			data := seq(n)
			op.Permute(data, newRand(uint64(n)))

			slices.Sort(data)
			assert.Equal(t, seq(n), data, "%s n=%d", op.Name(), n)
		}
	}
}

func TestPermuteDeterministic(t *testing.T) {
	for _, op := range allOperations() {
		a, b := seq(2048), seq(2048)
		op.Permute(a, newRand(42))
		op.Permute(b, newRand(42))

		assert.Equal(t, a, b, op.Name())
		assert.NotEqual(t, seq(2048), a, op.Name())
	}
}

func TestScatterPositionsUniform(t *testing.T) {
	const (
		n      = 8
		trials = 40000
	)

	op := Scatter{Buckets: 2, Threshold: 2}
	rng := newRand(7)

	var counts [n][n]int

	for range trials {
		data := seq(n)
		op.Permute(data, rng)

		for pos, v := range data {
			counts[v][pos]++
		}
	}

	// Expected 5000 per cell with a standard deviation of about 66.
	for v := range n {
		for pos := range n {
			assert.InDelta(t, trials/n, counts[v][pos], 500,
				"value %d at position %d", v, pos)
		}
	}
}

func TestNew(t *testing.T) {
	op, err := New(ScatterName, 8, 512)
	require.NoError(t, err)
	assert.Equal(t, Scatter{Buckets: 8, Threshold: 512}, op)

	op, err = New(FisherYatesName, 8, 512)
	require.NoError(t, err)
	assert.Equal(t, FisherYatesName, op.Name())

	_, err = New("bogo_sort", 4, 256)
	assert.True(t, errors.Is(err, ErrUnknownOperation))
}

func TestNames(t *testing.T) {
	assert.Equal(t,
		[]string{FisherYatesName, ScatterName, StdShuffleName},
		Names(),
	)

	for _, name := range Names() {
		assert.True(t, Known(name))
	}

	assert.False(t, Known(""))
}
