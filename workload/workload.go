// Package workload materializes the input sequences and random sources the
// benchmark feeds into the operation under test.
package workload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrUnknownSource is returned by NewSource for unsupported generator names.
var ErrUnknownSource = errors.New("unknown random source")

const (
	PCG     = "pcg"
	ChaCha8 = "chacha8"
)

// Sources returns the supported random source names.
func Sources() []string {
	return []string{ChaCha8, PCG}
}

// ResolveSeed returns seed, or a time derived seed when seed is zero.
func ResolveSeed(seed uint64) uint64 {
	if seed == 0 {
		return uint64(time.Now().UnixNano())
	}

	return seed
}

// NewSource creates the named deterministic generator from seed.
func NewSource(name string, seed uint64) (*rand.Rand, error) {
	switch name {
	case PCG:
		return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), nil

	case ChaCha8:
		var key [32]byte
		for i := 0; i < len(key); i += 8 {
			binary.LittleEndian.PutUint64(key[i:], seed+uint64(i))
		}

		return rand.New(rand.NewChaCha8(key)), nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSource, name)
	}
}

// Sequence returns a fresh slice holding 0..n-1.
func Sequence(n int) []uint64 {
	data := make([]uint64, n)
	fill(data)

	return data
}

// Grow returns buf resliced to n elements holding 0..n-1, reallocating only
// when buf is too small.
func Grow(buf []uint64, n int) []uint64 {
	if cap(buf) < n {
		buf = make([]uint64, n)
	}

	buf = buf[:n]
	fill(buf)

	return buf
}

func fill(data []uint64) {
	for i := range data {
		data[i] = uint64(i)
	}
}
