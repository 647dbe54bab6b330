package shuffle

import "math/rand/v2"

// Scatter is a sequential in-place scatter shuffle. Inputs shorter than
// Threshold are shuffled with Fisher-Yates; longer inputs are split into
// Buckets random buckets which are then shuffled recursively.
type Scatter struct {
	Buckets   int
	Threshold int
}

// Name implements Operation.
func (Scatter) Name() string { return ScatterName }

// Permute implements Operation.
func (s Scatter) Permute(data []uint64, rng *rand.Rand) {
	n := len(data)
	if n == 0 {
		return
	}

	if n < s.Threshold || n < s.Buckets {
		fisherYates(data, rng)

		return
	}

	k := s.Buckets
	buckets := make([]bucket, k)

	for i := range buckets {
		begin := n * i / k
		buckets[i] = bucket{begin: begin, staged: begin, end: n * (i + 1) / k}
	}

	roughScatter(data, buckets, rng)
	fineScatter(data, buckets, rng)

	for _, b := range buckets {
		s.Permute(data[b.begin:b.end], rng)
	}
}

// bucket tracks one bucket of the scatter. Items in [begin, staged) are
// placed, items in [staged, end) are still waiting for a target bucket.
type bucket struct {
	begin  int
	staged int
	end    int
}

func (b bucket) total() int  { return b.end - b.begin }
func (b bucket) placed() int { return b.staged - b.begin }

// roughScatter assigns the next unplaced item of the first bucket to a
// uniformly drawn bucket until one bucket is full.
func roughScatter(data []uint64, buckets []bucket, rng *rand.Rand) {
	k := len(buckets)

	for {
		j := rng.IntN(k)
		if j != 0 {
			s0, sj := buckets[0].staged, buckets[j].staged
			data[s0], data[sj] = data[sj], data[s0]
		}

		buckets[j].staged++
		if buckets[j].staged == buckets[j].end {
			return
		}
	}
}

// fineScatter distributes the items left unplaced by roughScatter.
func fineScatter(data []uint64, buckets []bucket, rng *rand.Rand) {
	k := len(buckets)
	final := make([]int, k)

	staged := 0
	for i, b := range buckets {
		final[i] = b.placed()
		staged += b.end - b.staged
	}

	// Multinomial split of the staged items over the buckets.
	for range staged {
		final[rng.IntN(k)]++
	}

	// Left to right: shrink buckets that are too large, keeping enough room
	// for the growth still needed further left.
	growthNeededLeft := 0
	for i := 0; i+1 < k; i++ {
		target := final[i] + max(growthNeededLeft, 0)

		for buckets[i].total() > target {
			a, b := buckets[i].end-1, buckets[i+1].staged-1
			data[a], data[b] = data[b], data[a]

			buckets[i].end--
			buckets[i+1].begin--
			buckets[i+1].staged--
		}

		growthNeededLeft += final[i] - buckets[i].total()
	}

	// Right to left: hand surplus back to the left neighbour.
	for i := k - 1; i > 0; i-- {
		for buckets[i].total() > final[i] {
			a, b := buckets[i].begin, buckets[i].staged
			data[a], data[b] = data[b], data[a]

			buckets[i].staged++
			buckets[i].begin++
			buckets[i-1].end++
		}
	}

	// Gather the staged items at the front, shuffle them, and move them back.
	moved := make([]int, 0, staged)
	pos := 0

	for _, b := range buckets {
		for l := b.staged; l < b.end; l++ {
			data[pos], data[l] = data[l], data[pos]
			moved = append(moved, l)
			pos++
		}
	}

	fisherYates(data[:len(moved)], rng)

	for i := len(moved) - 1; i >= 0; i-- {
		pos--
		l := moved[i]
		data[pos], data[l] = data[l], data[pos]
	}
}
