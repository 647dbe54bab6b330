package harness

import "iter"

// Sweep yields one Trial per exponent in [minExp, maxExp], both ends
// included, smallest size first.
func Sweep(minExp, maxExp int) iter.Seq[Trial] {
	return func(yield func(Trial) bool) {
		for exp := minExp; exp <= maxExp; exp++ {
			if !yield(Trial{Size: 1 << exp, Exponent: exp}) {
				return
			}
		}
	}
}
