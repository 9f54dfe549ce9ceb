package quiz

import "math/rand/v2"

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it, which lets tests pin a seed.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

func sourceOrDefault(src Source) Source {
	if src == nil {
		return globalSource{}
	}
	return src
}

// Shuffle permutes s in place with Fisher–Yates, walking from the last
// index down to 1 and swapping with a uniform pick from [0, i].
func Shuffle[T any](s []T, src Source) {
	src = sourceOrDefault(src)
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Permutation returns a shuffled identity permutation of length n.
func Permutation(n int, src Source) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	Shuffle(p, src)
	return p
}
