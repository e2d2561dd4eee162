package domain

import (
	"math"
	"sort"
)

// Default time tolerances, in seconds. The tight window pairs model and
// observation samples directly; the loose window associates a cyclone raster
// slice with a model timestep, reflecting the raster's coarser cadence.
const (
	ModelObsTolerance = 1800.0
	CycloneTolerance  = 5400.0
)

// Pair links an index into series A with an index into series B.
type Pair struct {
	A int
	B int
}

// AlignWindow returns every (i, j) with |a[i]-b[j]| < tol, ordered by i then
// j. The boundary is strictly exclusive: a gap of exactly tol does not
// match. An empty result is not an error.
func AlignWindow(a, b []float64, tol float64) []Pair {
	var pairs []Pair
	for i, at := range a {
		for _, j := range Within(b, at, tol) {
			pairs = append(pairs, Pair{A: i, B: j})
		}
	}
	return pairs
}

// Within returns the indices j with |times[j]-t| < tol, in input order.
func Within(times []float64, t, tol float64) []int {
	var idx []int
	for j, tj := range times {
		if math.Abs(tj-t) < tol {
			idx = append(idx, j)
		}
	}
	return idx
}

// Intersect returns one pair per timestamp value present in both series:
// the first index in a and the first index in b holding that value, ordered
// by ascending timestamp. This is the exact 1:1 policy used to select which
// model timesteps participate in field matching; within-tolerance candidate
// gathering then happens around each selected timestep.
func Intersect(a, b []float64) []Pair {
	firstB := make(map[float64]int, len(b))
	for j := len(b) - 1; j >= 0; j-- {
		firstB[b[j]] = j
	}
	firstA := make(map[float64]int, len(a))
	var common []float64
	for i, v := range a {
		if _, dup := firstA[v]; dup {
			continue
		}
		firstA[v] = i
		if _, ok := firstB[v]; ok {
			common = append(common, v)
		}
	}
	sort.Float64s(common)
	pairs := make([]Pair, len(common))
	for k, v := range common {
		pairs[k] = Pair{A: firstA[v], B: firstB[v]}
	}
	return pairs
}

// Nearest returns the index of the element of times closest to t, provided
// it lies strictly within tol. When several qualify the closest wins, ties
// going to the earlier element.
func Nearest(times []float64, t, tol float64) (int, bool) {
	best := -1
	bestDiff := tol
	for j, tj := range times {
		if d := math.Abs(tj - t); d < bestDiff {
			best = j
			bestDiff = d
		}
	}
	return best, best >= 0
}
