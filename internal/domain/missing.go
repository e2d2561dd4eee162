package domain

import "math"

// Missing returns the missing-value sentinel.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// MeanValid returns the mean of the non-missing values in vals, or missing
// when none are valid.
func MeanValid(vals []float64) float64 {
	var sum float64
	var n int
	for _, v := range vals {
		if IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Missing()
	}
	return sum / float64(n)
}
