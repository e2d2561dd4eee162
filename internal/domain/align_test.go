package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignWindow(t *testing.T) {
	t.Run("includes pairs inside the tolerance", func(t *testing.T) {
		a := []float64{0, 3600, 7200}
		b := []float64{100, 3500, 10000}
		pairs := AlignWindow(a, b, 1800)
		assert.Equal(t, []Pair{{A: 0, B: 0}, {A: 1, B: 1}}, pairs)
	})

	t.Run("boundary is strictly exclusive", func(t *testing.T) {
		pairs := AlignWindow([]float64{0}, []float64{1800}, 1800)
		assert.Empty(t, pairs)

		pairs = AlignWindow([]float64{0}, []float64{1799.999}, 1800)
		assert.Len(t, pairs, 1)
	})

	t.Run("no match is empty, not an error", func(t *testing.T) {
		assert.Empty(t, AlignWindow([]float64{0}, []float64{1e9}, 1800))
		assert.Empty(t, AlignWindow(nil, nil, 1800))
	})

	t.Run("one element can match several counterparts", func(t *testing.T) {
		pairs := AlignWindow([]float64{3600}, []float64{3000, 3600, 4200}, 1800)
		assert.Equal(t, []Pair{{A: 0, B: 0}, {A: 0, B: 1}, {A: 0, B: 2}}, pairs)
	})
}

func TestWithin(t *testing.T) {
	times := []float64{0, 900, 1800, 2700}
	assert.Equal(t, []int{0, 1, 2}, Within(times, 500, 1500))
	assert.Equal(t, []int{0, 1}, Within(times, 500, 1300))
	assert.Empty(t, Within(times, 1e6, 1800))
}

func TestIntersect(t *testing.T) {
	t.Run("exact common timestamps matched one to one", func(t *testing.T) {
		a := []float64{0, 3600, 7200, 10800}
		b := []float64{3600, 10800, 99999}
		pairs := Intersect(a, b)
		assert.Equal(t, []Pair{{A: 1, B: 0}, {A: 3, B: 1}}, pairs)
	})

	t.Run("near misses are not matched", func(t *testing.T) {
		assert.Empty(t, Intersect([]float64{3600}, []float64{3601}))
	})

	t.Run("duplicates collapse to first indices", func(t *testing.T) {
		pairs := Intersect([]float64{100, 100, 200}, []float64{200, 100, 100})
		assert.Equal(t, []Pair{{A: 0, B: 1}, {A: 2, B: 0}}, pairs)
	})
}

func TestNearest(t *testing.T) {
	times := []float64{0, 3600, 7200}

	t.Run("closest of several candidates wins", func(t *testing.T) {
		j, ok := Nearest(times, 3000, 5400)
		assert.True(t, ok)
		assert.Equal(t, 1, j)
	})

	t.Run("outside tolerance means no data", func(t *testing.T) {
		_, ok := Nearest(times, 50000, 5400)
		assert.False(t, ok)
	})

	t.Run("boundary is exclusive", func(t *testing.T) {
		_, ok := Nearest([]float64{5400}, 0, 5400)
		assert.False(t, ok)
	})

	t.Run("tie goes to the earlier slice", func(t *testing.T) {
		j, ok := Nearest([]float64{0, 7200}, 3600, 5400)
		assert.True(t, ok)
		assert.Equal(t, 0, j)
	})
}
