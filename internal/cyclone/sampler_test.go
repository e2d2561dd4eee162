package cyclone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricampos/WW3-tools/internal/domain"
)

func testRaster() *domain.CycloneRaster {
	return &domain.CycloneRaster{
		Lats:  []float64{0, 1},
		Lons:  []float64{10, 11},
		Times: []float64{0, 10800, 21600},
		Codes: [][][]float64{
			{{-1, 0}, {1, 2}},
			{{3, -1}, {-1, 4}},
			{{5, 5}, {5, 5}},
		},
		Legend: []string{"no cyclone", "cyclone within 500km"},
	}
}

func TestSample(t *testing.T) {
	s := New(testRaster(), domain.CycloneTolerance)

	t.Run("closest slice within tolerance", func(t *testing.T) {
		// 9000 is 1800s from slice 1 and 9000s from slice 0.
		assert.Equal(t, 3.0, s.Sample(9000, 0, 0))
	})

	t.Run("negative code means no storm", func(t *testing.T) {
		assert.True(t, domain.IsMissing(s.Sample(0, 0, 0)))
		assert.True(t, domain.IsMissing(s.Sample(10800, 0, 1)))
	})

	t.Run("no slice within tolerance means no data", func(t *testing.T) {
		assert.True(t, domain.IsMissing(s.Sample(1e7, 0, 0)))
		_, ok := s.SliceIndex(1e7)
		assert.False(t, ok)
	})

	t.Run("tolerance boundary is exclusive", func(t *testing.T) {
		_, ok := s.SliceIndex(21600 + 5400)
		assert.False(t, ok)
		_, ok = s.SliceIndex(21600 + 5399)
		assert.True(t, ok)
	})

	t.Run("resolved slice readable cell by cell", func(t *testing.T) {
		k, ok := s.SliceIndex(21000)
		require.True(t, ok)
		assert.Equal(t, 2, k)
		assert.Equal(t, 5.0, s.At(k, 1, 1))
	})
}

func TestNewDefaultsTolerance(t *testing.T) {
	s := New(testRaster(), 0)
	assert.Equal(t, 3.0, s.Sample(9000, 0, 0))
	assert.Equal(t, []string{"no cyclone", "cyclone within 500km"}, s.Legend())
}
