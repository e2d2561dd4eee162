// Package cyclone samples storm-presence codes from a prepared cyclone
// raster onto model timesteps.
package cyclone

import (
	"github.com/ricampos/WW3-tools/internal/domain"
)

// Sampler resolves the raster slice nearest in time to a query timestamp,
// within the loose cyclone tolerance. Missing coverage for a timestep is a
// normal condition, not an error: the raster series is coarser than the
// model and has gaps between storm seasons.
type Sampler struct {
	raster *domain.CycloneRaster
	tol    float64
}

// New creates a sampler over raster with the given time tolerance in
// seconds. Tolerance at or below zero falls back to the default.
func New(raster *domain.CycloneRaster, tol float64) *Sampler {
	if tol <= 0 {
		tol = domain.CycloneTolerance
	}
	return &Sampler{raster: raster, tol: tol}
}

// Legend returns the code legend carried by the raster.
func (s *Sampler) Legend() []string {
	return s.raster.Legend
}

// SliceIndex returns the raster slice closest in time to t, if one lies
// within tolerance. Callers matching many cells at one timestep resolve the
// slice once and then read cells with At.
func (s *Sampler) SliceIndex(t float64) (int, bool) {
	return domain.Nearest(s.raster.Times, t, s.tol)
}

// At reads the storm-presence code of one cell in a resolved slice.
// Negative codes mean "no storm" and are normalized to missing.
func (s *Sampler) At(slice, iLat, iLon int) float64 {
	c := s.raster.Codes[slice][iLat][iLon]
	if c < 0 {
		return domain.Missing()
	}
	return c
}

// Sample returns the nearest-in-time storm-presence code for one cell, or
// missing when no slice is within tolerance.
func (s *Sampler) Sample(t float64, iLat, iLon int) float64 {
	k, ok := s.SliceIndex(t)
	if !ok {
		return domain.Missing()
	}
	return s.At(k, iLat, iLon)
}
