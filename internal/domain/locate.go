package domain

import "math"

// Locate returns the grid index closest to the query position. The query
// longitude is first normalized to the east convention. Each axis is
// minimized independently on absolute difference, ties going to the lowest
// index. A regular-grid approximation: near the poles and across the
// antimeridian this is not the geodesically nearest cell, but every other
// prepared product (masks, gridded altimeter data, cyclone maps) resolves
// positions the same way, so it must not be replaced by a true 2-D search.
//
// Locate never fails; whether the resolved cell is usable is a mask question
// for the caller.
func (g *GridDomain) Locate(lat, lon float64) (iLat, iLon int) {
	return nearestIndex(g.Lats, lat), nearestIndex(g.Lons, ToEast360(lon))
}

// nearestIndex returns the first index of axis minimizing |axis[i]-v|.
func nearestIndex(axis []float64, v float64) int {
	best := 0
	bestDiff := math.Abs(axis[0] - v)
	for i := 1; i < len(axis); i++ {
		if d := math.Abs(axis[i] - v); d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best
}
