package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Fatal run conditions. Everything else is recoverable per item or per
// timestep and is logged rather than returned.
var (
	// ErrGridMismatch means a model or cyclone file carries a lat/lon grid
	// different from the prepared grid domain. Matching under a mismatched
	// grid would be silently wrong, so the run aborts.
	ErrGridMismatch = errors.New("grid geometry mismatch")

	// ErrNoMatchups means zero records survived the completeness step.
	ErrNoMatchups = errors.New("no matchups available")
)

// GridDomain describes the model grid and its static auxiliary fields, as
// prepared by the external grid-mask step. All 2-D fields are indexed
// [lat][lon] and share the same shape. Longitudes use the east convention
// [0, 360). Read-only after construction.
type GridDomain struct {
	Lats []float64 // ascending
	Lons []float64 // east convention, monotonic

	Mask      [][]float64 // 1 = valid ocean cell
	Depth     [][]float64 // meters, positive down
	DistCoast [][]float64 // km to nearest coast
	Oceans    [][]float64 // GlobalOceansSeas region id per cell
	Zones     [][]float64 // HighSeasMarineZones region id per cell

	OceanNames []string
	ZoneNames  []string
}

// Validate checks the shape invariant: every 2-D field is [len(Lats)][len(Lons)].
func (g *GridDomain) Validate() error {
	for name, f := range map[string][][]float64{
		"mask": g.Mask, "depth": g.Depth, "distcoast": g.DistCoast,
		"oceans": g.Oceans, "zones": g.Zones,
	} {
		if f == nil {
			continue
		}
		if len(f) != len(g.Lats) {
			return fmt.Errorf("grid field %s: %d rows, want %d", name, len(f), len(g.Lats))
		}
		for i := range f {
			if len(f[i]) != len(g.Lons) {
				return fmt.Errorf("grid field %s row %d: %d cols, want %d", name, i, len(f[i]), len(g.Lons))
			}
		}
	}
	return nil
}

// ValidCell reports whether the mask marks the cell as usable ocean.
func (g *GridDomain) ValidCell(iLat, iLon int) bool {
	return g.Mask == nil || g.Mask[iLat][iLon] == 1
}

// SameAxes reports whether two coordinate axes are exactly equal.
// Grid comparisons are exact: files produced by the same preparation step
// carry bit-identical axes, and anything else is a structural error.
func SameAxes(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CycloneRaster is a time-indexed stack of storm-presence grids sharing the
// GridDomain geometry. Codes below zero mean "no storm". Legend holds the
// free-text meaning of each code. Read-only after construction.
type CycloneRaster struct {
	Lats   []float64
	Lons   []float64
	Times  []float64     // epoch seconds, ascending
	Codes  [][][]float64 // [time][lat][lon]
	Legend []string
}

// PointSample is one model point-output sample. Keeping height, period and
// direction in one record ties the variables to their timestamp structurally
// instead of by parallel-array index.
type PointSample struct {
	Hs float64 // significant wave height, m
	Tm float64 // mean period, s
	Dm float64 // mean direction, degrees
}

// PointTable is the aggregated model point-output table: a shared time axis
// and one sample row per station.
type PointTable struct {
	Stations []string
	Times    []float64       // epoch seconds
	Samples  [][]PointSample // [station][time index]
}

// FieldSlice is one timestep of model field output.
type FieldSlice struct {
	Hs   [][]float64 // [lat][lon] significant wave height, m
	Wind [][]float64 // [lat][lon] wind speed magnitude, m/s
}

// BuoySample is one observation from a moored buoy.
type BuoySample struct {
	Time float64
	Hs   float64
	Tm   float64
	Dm   float64
}

// BuoyRecord is a fixed-position buoy series plus its source archive.
type BuoyRecord struct {
	Station string
	Lat     float64
	Lon     float64
	Source  string // "ndbc" or "copernicus"
	Samples []BuoySample
}

// SatelliteSample is one along-track altimeter observation. Unlike a buoy,
// every sample carries its own position.
type SatelliteSample struct {
	Time    float64
	Lat     float64
	Lon     float64
	Hs      float64
	Wind    float64
	Mission Mission
}

// MatchupRecord is one paired model/observation sample at a shared position
// and time. A record exists only when both sides passed quality control and
// the completeness rule; auxiliary fields may still be missing (NaN) when
// the corresponding join was disabled or had no data.
type MatchupRecord struct {
	Time    float64
	Station string  // buoy id, empty for satellite matchups
	Mission Mission // MissionNone for buoy matchups
	Month   int     // UTC month, satellite matchups only

	Lat    float64 // signed convention
	Lon    float64 // signed convention
	LatIdx int     // resolved grid index, -1 when no grid was joined
	LonIdx int

	ModelHs   float64
	ModelTm   float64
	ModelDm   float64
	ModelWind float64
	ObsHs     float64
	ObsTm     float64
	ObsDm     float64
	ObsWind   float64

	Depth     float64
	DistCoast float64
	Ocean     float64 // region id, NaN when not joined
	Zone      float64
	Cyclone   float64 // storm-presence code, NaN = no data
	Cycle     float64 // forecast cycle reference time, NaN for hindcast
}

// LeadTime returns the forecast lead time in seconds, or NaN for hindcast
// records.
func (r MatchupRecord) LeadTime() float64 {
	return r.Time - r.Cycle
}

// TimeSpan is a closed interval of epoch seconds, used to bound what
// observation data is worth loading for a run.
type TimeSpan struct {
	Start float64
	End   float64
}

// Pad widens the span by pad seconds on both ends.
func (s TimeSpan) Pad(pad float64) TimeSpan {
	return TimeSpan{Start: s.Start - pad, End: s.End + pad}
}

// Contains reports whether t lies inside the span.
func (s TimeSpan) Contains(t float64) bool {
	return t >= s.Start && t <= s.End
}

// Overlaps reports whether the spans share any time.
func (s TimeSpan) Overlaps(o TimeSpan) bool {
	return s.Start <= o.End && o.Start <= s.End
}

// Summary is the run metadata attached to a matchup set.
type Summary struct {
	Count int
	Start float64 // earliest matched timestamp, epoch seconds
	End   float64 // latest matched timestamp
}

// MatchupSet is the assembled, ordered collection handed to sinks.
type MatchupSet struct {
	Tag     string // run identifier derived from the model list name
	Records []MatchupRecord

	OceanNames    []string
	ZoneNames     []string
	CycloneLegend []string

	ProducedAt time.Time
}

// Summary computes record count and time bounds.
func (s *MatchupSet) Summary() Summary {
	sum := Summary{Count: len(s.Records)}
	for i, r := range s.Records {
		if i == 0 || r.Time < sum.Start {
			sum.Start = r.Time
		}
		if i == 0 || r.Time > sum.End {
			sum.End = r.Time
		}
	}
	return sum
}

// Sort orders records by (time, station, mission, lat, lon) so persisted
// output is reproducible regardless of assembly order.
func (s *MatchupSet) Sort() {
	sort.SliceStable(s.Records, func(i, j int) bool {
		a, b := s.Records[i], s.Records[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		if a.Mission != b.Mission {
			return a.Mission < b.Mission
		}
		if a.Lat != b.Lat {
			return a.Lat < b.Lat
		}
		return a.Lon < b.Lon
	})
}
