// Package domain models WAVEWATCH III model/observation collocation data.
//
// # Data Sources
//
// Model data comes from WAVEWATCH III runs in two shapes: point-output
// tables (one time series per named station, used against moored buoys) and
// gridded field output (used against satellite altimeter tracks). Field runs
// are either a hindcast (one continuous simulation) or a set of forecast
// cycles (consecutive runs whose calendar times overlap but whose reference
// times differ).
//
// Observations come from the NDBC and Copernicus moored-buoy archives and
// from gridded altimeter files, one file per satellite mission drawn from
// the closed mission table in [MissionNames].
//
// # Conventions
//
// Longitude:
//
//	All grid lookups use the east convention [0, 360). Persisted matchup
//	output uses the signed convention, longitudes above 180 shifted down by
//	360. Conversions live in ToEast360 and ToSigned180 and are applied only
//	at ingestion and emission boundaries.
//
// Time:
//
//	Timestamps are float64 seconds since the Unix epoch, UTC. Source files
//	carry their own units ("seconds"/"hours"/"days" since a reference year);
//	adapters convert on read so everything downstream speaks epoch seconds.
//
// Missing values:
//
//	NaN is the single missing sentinel, tested with [IsMissing]. Quality
//	control replaces out-of-range values with NaN in place rather than
//	dropping them, so index alignment between model and observation series
//	is never disturbed. Row elimination happens only in the assembler's
//	completeness step.
//
// Quality control ranges (valid is min <= v < max):
//
//	wave height     0 – 30 m  (buoy context)   0 – 20 m (altimeter context)
//	mean period     0 – 40 s
//	mean direction  -180 – 360 degrees
//	wind speed      0 – 60 m/s (altimeter context)
//
// # Nearest grid point
//
// GridDomain.Locate minimizes the absolute difference independently on each
// axis, ties to the lowest index. This is not geodesically correct near the
// poles or across the antimeridian, but it is the resolution rule the rest
// of the toolchain (grid masks, gridded altimeter files, cyclone maps) was
// built around, so it is kept as-is for compatibility.
package domain
