// Package aggregate merges multi-file model output into one logical series.
//
// Two policies exist. The hindcast policy concatenates per-file samples
// along the time axis in input-list order; the list order fully determines
// the final time order and no resorting is performed. The forecast policy
// treats each file as one forecast cycle and records the file's minimum
// timestamp as the cycle reference time, so lead time can later be recovered
// as sample time minus cycle time.
//
// A file that cannot be opened is skipped with a diagnostic and processing
// continues; a file whose grid does not match the prepared grid domain
// aborts the run, because any match made under a mismatched grid would be
// silently wrong.
package aggregate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// PointOpener opens one model point-output file and loads its full table.
type PointOpener func(path string) (*domain.PointTable, error)

// Points merges point-output files under the hindcast policy. The first
// readable file establishes the station identity; every later file must
// carry the same stations and its samples are appended after the prior
// file's along the time axis, assuming no overlap between files.
func Points(paths []string, open PointOpener, logger *slog.Logger) (*domain.PointTable, error) {
	var merged *domain.PointTable
	for _, path := range paths {
		t, err := open(path)
		if err != nil {
			logger.Warn("cannot open model file, skipping", "path", path, "error", err)
			continue
		}
		if merged == nil {
			merged = t
			continue
		}
		if len(t.Stations) != len(merged.Stations) {
			return nil, fmt.Errorf("%w: %s has %d stations, want %d",
				domain.ErrGridMismatch, path, len(t.Stations), len(merged.Stations))
		}
		// A renamed or reordered station list would attribute samples to
		// the wrong station, so names must match position for position.
		for s := range merged.Stations {
			if t.Stations[s] != merged.Stations[s] {
				return nil, fmt.Errorf("%w: %s station %d is %q, want %q",
					domain.ErrGridMismatch, path, s, t.Stations[s], merged.Stations[s])
			}
		}
		merged.Times = append(merged.Times, t.Times...)
		for s := range merged.Samples {
			merged.Samples[s] = append(merged.Samples[s], t.Samples[s]...)
		}
	}
	if merged == nil {
		return nil, fmt.Errorf("none of the %d model files could be read", len(paths))
	}
	return merged, nil
}

// FieldFile is one opened model field-output file. Slices are read lazily,
// one timestep at a time, because a field file holds full grids.
type FieldFile interface {
	Lats() []float64
	Lons() []float64
	Times() []float64
	Slice(i int) (domain.FieldSlice, error)
	Close() error
}

// FieldOpener opens one model field-output file.
type FieldOpener func(path string) (FieldFile, error)

// Cycle is one unit of field matching: a whole hindcast segment, or one
// forecast cycle with its reference time attached.
type Cycle struct {
	Path      string
	File      FieldFile
	Times     []float64
	CycleTime float64 // minimum file timestamp under the forecast policy, missing for hindcast
}

// Close releases every opened field file.
func Close(cycles []Cycle) {
	for _, c := range cycles {
		c.File.Close()
	}
}

// Fields opens field-output files in list order. Under the forecast policy
// each file becomes a cycle stamped with its minimum timestamp. When grid is
// non-nil every file's axes must match it exactly.
func Fields(paths []string, open FieldOpener, grid *domain.GridDomain, forecast bool, logger *slog.Logger) ([]Cycle, error) {
	var cycles []Cycle
	for _, path := range paths {
		f, err := open(path)
		if err != nil {
			logger.Warn("cannot open model file, skipping", "path", path, "error", err)
			continue
		}
		if grid != nil && (!domain.SameAxes(f.Lats(), grid.Lats) || !domain.SameAxes(f.Lons(), grid.Lons)) {
			f.Close()
			Close(cycles)
			return nil, fmt.Errorf("%w: model file %s does not match the prepared grid", domain.ErrGridMismatch, path)
		}
		c := Cycle{Path: path, File: f, Times: f.Times(), CycleTime: domain.Missing()}
		if forecast {
			c.CycleTime = minTime(c.Times)
		}
		cycles = append(cycles, c)
	}
	if len(cycles) == 0 {
		return nil, fmt.Errorf("none of the %d model files could be read", len(paths))
	}
	return cycles, nil
}

// CycleCount returns the forecast cycle capacity: the configured count,
// raised when needed to ceil(span/spacing)+1 so every lead time of a cycle
// fits. Span is the per-file time coverage, spacing the gap between
// consecutive cycle reference times.
func CycleCount(configured int, spanSeconds, cycleSpacing float64) int {
	if cycleSpacing <= 0 || spanSeconds <= 0 {
		return configured
	}
	min := int(math.Ceil(spanSeconds/cycleSpacing)) + 1
	if configured < min {
		return min
	}
	return configured
}

func minTime(times []float64) float64 {
	if len(times) == 0 {
		return domain.Missing()
	}
	min := times[0]
	for _, t := range times[1:] {
		if t < min {
			min = t
		}
	}
	return min
}
