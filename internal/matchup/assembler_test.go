package matchup

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricampos/WW3-tools/internal/aggregate"
	"github.com/ricampos/WW3-tools/internal/cyclone"
	"github.com/ricampos/WW3-tools/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// hourly returns n hourly timestamps starting at start.
func hourly(start float64, n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = start + float64(i)*3600
	}
	return times
}

func modelTable(station string, times []float64, hs float64) *domain.PointTable {
	samples := make([]domain.PointSample, len(times))
	for i := range samples {
		samples[i] = domain.PointSample{Hs: hs, Tm: 8, Dm: 90}
	}
	return &domain.PointTable{
		Stations: []string{station},
		Times:    times,
		Samples:  [][]domain.PointSample{samples},
	}
}

func buoyRecord(station string, times []float64, hs float64) domain.BuoyRecord {
	samples := make([]domain.BuoySample, len(times))
	for i, t := range times {
		samples[i] = domain.BuoySample{Time: t, Hs: hs, Tm: 7, Dm: 85}
	}
	return domain.BuoyRecord{Station: station, Lat: 30.0, Lon: -75.0, Source: "ndbc", Samples: samples}
}

func TestBuoys(t *testing.T) {
	times := hourly(0, 48)

	t.Run("hourly model and buoy produce one record per timestep", func(t *testing.T) {
		a := New(nil, nil, domain.ModelObsTolerance, discard())
		set, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{buoyRecord("41001", times, 1.6)})

		require.NoError(t, err)
		require.Len(t, set.Records, 48)
		for _, r := range set.Records {
			assert.Equal(t, 1.5, r.ModelHs)
			assert.Equal(t, 1.6, r.ObsHs)
			assert.Equal(t, "41001", r.Station)
			assert.True(t, domain.IsMissing(r.Cycle))
		}
	})

	t.Run("out of range buoy sample drops only its timestep", func(t *testing.T) {
		b := buoyRecord("41001", times, 1.6)
		b.Samples[10].Hs = 35.0

		a := New(nil, nil, domain.ModelObsTolerance, discard())
		set, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{b})

		require.NoError(t, err)
		assert.Len(t, set.Records, 47)
		for _, r := range set.Records {
			assert.NotEqual(t, times[10], r.Time)
		}
	})

	t.Run("all missing observations yield a fatal empty result", func(t *testing.T) {
		b := buoyRecord("41001", times, 1.6)
		for i := range b.Samples {
			b.Samples[i].Hs = domain.Missing()
		}

		a := New(nil, nil, domain.ModelObsTolerance, discard())
		_, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{b})
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("never emits a record with a missing side", func(t *testing.T) {
		b := buoyRecord("41001", times, 1.6)
		table := modelTable("41001", times, 1.5)
		for i := 0; i < len(times); i += 2 {
			table.Samples[0][i].Hs = domain.Missing()
		}

		a := New(nil, nil, domain.ModelObsTolerance, discard())
		set, err := a.Buoys("test", table, []domain.BuoyRecord{b})
		require.NoError(t, err)
		assert.Len(t, set.Records, 24)
		for _, r := range set.Records {
			assert.False(t, domain.IsMissing(r.ModelHs))
			assert.False(t, domain.IsMissing(r.ObsHs))
		}
	})

	t.Run("dense buoy samples collapse to the window mean", func(t *testing.T) {
		// Buoy reporting every 20 minutes around a single model hour.
		b := domain.BuoyRecord{Station: "41001", Lat: 30, Lon: -75, Samples: []domain.BuoySample{
			{Time: 3600 - 1200, Hs: 1.0, Tm: 7, Dm: 85},
			{Time: 3600, Hs: 2.0, Tm: 7, Dm: 85},
			{Time: 3600 + 1200, Hs: 3.0, Tm: 7, Dm: 85},
		}}
		a := New(nil, nil, domain.ModelObsTolerance, discard())
		set, err := a.Buoys("test", modelTable("41001", []float64{3600}, 1.5), []domain.BuoyRecord{b})

		require.NoError(t, err)
		require.Len(t, set.Records, 1)
		assert.Equal(t, 2.0, set.Records[0].ObsHs)
	})

	t.Run("station missing from model table is skipped", func(t *testing.T) {
		a := New(nil, nil, domain.ModelObsTolerance, discard())
		_, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{buoyRecord("99999", times, 1.6)})
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("output longitude uses the signed convention", func(t *testing.T) {
		b := buoyRecord("41001", times, 1.6)
		b.Lon = 285.0 // east convention input
		a := New(nil, nil, domain.ModelObsTolerance, discard())
		set, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{b})
		require.NoError(t, err)
		assert.Equal(t, -75.0, set.Records[0].Lon)
	})
}

func buoyGrid() *domain.GridDomain {
	return &domain.GridDomain{
		Lats:       []float64{29.5, 30.0, 30.5},
		Lons:       []float64{284.5, 285.0, 285.5},
		Mask:       [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		Depth:      [][]float64{{100, 100, 100}, {100, 3000, 100}, {100, 100, 100}},
		DistCoast:  [][]float64{{50, 50, 50}, {50, 400, 50}, {50, 50, 50}},
		Oceans:     [][]float64{{2, 2, 2}, {2, 2, 2}, {2, 2, 2}},
		Zones:      [][]float64{{7, 7, 7}, {7, 7, 7}, {7, 7, 7}},
		OceanNames: []string{"Arctic", "Indian", "North Atlantic"},
		ZoneNames:  []string{"a", "b", "c", "d", "e", "f", "g", "zone7"},
	}
}

func TestBuoysGridJoin(t *testing.T) {
	times := hourly(0, 4)

	t.Run("static attributes joined from the nearest cell", func(t *testing.T) {
		a := New(buoyGrid(), nil, domain.ModelObsTolerance, discard())
		set, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{buoyRecord("41001", times, 1.6)})

		require.NoError(t, err)
		require.Len(t, set.Records, 4)
		r := set.Records[0]
		assert.Equal(t, 1, r.LatIdx)
		assert.Equal(t, 1, r.LonIdx)
		assert.Equal(t, 3000.0, r.Depth)
		assert.Equal(t, 400.0, r.DistCoast)
		assert.Equal(t, 2.0, r.Ocean)
		assert.Equal(t, 7.0, r.Zone)
		assert.Equal(t, []string{"Arctic", "Indian", "North Atlantic"}, set.OceanNames)
	})

	t.Run("masked cell excludes the whole station", func(t *testing.T) {
		g := buoyGrid()
		g.Mask[1][1] = 0
		a := New(g, nil, domain.ModelObsTolerance, discard())
		_, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{buoyRecord("41001", times, 1.6)})
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("missing static coverage excludes the station", func(t *testing.T) {
		g := buoyGrid()
		g.Depth[1][1] = domain.Missing()
		a := New(g, nil, domain.ModelObsTolerance, discard())
		_, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{buoyRecord("41001", times, 1.6)})
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})
}

func TestBuoysCycloneJoin(t *testing.T) {
	times := hourly(0, 4)
	raster := &domain.CycloneRaster{
		Lats:  []float64{29.5, 30.0, 30.5},
		Lons:  []float64{284.5, 285.0, 285.5},
		Times: []float64{0, 10800},
		Codes: [][][]float64{
			{{-1, -1, -1}, {-1, 3, -1}, {-1, -1, -1}},
			{{-1, -1, -1}, {-1, -1, -1}, {-1, -1, -1}},
		},
		Legend: []string{"no cyclone", "within 500km"},
	}
	a := New(buoyGrid(), cyclone.New(raster, domain.CycloneTolerance), domain.ModelObsTolerance, discard())
	set, err := a.Buoys("test", modelTable("41001", times, 1.5), []domain.BuoyRecord{buoyRecord("41001", times, 1.6)})

	require.NoError(t, err)
	require.Len(t, set.Records, 4)
	assert.Equal(t, 3.0, set.Records[0].Cyclone)           // slice 0 is nearest to t=0
	assert.True(t, domain.IsMissing(set.Records[3].Cyclone)) // nearest slice has no storm
	assert.Equal(t, []string{"no cyclone", "within 500km"}, set.CycloneLegend)
}

// fieldFile is an in-memory aggregate.FieldFile with constant fields.
type fieldFile struct {
	lats, lons, times []float64
	hs, wind          float64
}

func (f *fieldFile) Lats() []float64  { return f.lats }
func (f *fieldFile) Lons() []float64  { return f.lons }
func (f *fieldFile) Times() []float64 { return f.times }
func (f *fieldFile) Slice(int) (domain.FieldSlice, error) {
	hs := make([][]float64, len(f.lats))
	wind := make([][]float64, len(f.lats))
	for i := range f.lats {
		hs[i] = make([]float64, len(f.lons))
		wind[i] = make([]float64, len(f.lons))
		for j := range f.lons {
			hs[i][j] = f.hs
			wind[i][j] = f.wind
		}
	}
	return domain.FieldSlice{Hs: hs, Wind: wind}, nil
}
func (f *fieldFile) Close() error { return nil }

func satSamples(times []float64, lat, lon, hs, wind float64) []domain.SatelliteSample {
	samples := make([]domain.SatelliteSample, len(times))
	for i, t := range times {
		samples[i] = domain.SatelliteSample{Time: t, Lat: lat, Lon: lon, Hs: hs, Wind: wind, Mission: 0}
	}
	return samples
}

func TestSatellite(t *testing.T) {
	grid := buoyGrid()
	times := hourly(0, 24)

	newCycle := func(cycleTime float64) aggregate.Cycle {
		return aggregate.Cycle{
			Path:      "model.nc",
			File:      &fieldFile{lats: grid.Lats, lons: grid.Lons, times: times, hs: 2.5, wind: 10},
			Times:     times,
			CycleTime: cycleTime,
		}
	}

	t.Run("track samples on valid cells become records", func(t *testing.T) {
		a := New(grid, nil, domain.ModelObsTolerance, discard())
		set, err := a.Satellite("test", []aggregate.Cycle{newCycle(domain.Missing())}, satSamples(times, 30.0, -75.0, 2.2, 9.0))

		require.NoError(t, err)
		require.Len(t, set.Records, 24)
		r := set.Records[0]
		assert.Equal(t, 2.5, r.ModelHs)
		assert.Equal(t, 10.0, r.ModelWind)
		assert.Equal(t, 2.2, r.ObsHs)
		assert.Equal(t, 9.0, r.ObsWind)
		assert.Equal(t, domain.Mission(0), r.Mission)
		assert.Equal(t, 30.0, r.Lat)
		assert.Equal(t, -75.0, r.Lon) // grid east longitude emitted signed
		assert.Equal(t, 1, r.Month)
	})

	t.Run("sample on a masked cell is excluded regardless of values", func(t *testing.T) {
		g := buoyGrid()
		g.Mask[1][1] = 0
		a := New(g, nil, domain.ModelObsTolerance, discard())
		_, err := a.Satellite("test", []aggregate.Cycle{newCycle(domain.Missing())}, satSamples(times, 30.0, -75.0, 2.2, 9.0))
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("zero depth or coast distance is excluded", func(t *testing.T) {
		g := buoyGrid()
		g.Depth[1][1] = 0
		a := New(g, nil, domain.ModelObsTolerance, discard())
		_, err := a.Satellite("test", []aggregate.Cycle{newCycle(domain.Missing())}, satSamples(times, 30.0, -75.0, 2.2, 9.0))
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("altimeter QC bound applies to both sides", func(t *testing.T) {
		a := New(grid, nil, domain.ModelObsTolerance, discard())
		_, err := a.Satellite("test", []aggregate.Cycle{newCycle(domain.Missing())}, satSamples(times, 30.0, -75.0, 22.0, 9.0))
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("observation time not on the model axis is not matched", func(t *testing.T) {
		offset := make([]float64, len(times))
		for i, ts := range times {
			offset[i] = ts + 17 // never exactly equal to a model timestamp
		}
		a := New(grid, nil, domain.ModelObsTolerance, discard())
		_, err := a.Satellite("test", []aggregate.Cycle{newCycle(domain.Missing())}, satSamples(offset, 30.0, -75.0, 2.2, 9.0))
		assert.ErrorIs(t, err, domain.ErrNoMatchups)
	})

	t.Run("forecast cycles stamp cycle time and bound lead time", func(t *testing.T) {
		day := hourly(0, 25) // 24 hours inclusive
		var cycles []aggregate.Cycle
		var obs []domain.SatelliteSample
		for c := 0; c < 3; c++ {
			start := float64(c) * 6 * 3600
			ctimes := make([]float64, len(day))
			for i, ts := range day {
				ctimes[i] = start + ts
			}
			cycles = append(cycles, aggregate.Cycle{
				Path:      fmt.Sprintf("cycle%d.nc", c),
				File:      &fieldFile{lats: grid.Lats, lons: grid.Lons, times: ctimes, hs: 2.5, wind: 10},
				Times:     ctimes,
				CycleTime: start,
			})
			obs = append(obs, satSamples(ctimes, 30.0, -75.0, 2.2, 9.0)...)
		}

		a := New(grid, nil, domain.ModelObsTolerance, discard())
		set, err := a.Satellite("test", cycles, obs)
		require.NoError(t, err)
		require.NotEmpty(t, set.Records)
		for _, r := range set.Records {
			assert.False(t, domain.IsMissing(r.Cycle))
			lead := r.LeadTime()
			assert.GreaterOrEqual(t, lead, 0.0)
			assert.LessOrEqual(t, lead, 24*3600.0)
		}
	})

	t.Run("requires grid information", func(t *testing.T) {
		a := New(nil, nil, domain.ModelObsTolerance, discard())
		_, err := a.Satellite("test", []aggregate.Cycle{newCycle(domain.Missing())}, satSamples(times, 30, -75, 2.2, 9))
		assert.Error(t, err)
	})
}
