// Package matchup combines model series, observations, and auxiliary
// attributes into the final matched record set.
//
// A pair survives into the output only when both the model and the
// observation values are non-missing after quality control, the resolved
// grid cell is valid ocean, and, when static grid joining is requested, the
// auxiliary fields actually cover that cell. Assembling zero records is a
// fatal condition for the run: there is nothing useful to persist.
package matchup

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ricampos/WW3-tools/internal/aggregate"
	"github.com/ricampos/WW3-tools/internal/cyclone"
	"github.com/ricampos/WW3-tools/internal/domain"
)

// Assembler builds matchup sets. A nil grid disables the static-attribute
// join and the mask check (point-output runs without prepared grid info); a
// nil cyclone sampler disables the storm-presence join.
type Assembler struct {
	grid   *domain.GridDomain
	cyc    *cyclone.Sampler
	tol    float64
	logger *slog.Logger

	// OnCycloneMiss, when set, is called for every model timestep with no
	// cyclone slice within tolerance.
	OnCycloneMiss func()
}

// New creates an Assembler. Tolerance at or below zero falls back to the
// default model/observation window.
func New(grid *domain.GridDomain, cyc *cyclone.Sampler, tol float64, logger *slog.Logger) *Assembler {
	if tol <= 0 {
		tol = domain.ModelObsTolerance
	}
	return &Assembler{grid: grid, cyc: cyc, tol: tol, logger: logger}
}

func (a *Assembler) newSet(tag string) *domain.MatchupSet {
	set := &domain.MatchupSet{Tag: tag}
	if a.grid != nil {
		set.OceanNames = a.grid.OceanNames
		set.ZoneNames = a.grid.ZoneNames
	}
	if a.cyc != nil {
		set.CycloneLegend = a.cyc.Legend()
	}
	return set
}

// Buoys pairs an aggregated model point table against buoy records. For
// each model timestep the observation value is the mean of the valid buoy
// samples inside the time window; pairing order follows the model's time
// axis, not the buoy sample order.
func (a *Assembler) Buoys(tag string, table *domain.PointTable, buoys []domain.BuoyRecord) (*domain.MatchupSet, error) {
	set := a.newSet(tag)

	// Resolve the cyclone slice per model timestep once, so absence is
	// warned about once per timestep rather than once per station.
	cycSlices := a.resolveCycloneSlices(table.Times)

	for _, b := range buoys {
		set.Records = append(set.Records, a.buoyStation(table, b, cycSlices)...)
	}
	if len(set.Records) == 0 {
		return nil, fmt.Errorf("%w: model/buoy", domain.ErrNoMatchups)
	}
	set.Sort()
	set.ProducedAt = domain.Now()
	return set, nil
}

func (a *Assembler) resolveCycloneSlices(times []float64) []int {
	if a.cyc == nil {
		return nil
	}
	slices := make([]int, len(times))
	for i, t := range times {
		k, ok := a.cyc.SliceIndex(t)
		if !ok {
			k = -1
			a.logger.Warn("no cyclone information for timestep", "index", i, "time", t)
			a.cycloneMiss()
		}
		slices[i] = k
	}
	return slices
}

func (a *Assembler) buoyStation(table *domain.PointTable, b domain.BuoyRecord, cycSlices []int) []domain.MatchupRecord {
	si := -1
	for i, name := range table.Stations {
		if name == b.Station {
			si = i
			break
		}
	}
	if si < 0 {
		a.logger.Warn("buoy station not in model point table, skipping", "station", b.Station)
		return nil
	}

	iLat, iLon := -1, -1
	depth, dist := domain.Missing(), domain.Missing()
	ocean, zone := domain.Missing(), domain.Missing()
	if a.grid != nil {
		iLat, iLon = a.grid.Locate(b.Lat, b.Lon)
		if !a.grid.ValidCell(iLat, iLon) {
			a.logger.Warn("buoy resolves to a masked grid cell, skipping", "station", b.Station)
			return nil
		}
		depth = gridAt(a.grid.Depth, iLat, iLon)
		dist = gridAt(a.grid.DistCoast, iLat, iLon)
		ocean = gridAt(a.grid.Oceans, iLat, iLon)
		zone = gridAt(a.grid.Zones, iLat, iLon)
		// Mask says ocean but the auxiliary fields lack coverage: typically
		// shallow cells too close to the coast for the mask to be trusted.
		if domain.IsMissing(depth) || domain.IsMissing(dist) {
			a.logger.Warn("grid attributes missing at buoy cell, skipping", "station", b.Station)
			return nil
		}
	}

	obsTimes := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		obsTimes[i] = s.Time
	}

	var recs []domain.MatchupRecord
	for ti, mt := range table.Times {
		obs := a.windowMean(b.Samples, obsTimes, mt)
		obs = domain.QCBuoySample(obs)
		model := domain.QCPointSample(table.Samples[si][ti])
		if domain.IsMissing(model.Hs) || domain.IsMissing(obs.Hs) {
			continue
		}

		cycCode := domain.Missing()
		if cycSlices != nil && iLat >= 0 && cycSlices[ti] >= 0 {
			cycCode = a.cyc.At(cycSlices[ti], iLat, iLon)
		}

		recs = append(recs, domain.MatchupRecord{
			Time:      mt,
			Station:   b.Station,
			Mission:   domain.MissionNone,
			Lat:       b.Lat,
			Lon:       domain.ToSigned180(b.Lon),
			LatIdx:    iLat,
			LonIdx:    iLon,
			ModelHs:   model.Hs,
			ModelTm:   model.Tm,
			ModelDm:   model.Dm,
			ModelWind: domain.Missing(),
			ObsHs:     obs.Hs,
			ObsTm:     obs.Tm,
			ObsDm:     obs.Dm,
			ObsWind:   domain.Missing(),
			Depth:     depth,
			DistCoast: dist,
			Ocean:     ocean,
			Zone:      zone,
			Cyclone:   cycCode,
			Cycle:     domain.Missing(),
		})
	}
	return recs
}

// windowMean collapses the buoy samples inside the tolerance window around
// t to their per-variable means. A buoy reporting faster than the model
// step contributes the mean of its in-window valid samples.
func (a *Assembler) windowMean(samples []domain.BuoySample, times []float64, t float64) domain.BuoySample {
	idx := domain.Within(times, t, a.tol)
	hs := make([]float64, 0, len(idx))
	tm := make([]float64, 0, len(idx))
	dm := make([]float64, 0, len(idx))
	for _, j := range idx {
		hs = append(hs, samples[j].Hs)
		tm = append(tm, samples[j].Tm)
		dm = append(dm, samples[j].Dm)
	}
	return domain.BuoySample{
		Time: t,
		Hs:   domain.MeanValid(hs),
		Tm:   domain.MeanValid(tm),
		Dm:   domain.MeanValid(dm),
	}
}

// Satellite pairs model field cycles against altimeter track samples.
// Model timesteps participating in matching are selected by exact timestamp
// intersection with the observation times; the tolerance window then
// gathers the track samples around each selected timestep.
func (a *Assembler) Satellite(tag string, cycles []aggregate.Cycle, obs []domain.SatelliteSample) (*domain.MatchupSet, error) {
	if a.grid == nil {
		return nil, fmt.Errorf("satellite matching requires grid information")
	}
	set := a.newSet(tag)

	satTimes := make([]float64, len(obs))
	for i, s := range obs {
		satTimes[i] = s.Time
	}

	for _, cy := range cycles {
		if err := a.satelliteCycle(set, cy, obs, satTimes); err != nil {
			return nil, err
		}
		a.logger.Info("matchups done for model file", "path", cy.Path, "records", len(set.Records))
	}
	if len(set.Records) == 0 {
		return nil, fmt.Errorf("%w: model/satellite", domain.ErrNoMatchups)
	}
	set.Sort()
	set.ProducedAt = domain.Now()
	return set, nil
}

func (a *Assembler) satelliteCycle(set *domain.MatchupSet, cy aggregate.Cycle, obs []domain.SatelliteSample, satTimes []float64) error {
	for _, p := range domain.Intersect(cy.Times, satTimes) {
		wt := cy.Times[p.A]
		cands := domain.Within(satTimes, wt, a.tol)
		if len(cands) == 0 {
			continue
		}

		field, err := cy.File.Slice(p.A)
		if err != nil {
			return fmt.Errorf("read model field %s at step %d: %w", cy.Path, p.A, err)
		}

		cycSlice := -1
		if a.cyc != nil {
			k, ok := a.cyc.SliceIndex(wt)
			if !ok {
				a.logger.Warn("no cyclone information for timestep", "index", p.A, "time", wt)
				a.cycloneMiss()
			} else {
				cycSlice = k
			}
		}

		for _, j := range cands {
			if rec, ok := a.satelliteRecord(cy, field, obs[j], wt, cycSlice); ok {
				set.Records = append(set.Records, rec)
			}
		}
	}
	return nil
}

func (a *Assembler) satelliteRecord(cy aggregate.Cycle, field domain.FieldSlice, s domain.SatelliteSample, wt float64, cycSlice int) (domain.MatchupRecord, bool) {
	iLat, iLon := a.grid.Locate(s.Lat, s.Lon)
	if !a.grid.ValidCell(iLat, iLon) {
		return domain.MatchupRecord{}, false
	}
	depth := gridAt(a.grid.Depth, iLat, iLon)
	dist := gridAt(a.grid.DistCoast, iLat, iLon)
	// Altimeter cells need positive depth and coast distance: zero-filled
	// cells sit on the land boundary where the retrieval is unreliable.
	if !(depth > 0) || !(dist > 0) {
		return domain.MatchupRecord{}, false
	}

	modelHs := domain.QCAltimeterHeight.Apply(field.Hs[iLat][iLon])
	modelWind := domain.QCWind.Apply(field.Wind[iLat][iLon])
	obsHs := domain.QCAltimeterHeight.Apply(s.Hs)
	obsWind := domain.QCWind.Apply(s.Wind)
	if domain.IsMissing(modelHs) || domain.IsMissing(modelWind) ||
		domain.IsMissing(obsHs) || domain.IsMissing(obsWind) {
		return domain.MatchupRecord{}, false
	}

	cycCode := domain.Missing()
	if cycSlice >= 0 {
		cycCode = a.cyc.At(cycSlice, iLat, iLon)
	}

	return domain.MatchupRecord{
		Time:      wt,
		Mission:   s.Mission,
		Month:     int(time.Unix(int64(wt), 0).UTC().Month()),
		Lat:       a.grid.Lats[iLat],
		Lon:       domain.ToSigned180(a.grid.Lons[iLon]),
		LatIdx:    iLat,
		LonIdx:    iLon,
		ModelHs:   modelHs,
		ModelTm:   domain.Missing(),
		ModelDm:   domain.Missing(),
		ModelWind: modelWind,
		ObsHs:     obsHs,
		ObsTm:     domain.Missing(),
		ObsDm:     domain.Missing(),
		ObsWind:   obsWind,
		Depth:     depth,
		DistCoast: dist,
		Ocean:     gridAt(a.grid.Oceans, iLat, iLon),
		Zone:      gridAt(a.grid.Zones, iLat, iLon),
		Cyclone:   cycCode,
		Cycle:     cy.CycleTime,
	}, true
}

func (a *Assembler) cycloneMiss() {
	if a.OnCycloneMiss != nil {
		a.OnCycloneMiss()
	}
}

func gridAt(field [][]float64, iLat, iLon int) float64 {
	if field == nil {
		return domain.Missing()
	}
	return field[iLat][iLon]
}
