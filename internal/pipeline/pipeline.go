// Package pipeline orchestrates a collocation run: load the prepared
// products, aggregate the model output, load observations, assemble the
// matchup set, and hand it to the sinks.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ricampos/WW3-tools/internal/aggregate"
	"github.com/ricampos/WW3-tools/internal/config"
	"github.com/ricampos/WW3-tools/internal/cyclone"
	"github.com/ricampos/WW3-tools/internal/domain"
	"github.com/ricampos/WW3-tools/internal/matchup"
	"github.com/ricampos/WW3-tools/internal/observability"
)

// StationSource loads one buoy station's observation series. Sources are
// tried in order; the first one that succeeds wins.
type StationSource interface {
	Name() string
	Load(station string, span domain.TimeSpan) (*domain.BuoyRecord, error)
}

// Sink persists one assembled matchup set.
type Sink interface {
	Store(set *domain.MatchupSet) error
	Close() error
}

// Loader functions for the prepared products. Split out as function fields
// so tests can run the full pipeline without NetCDF fixtures.
type (
	GridLoader      func(path string) (*domain.GridDomain, error)
	CycloneLoader   func(paths []string, grid *domain.GridDomain) (*domain.CycloneRaster, error)
	SatelliteLoader func(paths []string, span domain.TimeSpan, logger *slog.Logger) ([]domain.SatelliteSample, error)
)

// Runner executes collocation runs.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	Grid       GridLoader
	Cyclones   CycloneLoader
	Points     aggregate.PointOpener
	Fields     aggregate.FieldOpener
	Stations   []StationSource
	Satellites SatelliteLoader
	Sinks      []Sink

	ready atomic.Bool

	mu      sync.Mutex
	lastTag string
	lastLen int
	lastOK  bool
}

// New creates a Runner. Adapters are wired onto the exported fields by the
// caller.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{cfg: cfg, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once the run's inputs are loaded and matching
// has begun.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("run inputs are still loading")
	}
	return nil
}

// LastRun reports the most recent completed run.
func (r *Runner) LastRun() (string, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTag, r.lastLen, r.lastOK
}

func (r *Runner) recordRun(set *domain.MatchupSet) {
	r.mu.Lock()
	r.lastTag = set.Tag
	r.lastLen = len(set.Records)
	r.lastOK = true
	r.mu.Unlock()
}

// RunBuoy executes a model/buoy collocation run.
func (r *Runner) RunBuoy(ctx context.Context) error {
	r.metrics.RunInProgress.Set(1)
	defer r.metrics.RunInProgress.Set(0)

	paths, tag, err := r.modelList()
	if err != nil {
		return err
	}
	grid, cyc, err := r.loadJoins()
	if err != nil {
		return err
	}

	table, err := aggregate.Points(paths, r.observedPointOpener(), r.logger)
	if err != nil {
		return err
	}
	r.logger.Info("model point output aggregated",
		"files", len(paths), "stations", len(table.Stations), "timesteps", len(table.Times))
	if err := ctx.Err(); err != nil {
		return err
	}

	span := spanOf(table.Times)
	buoys := r.loadBuoys(ctx, table.Stations, span)
	if len(buoys) == 0 {
		return fmt.Errorf("no buoy observations could be loaded for %d stations", len(table.Stations))
	}
	r.ready.Store(true)

	asm := matchup.New(grid, cyc, r.cfg.ModelObsTolerance.Seconds(), r.logger)
	asm.OnCycloneMiss = r.metrics.CycloneMisses.Inc
	start := time.Now()
	set, err := asm.Buoys(tag, table, buoys)
	if err != nil {
		return err
	}
	r.metrics.AssemblyDuration.Observe(time.Since(start).Seconds())
	r.metrics.MatchupsEmitted.Add(float64(len(set.Records)))

	return r.store(set)
}

// RunSatellite executes a model/satellite collocation run. Grid information
// is mandatory: altimeter tracks carry no station identity, so the grid cell
// is the only spatial anchor.
func (r *Runner) RunSatellite(ctx context.Context) error {
	r.metrics.RunInProgress.Set(1)
	defer r.metrics.RunInProgress.Set(0)

	if r.cfg.SatelliteList == "" {
		return errors.New("satellite mode requires SATELLITE_LIST")
	}
	paths, tag, err := r.modelList()
	if err != nil {
		return err
	}
	grid, cyc, err := r.loadJoins()
	if err != nil {
		return err
	}
	if grid == nil {
		return errors.New("satellite mode requires GRID_INFO")
	}

	cycles, err := aggregate.Fields(paths, r.observedFieldOpener(), grid, r.cfg.Forecast, r.logger)
	if err != nil {
		return err
	}
	defer aggregate.Close(cycles)
	r.logger.Info("model field output opened", "files", len(cycles), "forecast", r.cfg.Forecast)

	if r.cfg.Forecast {
		r.logForecastCapacity(cycles)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	span := cyclesSpan(cycles)
	satPaths, err := readList(r.cfg.SatelliteList)
	if err != nil {
		return err
	}
	obs, err := r.Satellites(satPaths, span, r.logger)
	if err != nil {
		return err
	}
	r.logger.Info("altimeter observations loaded", "samples", len(obs))
	r.ready.Store(true)

	asm := matchup.New(grid, cyc, r.cfg.ModelObsTolerance.Seconds(), r.logger)
	asm.OnCycloneMiss = r.metrics.CycloneMisses.Inc
	start := time.Now()
	set, err := asm.Satellite(tag, cycles, obs)
	if err != nil {
		return err
	}
	r.metrics.AssemblyDuration.Observe(time.Since(start).Seconds())
	r.metrics.MatchupsEmitted.Add(float64(len(set.Records)))

	return r.store(set)
}

func (r *Runner) modelList() ([]string, string, error) {
	paths, err := readList(r.cfg.ModelList)
	if err != nil {
		return nil, "", err
	}
	if len(paths) == 0 {
		return nil, "", fmt.Errorf("model list %s is empty", r.cfg.ModelList)
	}
	return paths, tagFromList(r.cfg.ModelList), nil
}

// loadJoins loads the grid and cyclone products when the corresponding join
// is enabled. Either can be absent; the assembler degrades accordingly.
func (r *Runner) loadJoins() (*domain.GridDomain, *cyclone.Sampler, error) {
	var grid *domain.GridDomain
	if r.cfg.JoinGrid {
		g, err := r.Grid(r.cfg.GridInfoPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load grid information: %w", err)
		}
		grid = g
		r.logger.Info("grid information loaded",
			"path", r.cfg.GridInfoPath, "lats", len(grid.Lats), "lons", len(grid.Lons))
	}

	var cyc *cyclone.Sampler
	if r.cfg.JoinCyclone {
		raster, err := r.Cyclones(r.cfg.CycloneMapPaths, grid)
		if err != nil {
			return nil, nil, fmt.Errorf("load cyclone maps: %w", err)
		}
		cyc = cyclone.New(raster, r.cfg.CycloneTolerance.Seconds())
		r.logger.Info("cyclone maps loaded",
			"files", len(r.cfg.CycloneMapPaths), "slices", len(raster.Times))
	}
	return grid, cyc, nil
}

// loadBuoys tries every station against the sources in order. A station
// with no working source is skipped; the run continues with the rest.
func (r *Runner) loadBuoys(ctx context.Context, stations []string, span domain.TimeSpan) []domain.BuoyRecord {
	var buoys []domain.BuoyRecord
	for _, station := range stations {
		if ctx.Err() != nil {
			return buoys
		}
		rec := r.loadStation(station, span)
		if rec == nil {
			r.metrics.StationsSkipped.Inc()
			continue
		}
		r.metrics.StationsMatched.Inc()
		buoys = append(buoys, *rec)
	}
	return buoys
}

func (r *Runner) loadStation(station string, span domain.TimeSpan) *domain.BuoyRecord {
	for _, src := range r.Stations {
		rec, err := src.Load(station, span)
		if err != nil {
			r.logger.Debug("station source failed", "station", station, "source", src.Name(), "error", err)
			continue
		}
		r.logger.Info("buoy observations loaded",
			"station", station, "source", src.Name(), "samples", len(rec.Samples))
		return rec
	}
	r.logger.Warn("no observation source for station, skipping", "station", station)
	return nil
}

// logForecastCapacity derives the per-cycle record capacity the way the
// downstream statistics expect it: enough lead steps for a whole cycle span
// at the observed cycle spacing, never less than configured.
func (r *Runner) logForecastCapacity(cycles []aggregate.Cycle) {
	span, spacing := 0.0, 0.0
	for i, c := range cycles {
		if len(c.Times) > 0 {
			if s := maxOf(c.Times) - c.CycleTime; s > span {
				span = s
			}
		}
		if i > 0 {
			if d := c.CycleTime - cycles[i-1].CycleTime; spacing == 0 || (d > 0 && d < spacing) {
				spacing = d
			}
		}
	}
	count := aggregate.CycleCount(r.cfg.ForecastCycles, span, spacing)
	if count > r.cfg.ForecastCycles {
		r.logger.Warn("configured forecast cycle count too small, raised",
			"configured", r.cfg.ForecastCycles, "raised", count)
	}
	r.logger.Info("forecast cycle capacity", "cycles", count, "span_seconds", span, "spacing_seconds", spacing)
}

func (r *Runner) store(set *domain.MatchupSet) error {
	for _, sink := range r.Sinks {
		if err := sink.Store(set); err != nil {
			return fmt.Errorf("store matchup set: %w", err)
		}
	}
	r.recordRun(set)
	sum := set.Summary()
	r.logger.Info("collocation run complete",
		"tag", set.Tag, "records", sum.Count, "start", sum.Start, "end", sum.End)
	return nil
}

// observedPointOpener wraps the point opener with read metrics.
func (r *Runner) observedPointOpener() aggregate.PointOpener {
	return func(path string) (*domain.PointTable, error) {
		start := time.Now()
		t, err := r.Points(path)
		if err != nil {
			r.metrics.ModelFilesSkipped.Inc()
			return nil, err
		}
		r.metrics.ModelFilesRead.Inc()
		r.metrics.FileReadDuration.Observe(time.Since(start).Seconds())
		return t, nil
	}
}

// observedFieldOpener wraps the field opener with read metrics.
func (r *Runner) observedFieldOpener() aggregate.FieldOpener {
	return func(path string) (aggregate.FieldFile, error) {
		start := time.Now()
		f, err := r.Fields(path)
		if err != nil {
			r.metrics.ModelFilesSkipped.Inc()
			return nil, err
		}
		r.metrics.ModelFilesRead.Inc()
		r.metrics.FileReadDuration.Observe(time.Since(start).Seconds())
		return f, nil
	}
}

// readList reads a list file: one path per line, blank lines and #-comments
// ignored.
func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return paths, nil
}

// tagFromList derives the run tag from the model list name: everything
// between the "list" token and the extension. A list named
// ww3list_201901_c00.txt tags the run 201901_c00.
func tagFromList(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if _, after, found := strings.Cut(base, "list"); found {
		return strings.Trim(after, "_")
	}
	return base
}

func spanOf(times []float64) domain.TimeSpan {
	if len(times) == 0 {
		return domain.TimeSpan{}
	}
	span := domain.TimeSpan{Start: times[0], End: times[0]}
	for _, t := range times[1:] {
		if t < span.Start {
			span.Start = t
		}
		if t > span.End {
			span.End = t
		}
	}
	return span
}

func cyclesSpan(cycles []aggregate.Cycle) domain.TimeSpan {
	var all []float64
	for _, c := range cycles {
		all = append(all, c.Times...)
	}
	return spanOf(all)
}

func maxOf(times []float64) float64 {
	max := times[0]
	for _, t := range times[1:] {
		if t > max {
			max = t
		}
	}
	return max
}
