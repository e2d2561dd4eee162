package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a
// collocation run.
type Metrics struct {
	ModelFilesRead    prometheus.Counter
	ModelFilesSkipped prometheus.Counter
	StationsMatched   prometheus.Counter
	StationsSkipped   prometheus.Counter
	MatchupsEmitted   prometheus.Counter
	CycloneMisses     prometheus.Counter
	RunInProgress     prometheus.Gauge

	FileReadDuration prometheus.Histogram
	AssemblyDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ModelFilesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ww3_collocate",
			Name:      "model_files_read_total",
			Help:      "Model output files read successfully.",
		}),
		ModelFilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ww3_collocate",
			Name:      "model_files_skipped_total",
			Help:      "Model output files skipped because they could not be opened.",
		}),
		StationsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ww3_collocate",
			Name:      "stations_matched_total",
			Help:      "Buoy stations with at least one loaded observation series.",
		}),
		StationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ww3_collocate",
			Name:      "stations_skipped_total",
			Help:      "Buoy stations skipped after every observation source failed.",
		}),
		MatchupsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ww3_collocate",
			Name:      "matchups_emitted_total",
			Help:      "Matchup records surviving quality control and completeness.",
		}),
		CycloneMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ww3_collocate",
			Name:      "cyclone_misses_total",
			Help:      "Model timesteps with no cyclone raster slice within tolerance.",
		}),
		RunInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ww3_collocate",
			Name:      "run_in_progress",
			Help:      "1 while a collocation run is active.",
		}),
		FileReadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ww3_collocate",
			Name:      "file_read_duration_seconds",
			Help:      "Duration of reading one input file.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		}),
		AssemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ww3_collocate",
			Name:      "assembly_duration_seconds",
			Help:      "Duration of the matchup assembly stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 30, 120, 600, 3600},
		}),
	}
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ModelFilesRead,
		m.ModelFilesSkipped,
		m.StationsMatched,
		m.StationsSkipped,
		m.MatchupsEmitted,
		m.CycloneMisses,
		m.RunInProgress,
		m.FileReadDuration,
		m.AssemblyDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
