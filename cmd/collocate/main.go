// Command collocate matches WAVEWATCH III model output against buoy or
// satellite altimeter observations and writes the resulting matchup set.
//
// Usage:
//
//	MODEL_LIST=ww3list_201901_c00.txt NDBC_PATH=/data/ndbc collocate -mode=buoy
//	MODEL_LIST=ww3list_201901.txt SATELLITE_LIST=satlist.txt \
//	  GRID_INFO=gridInfo.nc collocate -mode=satellite
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/ricampos/WW3-tools/internal/adapter/http"
	"github.com/ricampos/WW3-tools/internal/adapter/jsonfile"
	kafkaadapter "github.com/ricampos/WW3-tools/internal/adapter/kafka"
	"github.com/ricampos/WW3-tools/internal/adapter/netcdf"
	"github.com/ricampos/WW3-tools/internal/aggregate"
	"github.com/ricampos/WW3-tools/internal/config"
	"github.com/ricampos/WW3-tools/internal/observability"
	"github.com/ricampos/WW3-tools/internal/pipeline"
)

func main() {
	mode := flag.String("mode", "buoy", "collocation mode: buoy or satellite")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	runner := pipeline.New(cfg, logger, metrics)
	runner.Grid = netcdf.LoadGrid
	runner.Cyclones = netcdf.LoadCycloneMaps
	runner.Points = netcdf.LoadPointTable
	runner.Fields = func(path string) (aggregate.FieldFile, error) { return netcdf.OpenField(path) }
	runner.Satellites = netcdf.LoadSatellites
	if cfg.NDBCPath != "" {
		runner.Stations = append(runner.Stations, &netcdf.NDBCSource{Dir: cfg.NDBCPath})
	}
	if cfg.CopernicusPath != "" {
		runner.Stations = append(runner.Stations, &netcdf.CopernicusSource{Dir: cfg.CopernicusPath})
	}

	runner.Sinks = append(runner.Sinks, jsonfile.NewWriter(cfg.OutputDir, logger))
	if len(cfg.KafkaBrokers) > 0 {
		runner.Sinks = append(runner.Sinks, kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The run is a batch job; the HTTP surface is optional and serves
	// probes and scrapes while a long run is in flight.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, runner, runner, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	err = run(ctx, runner, *mode)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error("http server shutdown error", "error", serr)
		}
	}

	// Close sinks here rather than in a defer: os.Exit below would skip
	// deferred calls and leave the Kafka writer's connections open.
	closeSinks(runner.Sinks, logger)

	if err != nil {
		logger.Error("collocation run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

func closeSinks(sinks []pipeline.Sink, logger *slog.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
}

func run(ctx context.Context, runner *pipeline.Runner, mode string) error {
	switch mode {
	case "buoy":
		return runner.RunBuoy(ctx)
	case "satellite":
		return runner.RunSatellite(ctx)
	default:
		return fmt.Errorf("unknown mode %q: use buoy or satellite", mode)
	}
}
