package netcdf

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// SatellitePad is how far beyond the model span altimeter samples are kept,
// in seconds. Matching never reaches further than the model/observation
// tolerance, so three hours of slack is more than enough.
const SatellitePad = 3 * 3600

// LoadSatellites reads gridded altimeter files named
// AltimeterGridded_<MISSION>.nc and returns their samples merged, trimmed to
// the model span padded by SatellitePad. A file whose coverage misses the
// span entirely, or that cannot be read, is skipped with a diagnostic.
func LoadSatellites(paths []string, span domain.TimeSpan, logger *slog.Logger) ([]domain.SatelliteSample, error) {
	window := span.Pad(SatellitePad)

	var samples []domain.SatelliteSample
	for _, path := range paths {
		mission, err := missionFromPath(path)
		if err != nil {
			logger.Warn("cannot identify altimeter mission, skipping", "path", path, "error", err)
			continue
		}
		part, err := loadSatelliteFile(path, mission, window)
		if err != nil {
			logger.Warn("cannot read altimeter file, skipping", "path", path, "error", err)
			continue
		}
		if part == nil {
			logger.Info("altimeter file outside model span, skipping", "path", path, "mission", mission.String())
			continue
		}
		samples = append(samples, part...)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no altimeter samples within the model span across %d files", len(paths))
	}
	return samples, nil
}

// missionFromPath extracts the mission token from an altimeter file name:
// the piece between the first underscore and the extension.
func missionFromPath(path string) (domain.Mission, error) {
	base := filepath.Base(path)
	_, rest, found := strings.Cut(base, "_")
	if !found {
		return domain.MissionNone, fmt.Errorf("file name %s has no mission token", base)
	}
	token, _, _ := strings.Cut(rest, ".")
	m, ok := domain.MissionByName(token)
	if !ok {
		return domain.MissionNone, fmt.Errorf("unknown altimeter mission %q", token)
	}
	return m, nil
}

// loadSatelliteFile returns nil samples without error when the file's time
// coverage does not overlap the window.
func loadSatelliteFile(path string, mission domain.Mission, window domain.TimeSpan) ([]domain.SatelliteSample, error) {
	nc, err := openGroup(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	times, err := timeAxis(nc, "stime")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !coverageOverlaps(times, window) {
		return nil, nil
	}

	lats, err := floats1D(nc, "latitude")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lons, err := floats1D(nc, "longitude")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	wind, err := firstOf(nc, "wndcal", "wnd")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	hs, err := firstOf(nc, "hskcal", "hskucal", "hs")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	n := len(times)
	if len(lats) != n || len(lons) != n || len(wind) != n || len(hs) != n {
		return nil, fmt.Errorf("%s: variable lengths disagree with %d timestamps", path, n)
	}

	var samples []domain.SatelliteSample
	for i := 0; i < n; i++ {
		if !window.Contains(times[i]) {
			continue
		}
		samples = append(samples, domain.SatelliteSample{
			Time:    times[i],
			Lat:     lats[i],
			Lon:     lons[i],
			Hs:      hs[i],
			Wind:    wind[i],
			Mission: mission,
		})
	}
	return samples, nil
}

// firstOf reads the first of the named variables that exists. Altimeter
// archives evolved their calibration naming over the years; the earlier
// names carry the better-calibrated product.
func firstOf(nc api.Group, names ...string) ([]float64, error) {
	var lastErr error
	for _, name := range names {
		v, err := floats1D(nc, name)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("none of %s present: %w", strings.Join(names, "/"), lastErr)
}

func coverageOverlaps(times []float64, window domain.TimeSpan) bool {
	seen := false
	min, max := 0.0, 0.0
	for _, t := range times {
		if domain.IsMissing(t) {
			continue
		}
		if !seen || t < min {
			min = t
		}
		if !seen || t > max {
			max = t
		}
		seen = true
	}
	return seen && window.Overlaps(domain.TimeSpan{Start: min, End: max})
}
