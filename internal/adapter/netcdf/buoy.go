package netcdf

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// NDBCSource loads buoy observations from a directory of NDBC station
// archives, one file per station and year, named <station>h<year>.nc.
type NDBCSource struct {
	Dir string
}

func (s *NDBCSource) Name() string { return "ndbc" }

// Load reads every yearly archive for the station that overlaps the span and
// concatenates the series. Missing a single year is fine as long as at least
// one year could be read.
func (s *NDBCSource) Load(station string, span domain.TimeSpan) (*domain.BuoyRecord, error) {
	rec := &domain.BuoyRecord{Station: station, Source: s.Name()}
	loaded := 0
	var lastErr error

	for y := yearOf(span.Start); y <= yearOf(span.End); y++ {
		path := filepath.Join(s.Dir, fmt.Sprintf("%sh%d.nc", station, y))
		if err := s.loadYear(path, rec); err != nil {
			lastErr = err
			continue
		}
		loaded++
	}
	if loaded == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("span covers no year")
		}
		return nil, fmt.Errorf("ndbc station %s: %w", station, lastErr)
	}
	return rec, nil
}

func (s *NDBCSource) loadYear(path string, rec *domain.BuoyRecord) error {
	nc, err := openGroup(path)
	if err != nil {
		return err
	}
	defer nc.Close()

	times, err := timeAxis(nc, "time")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	hs, err := pointSeries(nc, "wave_height")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	tm, err := pointSeries(nc, "average_wpd")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	dm, err := pointSeries(nc, "mean_wave_dir")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(hs) != len(times) {
		return fmt.Errorf("%s: %d heights for %d timestamps", path, len(hs), len(times))
	}

	lat, err := floats1D(nc, "latitude")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	lon, err := floats1D(nc, "longitude")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(lat) == 0 || len(lon) == 0 {
		return fmt.Errorf("%s: empty station position", path)
	}
	rec.Lat = lat[0]
	rec.Lon = lon[0]

	for i, t := range times {
		sample := domain.BuoySample{Time: t, Hs: hs[i]}
		if i < len(tm) {
			sample.Tm = tm[i]
		} else {
			sample.Tm = domain.Missing()
		}
		if i < len(dm) {
			sample.Dm = dm[i]
		} else {
			sample.Dm = domain.Missing()
		}
		rec.Samples = append(rec.Samples, sample)
	}
	return nil
}

// pointSeries reads an NDBC measurement variable, which is stored as
// [time][1][1], into a flat series.
func pointSeries(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	fill := fillValue(vg)

	if flat, err := toFloats1D(v); err == nil {
		applyFill(flat, fill)
		return flat, nil
	}
	cube, err := toFloats3D(v)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	out := make([]float64, len(cube))
	for i := range cube {
		if len(cube[i]) == 0 || len(cube[i][0]) == 0 {
			out[i] = domain.Missing()
			continue
		}
		out[i] = cube[i][0][0]
	}
	applyFill(out, fill)
	return out, nil
}

// CopernicusSource loads buoy observations from a directory of Copernicus
// in-situ archives named GL_TS_MO_<station>.nc. Measurements carry a depth
// axis; the depth-averaged value stands in for the surface measurement.
type CopernicusSource struct {
	Dir string
}

func (s *CopernicusSource) Name() string { return "copernicus" }

func (s *CopernicusSource) Load(station string, span domain.TimeSpan) (*domain.BuoyRecord, error) {
	path := filepath.Join(s.Dir, "GL_TS_MO_"+station+".nc")
	nc, err := openGroup(path)
	if err != nil {
		return nil, fmt.Errorf("copernicus station %s: %w", station, err)
	}
	defer nc.Close()

	times, err := timeAxis(nc, "TIME")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	hs, err := depthMean(nc, "VHM0")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tm, err := depthMean(nc, "VTM02")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dm, err := depthMean(nc, "VMDR")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(hs) != len(times) {
		return nil, fmt.Errorf("%s: %d heights for %d timestamps", path, len(hs), len(times))
	}

	lat, err := floats1D(nc, "LATITUDE")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lon, err := floats1D(nc, "LONGITUDE")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rec := &domain.BuoyRecord{
		Station: station,
		Source:  s.Name(),
		Lat:     domain.MeanValid(lat),
		Lon:     domain.MeanValid(lon),
	}
	for i, t := range times {
		rec.Samples = append(rec.Samples, domain.BuoySample{Time: t, Hs: hs[i], Tm: tm[i], Dm: dm[i]})
	}
	return rec, nil
}

// depthMean reads a [time][depth] measurement and averages over the valid
// depth bins at each timestamp.
func depthMean(nc api.Group, name string) ([]float64, error) {
	f, err := floats2D(nc, name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(f))
	for i := range f {
		out[i] = domain.MeanValid(f[i])
	}
	return out, nil
}

func yearOf(epoch float64) int {
	return time.Unix(int64(epoch), 0).UTC().Year()
}
