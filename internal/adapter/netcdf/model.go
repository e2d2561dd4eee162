package netcdf

import (
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// LoadPointTable reads one WAVEWATCH III tabulated point-output file.
// The file stores variables as [time][station]; the table is transposed to
// one sample row per station so station lookups are contiguous.
func LoadPointTable(path string) (*domain.PointTable, error) {
	nc, err := openGroup(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	stations, err := strings1D(nc, "station_name")
	if err != nil {
		return nil, fmt.Errorf("point output %s: %w", path, err)
	}
	times, err := timeAxis(nc, "time")
	if err != nil {
		return nil, fmt.Errorf("point output %s: %w", path, err)
	}

	hs, err := floats2D(nc, "hs")
	if err != nil {
		return nil, fmt.Errorf("point output %s: %w", path, err)
	}
	tm, err := floats2D(nc, "tr")
	if err != nil {
		return nil, fmt.Errorf("point output %s: %w", path, err)
	}
	dm, err := floats2D(nc, "th1m")
	if err != nil {
		return nil, fmt.Errorf("point output %s: %w", path, err)
	}

	nT, nS := len(times), len(stations)
	for name, f := range map[string][][]float64{"hs": hs, "tr": tm, "th1m": dm} {
		if len(f) != nT {
			return nil, fmt.Errorf("point output %s: variable %s has %d timesteps, want %d", path, name, len(f), nT)
		}
	}

	samples := make([][]domain.PointSample, nS)
	for s := 0; s < nS; s++ {
		row := make([]domain.PointSample, nT)
		for t := 0; t < nT; t++ {
			if len(hs[t]) != nS {
				return nil, fmt.Errorf("point output %s: timestep %d has %d stations, want %d", path, t, len(hs[t]), nS)
			}
			row[t] = domain.PointSample{Hs: hs[t][s], Tm: tm[t][s], Dm: dm[t][s]}
		}
		samples[s] = row
	}

	return &domain.PointTable{Stations: stations, Times: times, Samples: samples}, nil
}

// FieldReader is an open model field-output file. Slices are read lazily,
// one timestep at a time, because a multi-day field file does not fit in
// memory comfortably and most timesteps have no matching observation.
type FieldReader struct {
	nc    api.Group
	path  string
	lats  []float64
	lons  []float64
	times []float64

	hs   api.VarGetter
	uwnd api.VarGetter
	vwnd api.VarGetter

	hsFill float64
	uFill  float64
	vFill  float64
}

// OpenField opens a model field-output file. Two naming schemes are in use:
// native WAVEWATCH III output carries hs/uwnd/vwnd, grib-converted output
// carries HTSGW_surface/UGRD_surface/VGRD_surface.
func OpenField(path string) (*FieldReader, error) {
	nc, err := openGroup(path)
	if err != nil {
		return nil, err
	}

	ff := &FieldReader{nc: nc, path: path}
	ok := false
	defer func() {
		if !ok {
			nc.Close()
		}
	}()

	ff.lats, err = floats1D(nc, "latitude")
	if err != nil {
		return nil, fmt.Errorf("field output %s: %w", path, err)
	}
	lons, err := floats1D(nc, "longitude")
	if err != nil {
		return nil, fmt.Errorf("field output %s: %w", path, err)
	}
	ff.lons = eastLons(lons)
	ff.times, err = timeAxis(nc, "time")
	if err != nil {
		return nil, fmt.Errorf("field output %s: %w", path, err)
	}

	if ff.hs, err = nc.GetVarGetter("hs"); err == nil {
		if ff.uwnd, err = nc.GetVarGetter("uwnd"); err != nil {
			return nil, fmt.Errorf("field output %s: %w", path, err)
		}
		if ff.vwnd, err = nc.GetVarGetter("vwnd"); err != nil {
			return nil, fmt.Errorf("field output %s: %w", path, err)
		}
	} else {
		if ff.hs, err = nc.GetVarGetter("HTSGW_surface"); err != nil {
			return nil, fmt.Errorf("field output %s: no hs or HTSGW_surface variable: %w", path, err)
		}
		if ff.uwnd, err = nc.GetVarGetter("UGRD_surface"); err != nil {
			return nil, fmt.Errorf("field output %s: %w", path, err)
		}
		if ff.vwnd, err = nc.GetVarGetter("VGRD_surface"); err != nil {
			return nil, fmt.Errorf("field output %s: %w", path, err)
		}
	}
	ff.hsFill = fillValue(ff.hs)
	ff.uFill = fillValue(ff.uwnd)
	ff.vFill = fillValue(ff.vwnd)

	ok = true
	return ff, nil
}

func (f *FieldReader) Lats() []float64  { return f.lats }
func (f *FieldReader) Lons() []float64  { return f.lons }
func (f *FieldReader) Times() []float64 { return f.times }

func (f *FieldReader) Close() error {
	f.nc.Close()
	return nil
}

// Slice reads one timestep. Wind speed is the magnitude of the component
// fields; it is missing wherever either component is.
func (f *FieldReader) Slice(i int) (domain.FieldSlice, error) {
	if i < 0 || i >= len(f.times) {
		return domain.FieldSlice{}, fmt.Errorf("field output %s: timestep %d out of range", f.path, i)
	}

	hs, err := f.readSlice(f.hs, i, f.hsFill)
	if err != nil {
		return domain.FieldSlice{}, err
	}
	u, err := f.readSlice(f.uwnd, i, f.uFill)
	if err != nil {
		return domain.FieldSlice{}, err
	}
	v, err := f.readSlice(f.vwnd, i, f.vFill)
	if err != nil {
		return domain.FieldSlice{}, err
	}

	wind := make([][]float64, len(u))
	for r := range u {
		wind[r] = make([]float64, len(u[r]))
		for c := range u[r] {
			wind[r][c] = math.Sqrt(u[r][c]*u[r][c] + v[r][c]*v[r][c])
		}
	}

	return domain.FieldSlice{Hs: hs, Wind: wind}, nil
}

func (f *FieldReader) readSlice(vg api.VarGetter, i int, fill float64) ([][]float64, error) {
	v, err := vg.GetSlice(int64(i), int64(i)+1)
	if err != nil {
		return nil, fmt.Errorf("field output %s: timestep %d: %w", f.path, i, err)
	}
	vals, err := toFloats3D(v)
	if err != nil {
		return nil, fmt.Errorf("field output %s: timestep %d: %w", f.path, i, err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("field output %s: timestep %d: got %d slices", f.path, i, len(vals))
	}
	out := vals[0]
	for r := range out {
		applyFill(out[r], fill)
	}
	return out, nil
}
