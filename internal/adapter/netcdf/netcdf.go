// Package netcdf reads the NetCDF products consumed by a collocation run:
// prepared grid-mask files, cyclone maps, WAVEWATCH III point and field
// output, NDBC and Copernicus buoy archives, and gridded altimeter files.
//
// Everything is converted at the boundary: time axes to epoch seconds,
// longitudes to the east convention, fill values to the missing sentinel.
// Downstream code never sees file-native units.
package netcdf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// floats1D reads a 1-D variable as float64, applying its fill value.
func floats1D(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	out, err := toFloats1D(v)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	applyFill(out, fillValue(vg))
	return out, nil
}

// floats2D reads a 2-D variable as float64, applying its fill value.
func floats2D(nc api.Group, name string) ([][]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	out, err := toFloats2D(v)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	fill := fillValue(vg)
	for i := range out {
		applyFill(out[i], fill)
	}
	return out, nil
}

// strings1D reads a char-array or string variable as a string slice.
func strings1D(nc api.Group, name string) ([]string, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	switch vals := v.(type) {
	case []string:
		out := make([]string, len(vals))
		for i, s := range vals {
			out[i] = strings.TrimRight(s, "\x00 ")
		}
		return out, nil
	case string:
		return []string{strings.TrimRight(vals, "\x00 ")}, nil
	default:
		return nil, fmt.Errorf("variable %s: unsupported string type %T", name, v)
	}
}

func toFloats1D(v any) ([]float64, error) {
	switch vals := v.(type) {
	case []float64:
		return vals, nil
	case []float32:
		return convert1D(vals), nil
	case []int64:
		return convert1D(vals), nil
	case []int32:
		return convert1D(vals), nil
	case []int16:
		return convert1D(vals), nil
	case []int8:
		return convert1D(vals), nil
	case []uint8:
		return convert1D(vals), nil
	default:
		return nil, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toFloats2D(v any) ([][]float64, error) {
	switch vals := v.(type) {
	case [][]float64:
		return vals, nil
	case [][]float32:
		return convert2D(vals), nil
	case [][]int32:
		return convert2D(vals), nil
	case [][]int16:
		return convert2D(vals), nil
	case [][]int8:
		return convert2D(vals), nil
	case [][]uint8:
		return convert2D(vals), nil
	default:
		return nil, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toFloats3D(v any) ([][][]float64, error) {
	switch vals := v.(type) {
	case [][][]float64:
		return vals, nil
	case [][][]float32:
		return convert3D(vals), nil
	case [][][]int32:
		return convert3D(vals), nil
	case [][][]int16:
		return convert3D(vals), nil
	case [][][]int8:
		return convert3D(vals), nil
	case [][][]uint8:
		return convert3D(vals), nil
	default:
		return nil, fmt.Errorf("unsupported numeric type %T", v)
	}
}

type numeric interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~int16 | ~int8 | ~uint8
}

func convert1D[T numeric](vals []T) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

func convert2D[T numeric](vals [][]T) [][]float64 {
	out := make([][]float64, len(vals))
	for i := range vals {
		out[i] = convert1D(vals[i])
	}
	return out
}

func convert3D[T numeric](vals [][][]T) [][][]float64 {
	out := make([][][]float64, len(vals))
	for i := range vals {
		out[i] = convert2D(vals[i])
	}
	return out
}

// fillValue returns the variable's declared fill value, or NaN when none.
func fillValue(vg api.VarGetter) float64 {
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := vg.Attributes().Get(key); ok {
			if f, ok := attrFloat(v); ok {
				return f
			}
		}
	}
	return math.NaN()
}

func attrFloat(v any) (float64, bool) {
	switch a := v.(type) {
	case float64:
		return a, true
	case float32:
		return float64(a), true
	case int32:
		return float64(a), true
	case int16:
		return float64(a), true
	case []float64:
		if len(a) == 1 {
			return a[0], true
		}
	case []float32:
		if len(a) == 1 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) == 1 {
			return float64(a[0]), true
		}
	case []int16:
		if len(a) == 1 {
			return float64(a[0]), true
		}
	}
	return 0, false
}

func applyFill(vals []float64, fill float64) {
	if math.IsNaN(fill) {
		return
	}
	for i, v := range vals {
		if v == fill {
			vals[i] = domain.Missing()
		}
	}
}

// attrString returns a global or variable attribute as a string.
func attrString(am api.AttributeMap, key string) string {
	v, ok := am.Get(key)
	if !ok {
		return ""
	}
	switch a := v.(type) {
	case string:
		return a
	case []string:
		if len(a) > 0 {
			return a[0]
		}
	}
	return ""
}

// timeToEpoch converts a raw time axis to epoch seconds using a CF-style
// units attribute such as "days since 1990-01-01 00:00:00". The conversion
// factor comes from the first word. The epoch base is January 1 of the year
// named in the reference date, ignoring the written month and day; every
// product in this toolchain was prepared against that convention.
func timeToEpoch(raw []float64, units string) ([]float64, error) {
	fields := strings.Fields(units)
	if len(fields) < 3 {
		return nil, fmt.Errorf("cannot parse time units %q", units)
	}

	var factor float64
	switch fields[0] {
	case "seconds":
		factor = 1
	case "hours":
		factor = 3600
	case "days":
		factor = 24 * 3600
	default:
		return nil, fmt.Errorf("unsupported time unit %q", fields[0])
	}

	if len(fields[2]) < 4 {
		return nil, fmt.Errorf("cannot parse reference date in %q", units)
	}
	year, err := strconv.Atoi(fields[2][:4])
	if err != nil {
		return nil, fmt.Errorf("cannot parse reference year in %q: %w", units, err)
	}
	base := float64(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Unix())

	out := make([]float64, len(raw))
	for i, v := range raw {
		if domain.IsMissing(v) {
			out[i] = v
			continue
		}
		out[i] = v*factor + base
	}
	return out, nil
}

// timeAxis reads a time variable and converts it to epoch seconds.
func timeAxis(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	raw, err := toFloats1D(v)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	units := attrString(vg.Attributes(), "units")
	if units == "" {
		// No units attribute: already epoch seconds (NDBC convention).
		return raw, nil
	}
	return timeToEpoch(raw, units)
}

// eastLons normalizes a longitude axis to the east convention in place.
func eastLons(lons []float64) []float64 {
	for i, lon := range lons {
		lons[i] = domain.ToEast360(lon)
	}
	return lons
}

func openGroup(path string) (api.Group, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return nc, nil
}
