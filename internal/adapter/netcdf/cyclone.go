package netcdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// LoadCycloneMaps reads one or more cyclone map files and merges them along
// the time axis. All files must share the same lat/lon axes, and those axes
// must equal the prepared grid's; a difference is ErrGridMismatch.
//
// The code legend is parsed from the global "info" attribute, which carries
// a colon-separated header followed by semicolon-separated code meanings.
func LoadCycloneMaps(paths []string, grid *domain.GridDomain) (*domain.CycloneRaster, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no cyclone map files given")
	}

	var raster *domain.CycloneRaster
	for _, path := range paths {
		part, err := loadCycloneFile(path)
		if err != nil {
			return nil, err
		}
		if raster == nil {
			raster = part
			continue
		}
		if !domain.SameAxes(part.Lats, raster.Lats) || !domain.SameAxes(part.Lons, raster.Lons) {
			return nil, fmt.Errorf("cyclone map %s: %w", path, domain.ErrGridMismatch)
		}
		raster.Times = append(raster.Times, part.Times...)
		raster.Codes = append(raster.Codes, part.Codes...)
		if len(raster.Legend) == 0 {
			raster.Legend = part.Legend
		}
	}

	if grid != nil {
		if !domain.SameAxes(raster.Lats, grid.Lats) || !domain.SameAxes(raster.Lons, grid.Lons) {
			return nil, fmt.Errorf("cyclone maps: %w", domain.ErrGridMismatch)
		}
	}

	sortCycloneSlices(raster)
	return raster, nil
}

func loadCycloneFile(path string) (*domain.CycloneRaster, error) {
	nc, err := openGroup(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	lats, err := floats1D(nc, "lat")
	if err != nil {
		return nil, fmt.Errorf("cyclone map %s: %w", path, err)
	}
	lons, err := floats1D(nc, "lon")
	if err != nil {
		return nil, fmt.Errorf("cyclone map %s: %w", path, err)
	}
	times, err := timeAxis(nc, "time")
	if err != nil {
		return nil, fmt.Errorf("cyclone map %s: %w", path, err)
	}

	vg, err := nc.GetVarGetter("cmap")
	if err != nil {
		return nil, fmt.Errorf("cyclone map %s: %w", path, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("cyclone map %s: %w", path, err)
	}
	codes, err := toFloats3D(v)
	if err != nil {
		return nil, fmt.Errorf("cyclone map %s: variable cmap: %w", path, err)
	}
	if len(codes) != len(times) {
		return nil, fmt.Errorf("cyclone map %s: %d slices for %d timestamps", path, len(codes), len(times))
	}

	return &domain.CycloneRaster{
		Lats:   lats,
		Lons:   eastLons(lons),
		Times:  times,
		Codes:  codes,
		Legend: parseLegend(attrString(nc.Attributes(), "info")),
	}, nil
}

// parseLegend splits an "info" attribute like
// "Cyclone codes: 0 no cyclone; 1 tropical depression; ..." into its entries.
func parseLegend(info string) []string {
	_, body, found := strings.Cut(info, ":")
	if !found {
		return nil
	}
	var legend []string
	for _, entry := range strings.Split(body, ";") {
		if entry = strings.TrimSpace(entry); entry != "" {
			legend = append(legend, entry)
		}
	}
	return legend
}

// sortCycloneSlices orders merged slices by timestamp so lookup by nearest
// time behaves the same regardless of file order on the command line.
func sortCycloneSlices(r *domain.CycloneRaster) {
	idx := make([]int, len(r.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return r.Times[idx[a]] < r.Times[idx[b]] })

	times := make([]float64, len(idx))
	codes := make([][][]float64, len(idx))
	for i, j := range idx {
		times[i] = r.Times[j]
		codes[i] = r.Codes[j]
	}
	r.Times = times
	r.Codes = codes
}
