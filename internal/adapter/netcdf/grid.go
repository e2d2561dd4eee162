package netcdf

import (
	"fmt"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// LoadGrid reads a prepared grid-mask file into a GridDomain. The region
// fields and their name tables are optional: older grid files were produced
// before the region shapefiles existed.
func LoadGrid(path string) (*domain.GridDomain, error) {
	nc, err := openGroup(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	lats, err := floats1D(nc, "latitude")
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", path, err)
	}
	lons, err := floats1D(nc, "longitude")
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", path, err)
	}

	g := &domain.GridDomain{
		Lats: lats,
		Lons: eastLons(lons),
	}

	required := map[string]*[][]float64{
		"mask":      &g.Mask,
		"depth":     &g.Depth,
		"distcoast": &g.DistCoast,
	}
	for name, dst := range required {
		f, err := floats2D(nc, name)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", path, err)
		}
		*dst = f
	}

	if f, err := floats2D(nc, "GlobalOceansSeas"); err == nil {
		g.Oceans = f
		if names, err := strings1D(nc, "names_GlobalOceansSeas"); err == nil {
			g.OceanNames = names
		}
	}
	if f, err := floats2D(nc, "HighSeasMarineZones"); err == nil {
		g.Zones = f
		if names, err := strings1D(nc, "names_HighSeasMarineZones"); err == nil {
			g.ZoneNames = names
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("grid %s: %w", path, err)
	}
	return g, nil
}
