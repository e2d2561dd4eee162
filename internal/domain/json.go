package domain

import (
	"encoding/json"
	"time"
)

// jsonRecord is the wire form of a MatchupRecord. Missing values become
// JSON null, because NaN has no JSON representation.
type jsonRecord struct {
	Time    float64 `json:"time"`
	Station string  `json:"station,omitempty"`
	Mission string  `json:"mission,omitempty"`
	Month   int     `json:"month,omitempty"`

	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	LatIdx *int    `json:"lat_idx,omitempty"`
	LonIdx *int    `json:"lon_idx,omitempty"`

	ModelHs   *float64 `json:"model_hs"`
	ModelTm   *float64 `json:"model_tm,omitempty"`
	ModelDm   *float64 `json:"model_dm,omitempty"`
	ModelWind *float64 `json:"model_wind,omitempty"`
	ObsHs     *float64 `json:"obs_hs"`
	ObsTm     *float64 `json:"obs_tm,omitempty"`
	ObsDm     *float64 `json:"obs_dm,omitempty"`
	ObsWind   *float64 `json:"obs_wind,omitempty"`

	Depth     *float64 `json:"depth,omitempty"`
	DistCoast *float64 `json:"distcoast,omitempty"`
	Ocean     *float64 `json:"ocean,omitempty"`
	Zone      *float64 `json:"zone,omitempty"`
	Cyclone   *float64 `json:"cyclone,omitempty"`
	Cycle     *float64 `json:"cycle,omitempty"`
}

// MarshalJSON encodes the record with missing values as null or omitted.
func (r MatchupRecord) MarshalJSON() ([]byte, error) {
	j := jsonRecord{
		Time:      r.Time,
		Station:   r.Station,
		Mission:   r.Mission.String(),
		Month:     r.Month,
		Lat:       r.Lat,
		Lon:       r.Lon,
		ModelHs:   optFloat(r.ModelHs),
		ModelTm:   optFloat(r.ModelTm),
		ModelDm:   optFloat(r.ModelDm),
		ModelWind: optFloat(r.ModelWind),
		ObsHs:     optFloat(r.ObsHs),
		ObsTm:     optFloat(r.ObsTm),
		ObsDm:     optFloat(r.ObsDm),
		ObsWind:   optFloat(r.ObsWind),
		Depth:     optFloat(r.Depth),
		DistCoast: optFloat(r.DistCoast),
		Ocean:     optFloat(r.Ocean),
		Zone:      optFloat(r.Zone),
		Cyclone:   optFloat(r.Cyclone),
		Cycle:     optFloat(r.Cycle),
	}
	if r.LatIdx >= 0 {
		j.LatIdx = &r.LatIdx
		j.LonIdx = &r.LonIdx
	}
	return json.Marshal(j)
}

func optFloat(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	return &v
}

// jsonSet mirrors MatchupSet for serialization, with the summary attached.
type jsonSet struct {
	Tag           string          `json:"tag"`
	Count         int             `json:"count"`
	Start         float64         `json:"start"`
	End           float64         `json:"end"`
	OceanNames    []string        `json:"ocean_names,omitempty"`
	ZoneNames     []string        `json:"zone_names,omitempty"`
	CycloneLegend []string        `json:"cyclone_legend,omitempty"`
	ProducedAt    time.Time       `json:"produced_at"`
	Records       []MatchupRecord `json:"records"`
}

// MarshalJSON encodes the set with its computed summary inlined.
func (s MatchupSet) MarshalJSON() ([]byte, error) {
	sum := s.Summary()
	return json.Marshal(jsonSet{
		Tag:           s.Tag,
		Count:         sum.Count,
		Start:         sum.Start,
		End:           sum.End,
		OceanNames:    s.OceanNames,
		ZoneNames:     s.ZoneNames,
		CycloneLegend: s.CycloneLegend,
		ProducedAt:    s.ProducedAt,
		Records:       s.Records,
	})
}
