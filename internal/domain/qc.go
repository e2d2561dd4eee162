package domain

// QCRange is an inclusive/exclusive physical-range predicate: a value is
// valid when Min <= v < Max. Applying a range replaces out-of-range values
// with the missing sentinel instead of dropping them, preserving index
// alignment across series. Missing stays missing, which makes application
// idempotent.
type QCRange struct {
	Min float64
	Max float64
}

// Physical ranges per variable. The altimeter wave-height bound is tighter
// than the buoy/model bound because altimeter retrievals above 20 m are not
// credible. Direction is validated against one unified [-180, 360) band
// covering both signed and unsigned reporting conventions.
var (
	QCBuoyHeight      = QCRange{Min: 0.0, Max: 30.0}
	QCAltimeterHeight = QCRange{Min: 0.0, Max: 20.0}
	QCPeriod          = QCRange{Min: 0.0, Max: 40.0}
	QCDirection       = QCRange{Min: -180.0, Max: 360.0}
	QCWind            = QCRange{Min: 0.0, Max: 60.0}
)

// Apply returns v unchanged when valid, missing otherwise.
func (r QCRange) Apply(v float64) float64 {
	if v >= r.Min && v < r.Max {
		return v
	}
	return Missing()
}

// Valid reports whether v passes the range predicate.
func (r QCRange) Valid(v float64) bool {
	return v >= r.Min && v < r.Max
}

// ApplySeries applies the range to every element in place.
func (r QCRange) ApplySeries(vals []float64) {
	for i, v := range vals {
		vals[i] = r.Apply(v)
	}
}

// QCPointSample range-checks one model point sample.
func QCPointSample(s PointSample) PointSample {
	s.Hs = QCBuoyHeight.Apply(s.Hs)
	s.Tm = QCPeriod.Apply(s.Tm)
	s.Dm = QCDirection.Apply(s.Dm)
	return s
}

// QCBuoySample range-checks one buoy observation, leaving its timestamp
// untouched.
func QCBuoySample(s BuoySample) BuoySample {
	s.Hs = QCBuoyHeight.Apply(s.Hs)
	s.Tm = QCPeriod.Apply(s.Tm)
	s.Dm = QCDirection.Apply(s.Dm)
	return s
}
