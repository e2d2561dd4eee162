package domain

// ToEast360 maps a signed longitude into the east convention used for all
// grid lookups: negative values are shifted up by 360, everything else is
// left alone. Idempotent for inputs already in [0, 360).
func ToEast360(lon float64) float64 {
	if lon < 0 {
		return lon + 360
	}
	return lon
}

// ToSigned180 maps an east longitude into the signed convention used for
// persisted output: values above 180 are shifted down by 360. Inverse of
// ToEast360 on grid-range inputs, and idempotent for already-signed values.
func ToSigned180(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}
