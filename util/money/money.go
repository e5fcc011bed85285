// Package money converts between major units at the API boundary and the
// minor units (kobo) every balance and ledger amount is stored in.
package money

import "math"

// ToMinor converts a major-unit amount to minor units, rounding to the
// nearest kobo so 49.999 from a client does not drop a unit.
func ToMinor(major float64) int64 {
	return int64(math.Round(major * 100))
}

// ToMajor converts minor units back to major units for responses.
func ToMajor(minor int64) float64 {
	return float64(minor) / 100
}
