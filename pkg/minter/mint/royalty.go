package mint

import "math"

// MaxBasisPoints is the protocol ceiling for seller fees (100%).
const MaxBasisPoints = 10000

// BasisPoints converts a royalty percentage into basis points
// (percent × 100), rounded to the nearest point and clamped to
// [0, MaxBasisPoints]. NaN converts to 0.
func BasisPoints(percent float64) uint16 {
	if math.IsNaN(percent) || percent <= 0 {
		return 0
	}

	bps := math.Round(percent * 100)
	if bps > MaxBasisPoints {
		return MaxBasisPoints
	}

	return uint16(bps)
}
