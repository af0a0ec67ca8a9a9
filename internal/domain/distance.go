package domain

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. It is symmetric, zero for identical points, and defined
// for any finite input, including out-of-range coordinates.
func DistanceKm(a, b Coordinates) float64 {
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLat := b.Lat*degToRad - a.Lat*degToRad
	dLng := b.Lng*degToRad - a.Lng*degToRad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push h slightly outside [0, 1] for antipodal or
	// out-of-range inputs, which would make Sqrt(1-h) NaN.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
