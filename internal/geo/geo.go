// Package geo computes great-circle distances between coordinates.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371008.8

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the haversine distance in metres between two points given
// in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Within reports whether (lat, lon) lies within radius metres of the centre.
// A non-positive radius never matches.
func Within(centerLat, centerLon, radius, lat, lon float64) bool {
	if radius <= 0 {
		return false
	}
	return Distance(centerLat, centerLon, lat, lon) <= radius
}

// ValidCoordinates reports whether lat and lon are in range.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
