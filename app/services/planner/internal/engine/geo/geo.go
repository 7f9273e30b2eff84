// Package geo holds the place catalog and the geodesic helpers the
// extractor, transfer composer and itinerary generator share.
package geo

import "math"

const earthRadiusKm = 6371.0

// Place is anything with a position on the globe.
type Place struct {
	Name string
	Lat  float64
	Lng  float64
}

// DistanceKm returns the haversine distance between two points.
func DistanceKm(aLat, aLng, bLat, bLng float64) float64 {
	latA := aLat * math.Pi / 180
	latB := bLat * math.Pi / 180
	dLat := (bLat - aLat) * math.Pi / 180
	dLng := (bLng - aLng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Distance returns the haversine distance between two places.
func Distance(a, b Place) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}
