// Package geo provides great-circle geometry over latitude/longitude points.
package geo

import (
	"fmt"
	"math"
	"strings"
)

const earthRadiusKm = 6371.0

// Point is a position on the earth in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// String formats the point as "lat,lng" with six decimal places, the
// precision used for directions requests and cache keys.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// DistanceKm returns the great-circle distance between a and b in kilometers
// using the haversine formula.
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// PathDistanceKm returns the summed great-circle distance along consecutive
// points in the path.
func PathDistanceKm(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// WaypointKey produces the canonical "lat,lng|lat,lng|..." string for a
// waypoint sequence. Identical sequences always produce identical keys.
func WaypointKey(points []Point) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, "|")
}
