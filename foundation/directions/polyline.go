package directions

import (
	"github.com/RideMatchTools/ridematch/foundation/geo"
)

// DecodePolyline decodes an encoded polyline string into points.
// The encoding stores signed lat/lng deltas at 1e-5 precision in 5-bit
// chunks offset by 63. Malformed trailing data ends the decode early.
func DecodePolyline(encoded string) []geo.Point {
	var points []geo.Point
	lat, lng := 0, 0
	i := 0
	for i < len(encoded) {
		dLat, next, ok := decodeSignedValue(encoded, i)
		if !ok {
			break
		}
		i = next
		dLng, next, ok := decodeSignedValue(encoded, i)
		if !ok {
			break
		}
		i = next

		lat += dLat
		lng += dLng
		points = append(points, geo.Point{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}
	return points
}

func decodeSignedValue(encoded string, i int) (value int, next int, ok bool) {
	result := 0
	shift := uint(0)
	for {
		if i >= len(encoded) {
			return 0, i, false
		}
		b := int(encoded[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, true
	}
	return result >> 1, i, true
}
