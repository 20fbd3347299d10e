// README: Geographic helpers (great-circle distance, geohash cells).
package location

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"ridesim/internal/types"
)

const (
	earthRadiusMeters = 6371e3
	cellPrecision     = 7
)

// DistanceMeters returns the great-circle (haversine) distance in metres
// between two points specified in decimal degrees. Ranges are not validated.
func DistanceMeters(a, b types.Point) float64 {
	phi1 := degreesToRadians(a.Lat)
	phi2 := degreesToRadians(b.Lat)
	dPhi := degreesToRadians(b.Lat - a.Lat)
	dLambda := degreesToRadians(b.Lng - a.Lng)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Cell returns the geohash cell (~150m) containing p, used to tag log lines.
func Cell(p types.Point) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, cellPrecision)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
