// Package geo keeps the spatial index of user positions and answers radius
// queries over it.
package geo

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"

	svcErr "github.com/oggyb/tripmate-match/internal/errors"
)

// ErrInvalidCoordinates is returned for NaN, infinite or out of range points.
var ErrInvalidCoordinates = fmt.Errorf("%w: invalid coordinates", svcErr.ErrInvalidArgument)

// Redis stores positions as 52-bit geohashes, which cannot represent the
// polar caps beyond this latitude.
const maxIndexableLat = 85.05112878

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate rejects non-finite or out of range coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return ErrInvalidCoordinates
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: (%g, %g) out of range", ErrInvalidCoordinates, p.Lat, p.Lon)
	}
	return nil
}

// Indexable reports whether p lies inside the band a GEO set can hold.
func (p Point) Indexable() bool {
	return p.indexable() == nil
}

// indexable reports whether the point can be stored in a Redis GEO set.
func (p Point) indexable() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if math.Abs(p.Lat) > maxIndexableLat {
		return fmt.Errorf("%w: latitude %g outside indexable band", ErrInvalidCoordinates, p.Lat)
	}
	return nil
}

// DistanceKm is the geodesic distance between a and b on the WGS84 ellipsoid.
func DistanceKm(a, b Point) float64 {
	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &meters, nil, nil)
	return meters / 1000
}
