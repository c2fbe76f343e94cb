// Package coord holds the fixed-point spherical coordinate used to place
// points relative to a body's centre.
//
// Radius is stored in whole micrometres and latitude/longitude as integer
// codes of Scale units per degree. All authoritative arithmetic stays in
// integers so repeated movement across many ticks does not drift; the float
// accessors exist for geometry and display only.
package coord

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Scale is the number of integer codes per degree of latitude/longitude.
	Scale int64 = 100_000_000_000

	// MicrometersPerMeter converts the stored radius to metres.
	MicrometersPerMeter = 1_000_000

	maxLat  = 90 * Scale
	halfRev = 180 * Scale
	fullRev = 360 * Scale
)

// ErrSingularCoordinate is returned when a direction is requested for a
// coordinate at the body's origin (r = 0), where no surface normal exists.
var ErrSingularCoordinate = errors.New("singular coordinate: radius is zero")

// SphericalCoordinate is an immutable (radius, latitude, longitude) triple.
// The zero value is the body origin.
type SphericalCoordinate struct {
	r   int64
	lat int64
	lon int64
}

// New builds a normalized coordinate: negative radii are floored at zero,
// latitude is clamped to ±90° and longitude wrapped into [-180°, 180°).
func New(rUm, lat, lon int64) SphericalCoordinate {
	if rUm < 0 {
		rUm = 0
	}
	if lat > maxLat {
		lat = maxLat
	} else if lat < -maxLat {
		lat = -maxLat
	}
	return SphericalCoordinate{r: rUm, lat: lat, lon: wrapLon(lon)}
}

// FromDegrees builds a coordinate from metres and degrees, rounding to the
// nearest fixed-point unit.
func FromDegrees(radiusM, latDeg, lonDeg float64) SphericalCoordinate {
	return New(
		int64(math.Round(radiusM*MicrometersPerMeter)),
		degreesToCode(latDeg),
		degreesToCode(lonDeg),
	)
}

// RadiusUm returns the radius in micrometres.
func (c SphericalCoordinate) RadiusUm() int64 { return c.r }

// LatCode returns the raw latitude code.
func (c SphericalCoordinate) LatCode() int64 { return c.lat }

// LonCode returns the raw longitude code.
func (c SphericalCoordinate) LonCode() int64 { return c.lon }

// RadiusM returns the radius in metres.
func (c SphericalCoordinate) RadiusM() float64 {
	return float64(c.r) / MicrometersPerMeter
}

func (c SphericalCoordinate) LatDegrees() float64 { return codeToDegrees(c.lat) }
func (c SphericalCoordinate) LonDegrees() float64 { return codeToDegrees(c.lon) }
func (c SphericalCoordinate) LatRadians() float64 { return mgl64.DegToRad(c.LatDegrees()) }
func (c SphericalCoordinate) LonRadians() float64 { return mgl64.DegToRad(c.LonDegrees()) }

// IsOrigin reports whether the coordinate sits at the body centre.
func (c SphericalCoordinate) IsOrigin() bool { return c.r == 0 }

// ToCartesian converts to a body-centred Cartesian vector in metres.
// +Z points to latitude +90°, +X to (0°, 0°) and +Y to (0°, 90°E).
func (c SphericalCoordinate) ToCartesian() mgl64.Vec3 {
	r := c.RadiusM()
	sinLat, cosLat := math.Sincos(c.LatRadians())
	sinLon, cosLon := math.Sincos(c.LonRadians())
	return mgl64.Vec3{
		r * cosLat * cosLon,
		r * cosLat * sinLon,
		r * sinLat,
	}
}

// FromCartesian converts a body-centred vector in metres back to fixed point.
// Latitude uses atan2 against the equatorial projection, which stays well
// conditioned near the poles. Longitude is undefined on the polar axis and
// reported as zero there.
func FromCartesian(v mgl64.Vec3) SphericalCoordinate {
	horiz := math.Hypot(v[0], v[1])
	r := math.Sqrt(horiz*horiz + v[2]*v[2])
	if r == 0 {
		return SphericalCoordinate{}
	}
	lat := mgl64.RadToDeg(math.Atan2(v[2], horiz))
	lon := 0.0
	if horiz != 0 {
		lon = mgl64.RadToDeg(math.Atan2(v[1], v[0]))
	}
	return New(
		int64(math.Round(r*MicrometersPerMeter)),
		degreesToCode(lat),
		degreesToCode(lon),
	)
}

// UnitRadial returns the outward unit vector through the coordinate.
func (c SphericalCoordinate) UnitRadial() (mgl64.Vec3, error) {
	if c.IsOrigin() {
		return mgl64.Vec3{}, ErrSingularCoordinate
	}
	sinLat, cosLat := math.Sincos(c.LatRadians())
	sinLon, cosLon := math.Sincos(c.LonRadians())
	return mgl64.Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}, nil
}

// DistanceM returns the straight-line (chord) distance between a and b in metres.
func DistanceM(a, b SphericalCoordinate) float64 {
	return a.ToCartesian().Sub(b.ToCartesian()).Len()
}

// GreatCircleM returns the surface distance between a and b along a sphere of
// the given radius, using the haversine form.
func GreatCircleM(a, b SphericalCoordinate, radiusM float64) float64 {
	dLat := b.LatRadians() - a.LatRadians()
	dLon := b.LonRadians() - a.LonRadians()
	sLat := math.Sin(dLat / 2)
	sLon := math.Sin(dLon / 2)
	h := sLat*sLat + math.Cos(a.LatRadians())*math.Cos(b.LatRadians())*sLon*sLon
	h = mgl64.Clamp(h, 0, 1)
	return 2 * radiusM * math.Asin(math.Sqrt(h))
}

func (c SphericalCoordinate) String() string {
	return fmt.Sprintf("r=%dµm lat=%.9f° lon=%.9f°", c.r, c.LatDegrees(), c.LonDegrees())
}

func degreesToCode(deg float64) int64 {
	return int64(math.Round(deg * float64(Scale)))
}

func codeToDegrees(code int64) float64 {
	return float64(code) / float64(Scale)
}

// wrapLon maps any longitude code into [-180°, 180°). The first remainder
// keeps the intermediate sum far from int64 overflow.
func wrapLon(lon int64) int64 {
	lon %= fullRev
	return ((lon+halfRev)%fullRev+fullRev)%fullRev - halfRev
}
