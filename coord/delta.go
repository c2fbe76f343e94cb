package coord

import (
	"fmt"
	"math"
)

// Delta is a displacement in the same fixed-point units as
// SphericalCoordinate.
type Delta struct {
	DR   int64 // micrometres
	DLat int64 // latitude codes
	DLon int64 // longitude codes
}

// Add returns the component-wise sum.
func (d Delta) Add(o Delta) Delta {
	return Delta{DR: d.DR + o.DR, DLat: d.DLat + o.DLat, DLon: d.DLon + o.DLon}
}

// Scale multiplies every component by k, truncating toward zero.
func (d Delta) Scale(k float64) Delta {
	return Delta{
		DR:   int64(float64(d.DR) * k),
		DLat: int64(float64(d.DLat) * k),
		DLon: int64(float64(d.DLon) * k),
	}
}

func (d Delta) String() string {
	return fmt.Sprintf("Δr=%dµm Δlat=%.9f° Δlon=%.9f°", d.DR, codeToDegrees(d.DLat), codeToDegrees(d.DLon))
}

// ApplyDelta returns c moved by d.
//
// The radius saturates at zero and at the int64 maximum. Latitude that runs
// past a pole is reflected back and the longitude shifted by 180°, once per
// crossing. Both angular deltas are first reduced modulo 360°: a full turn of
// latitude crosses both poles and shifts longitude by a whole revolution, so
// the reduction is exact and keeps the sums inside int64.
func (c SphericalCoordinate) ApplyDelta(d Delta) SphericalCoordinate {
	r := c.r
	switch {
	case d.DR > 0 && r > math.MaxInt64-d.DR:
		r = math.MaxInt64
	default:
		r += d.DR
	}
	if r < 0 {
		r = 0
	}

	lat := c.lat + d.DLat%fullRev
	lon := c.lon + d.DLon%fullRev

	for lat > maxLat || lat < -maxLat {
		if lat > maxLat {
			lat = halfRev - lat
		} else {
			lat = -halfRev - lat
		}
		lon += halfRev
	}

	return SphericalCoordinate{r: r, lat: lat, lon: wrapLon(lon)}
}
