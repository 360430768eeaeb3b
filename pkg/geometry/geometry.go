package geometry

import (
	"math"
)

// EarthRadiusNM is the mean earth radius in nautical miles.
const EarthRadiusNM = 3440.06

// --- Geometry Helpers ---

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistNM returns the great-circle distance between two points in nautical miles.
func DistNM(lat1, lon1, lat2, lon2 float64) float64 {
	r1, r2 := toRad(lat1), toRad(lat2)

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	// --- handle dateline crossing ---
	for dLon > math.Pi {
		dLon -= 2 * math.Pi
	}
	for dLon < -math.Pi {
		dLon += 2 * math.Pi
	}

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(r1)*math.Cos(r2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusNM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BearingDeg returns the initial true bearing from point 1 to point 2, 0..360.
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	r1, r2 := toRad(lat1), toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(r2)
	x := math.Cos(r1)*math.Sin(r2) - math.Sin(r1)*math.Cos(r2)*math.Cos(dLon)

	return NormalizeHeading(toDeg(math.Atan2(y, x)))
}

// DestinationPoint returns the point reached after travelling distNM along the
// given true bearing from lat/lon.
func DestinationPoint(lat, lon, bearingDeg, distNM float64) (float64, float64) {
	d := distNM / EarthRadiusNM
	b := toRad(bearingDeg)
	r1 := toRad(lat)
	l1 := toRad(lon)

	r2 := math.Asin(math.Sin(r1)*math.Cos(d) + math.Cos(r1)*math.Sin(d)*math.Cos(b))
	l2 := l1 + math.Atan2(math.Sin(b)*math.Sin(d)*math.Cos(r1), math.Cos(d)-math.Sin(r1)*math.Sin(r2))

	return toDeg(r2), normalizeLon(toDeg(l2))
}

// Interpolate returns the point at fraction f (0..1) of the straight line between
// two points. Airspace legs are short enough that the rhumb error is negligible.
func Interpolate(lat1, lon1, lat2, lon2, f float64) (float64, float64) {
	dLon := lon2 - lon1
	if dLon > 180 {
		dLon -= 360
	} else if dLon < -180 {
		dLon += 360
	}
	return lat1 + (lat2-lat1)*f, normalizeLon(lon1 + dLon*f)
}

// NormalizeHeading maps any angle in degrees onto 0 <= h < 360.
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
