package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	EarthRadiusKm = 6378.137              // semi-major axis
	wgs84F        = 1.0 / 298.257223563   // flattening
	wgs84E2       = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Geodetic is a position relative to the WGS-84 ellipsoid.
type Geodetic struct {
	Latitude   float64 // radians, [-π/2, π/2]
	Longitude  float64 // radians, [-π, π]
	AltitudeKm float64 // above the ellipsoid
}

// LookAngles holds azimuth, elevation and range from an observer to a target.
type LookAngles struct {
	Azimuth   float64 // radians clockwise from north, [0, 2π]
	Elevation float64 // radians above the horizon
	RangeKm   float64
}

// GeodeticToECEF returns the earth-fixed position of a geodetic point.
func GeodeticToECEF(g Geodetic) Vector {
	sinLat := math.Sin(g.Latitude)
	cosLat := math.Cos(g.Latitude)

	// Radius of curvature in the prime vertical.
	N := EarthRadiusKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vector{
		X: (N + g.AltitudeKm) * cosLat * math.Cos(g.Longitude),
		Y: (N + g.AltitudeKm) * cosLat * math.Sin(g.Longitude),
		Z: (N*(1-wgs84E2) + g.AltitudeKm) * sinLat,
	}
}

// ECEFToGeodetic converts an earth-fixed position to geodetic coordinates by
// fixed-point iteration on latitude (Bowring start). Converges in 2-3
// iterations for Earth orbits.
func ECEFToGeodetic(r Vector) Geodetic {
	lon := math.Atan2(r.Y, r.X)
	p := math.Sqrt(r.X*r.X + r.Y*r.Y)

	lat := math.Atan2(r.Z, p*(1-wgs84E2))
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		N := EarthRadiusKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		next := math.Atan2(r.Z+wgs84E2*N*sinLat, p)
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := EarthRadiusKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(r.Z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return Geodetic{Latitude: lat, Longitude: lon, AltitudeKm: alt}
}

// TEMEToGeodetic is ECEFToGeodetic applied after the GMST rotation.
func TEMEToGeodetic(r Vector, gmst float64) Geodetic {
	return ECEFToGeodetic(TEMEToECEF(r, gmst))
}

// ECEFToLookAngles computes azimuth, elevation and range from observer to a
// target given in earth-fixed kilometres.
//
// The range vector is rotated into SEZ (South-East-Zenith) per Vallado §4.4.
// Azimuth is atan2(-E, S) shifted by π, which measures clockwise from north.
func ECEFToLookAngles(observer Geodetic, target Vector) LookAngles {
	rho := target.Sub(GeodeticToECEF(observer))

	sinLat := math.Sin(observer.Latitude)
	cosLat := math.Cos(observer.Latitude)
	sinLon := math.Sin(observer.Longitude)
	cosLon := math.Cos(observer.Longitude)

	south := sinLat*cosLon*rho.X + sinLat*sinLon*rho.Y - cosLat*rho.Z
	east := -sinLon*rho.X + cosLon*rho.Y
	zenith := cosLat*cosLon*rho.X + cosLat*sinLon*rho.Y + sinLat*rho.Z

	rng := math.Sqrt(south*south + east*east + zenith*zenith)

	return LookAngles{
		Azimuth:   math.Atan2(-east, south) + math.Pi,
		Elevation: math.Asin(zenith / rng),
		RangeKm:   rng,
	}
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }
