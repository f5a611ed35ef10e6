package transform

import (
	"math"
	"testing"
)

func geo(latDeg, lonDeg, altKm float64) Geodetic {
	return Geodetic{Latitude: Radians(latDeg), Longitude: Radians(lonDeg), AltitudeKm: altKm}
}

func TestGeodeticToECEF_Magnitude(t *testing.T) {
	// Observer at sea level on the equator sits on the semi-major axis.
	if mag := GeodeticToECEF(geo(0, 0, 0)).Norm(); math.Abs(mag-6378.137) > 1e-3 {
		t.Errorf("equatorial observer magnitude = %.4f km, want 6378.137 km", mag)
	}

	// North pole: polar radius.
	if mag := GeodeticToECEF(geo(90, 0, 0)).Norm(); math.Abs(mag-6356.7523) > 1e-3 {
		t.Errorf("polar observer magnitude = %.4f km, want ~6356.752 km", mag)
	}
}

func TestGeodeticToECEF_Altitude(t *testing.T) {
	mag0 := GeodeticToECEF(geo(0, 0, 0)).Norm()
	mag100 := GeodeticToECEF(geo(0, 0, 0.1)).Norm()

	if diff := mag100 - mag0; math.Abs(diff-0.1) > 1e-5 {
		t.Errorf("altitude difference = %.6f km, want 0.1 km", diff)
	}
}

func TestECEFToLookAngles_DirectlyOverhead(t *testing.T) {
	obs := geo(0, 0, 0)
	sat := GeodeticToECEF(obs)
	sat.X += 400

	la := ECEFToLookAngles(obs, sat)

	if math.Abs(Degrees(la.Elevation)-90.0) > 0.1 {
		t.Errorf("overhead elevation = %.2f deg, want ~90", Degrees(la.Elevation))
	}
	if math.Abs(la.RangeKm-400.0) > 1e-6 {
		t.Errorf("overhead range = %.3f km, want 400", la.RangeKm)
	}
}

func TestECEFToLookAngles_BelowHorizon(t *testing.T) {
	// A satellite over the opposite side of the Earth.
	la := ECEFToLookAngles(geo(0, 0, 0), GeodeticToECEF(geo(0, 180, 400)))
	if Degrees(la.Elevation) > -80 {
		t.Errorf("antipodal elevation = %.2f deg, want near -90", Degrees(la.Elevation))
	}
}

func TestECEFToLookAngles_AzimuthDirections(t *testing.T) {
	obs := geo(0, 0, 0)

	tests := []struct {
		name   string
		target Geodetic
		wantAz float64
	}{
		{"north", geo(10, 0, 400), 0},
		{"east", geo(0, 10, 400), 90},
		{"south", geo(-10, 0, 400), 180},
		{"west", geo(0, -10, 400), 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			la := ECEFToLookAngles(obs, GeodeticToECEF(tt.target))
			az := Degrees(la.Azimuth)
			if az < 0 || az > 360 {
				t.Fatalf("azimuth %.3f outside [0, 360]", az)
			}
			// Compare on the circle so 359.9 and 0.1 are close.
			if d := math.Abs(math.Remainder(az-tt.wantAz, 360)); d > 1 {
				t.Errorf("azimuth = %.3f deg, want %.0f", az, tt.wantAz)
			}
			if la.Elevation <= 0 {
				t.Errorf("elevation = %.2f deg, want above horizon", Degrees(la.Elevation))
			}
		})
	}
}

func TestECEFToLookAngles_RangeMatchesDistance(t *testing.T) {
	obs := geo(40.7128, -74.006, 0.01) // NYC
	sat := Vector{X: 6778}

	la := ECEFToLookAngles(obs, sat)
	want := sat.Sub(GeodeticToECEF(obs)).Norm()
	if math.Abs(la.RangeKm-want) > 1e-9 {
		t.Errorf("range %.6f km, want %.6f km", la.RangeKm, want)
	}
}
