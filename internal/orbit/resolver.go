// Package orbit answers "where is this satellite at time t, as seen from here?"
// It is pure computation: no I/O, no shared state.
package orbit

import (
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/propagation"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
	"github.com/kashacker/satellite-tracker-orbitx/internal/transform"
)

// Observer is a ground location on the WGS-84 ellipsoid.
type Observer struct {
	LatitudeDeg    float64
	LongitudeDeg   float64
	AltitudeMeters float64
}

// Position is a resolved satellite position. JSON names are the wire contract
// the map client reads.
type Position struct {
	SubLatitudeDeg   float64 `json:"satlatitude"`
	SubLongitudeDeg  float64 `json:"satlongitude"`
	AltitudeKm       float64 `json:"sataltitude"`
	AzimuthDeg       float64 `json:"azimuth"`
	ElevationDeg     float64 `json:"elevation"`
	RangeKm          float64 `json:"rangeSat"`
	EpochUnixSeconds int64   `json:"timestamp"`
}

// Resolve propagates set to at and reports the sub-satellite point and the
// look angles from observer. The reported timestamp is at in whole seconds;
// the position itself is computed for the exact instant. Errors wrap
// propagation.ErrElementDecode or propagation.ErrPropagation.
func Resolve(set tle.ElementSet, at time.Time, observer Observer) (Position, error) {
	model, err := propagation.Decode(set)
	if err != nil {
		return Position{}, err
	}
	return ResolveModel(model, at, observer)
}

// ResolveModel is Resolve for an already decoded model.
func ResolveModel(model *propagation.Model, at time.Time, observer Observer) (Position, error) {
	at = at.UTC()

	teme, err := model.Propagate(at)
	if err != nil {
		return Position{}, err
	}

	gmst := transform.GMST(at)
	ecef := transform.TEMEToECEF(teme, gmst)
	sub := transform.ECEFToGeodetic(ecef)

	look := transform.ECEFToLookAngles(transform.Geodetic{
		Latitude:   transform.Radians(observer.LatitudeDeg),
		Longitude:  transform.Radians(observer.LongitudeDeg),
		AltitudeKm: observer.AltitudeMeters / 1000.0,
	}, ecef)

	return Position{
		SubLatitudeDeg:   transform.Degrees(sub.Latitude),
		SubLongitudeDeg:  transform.Degrees(sub.Longitude),
		AltitudeKm:       sub.AltitudeKm,
		AzimuthDeg:       transform.Degrees(look.Azimuth),
		ElevationDeg:     transform.Degrees(look.Elevation),
		RangeKm:          look.RangeKm,
		EpochUnixSeconds: at.Unix(),
	}, nil
}
