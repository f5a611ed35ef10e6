// Package propagation turns element sets into TEME positions with the
// SGP4/SDP4 model.
package propagation

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
	"github.com/kashacker/satellite-tracker-orbitx/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, no CGO, explicit TEME output. Two quirks shape this file:
// TLEToSat calls log.Fatal on unparsable fields, so checkLines runs first;
// Propagate takes the Satellite by value, so runtime error codes surface
// only as a zero or non-finite position vector.

// Radius bounds for a usable position (km from Earth's centre). Below the
// WGS-72 equatorial radius the object has decayed; beyond maxRadiusKm the
// output is numerical garbage rather than an orbit.
const (
	minRadiusKm = 6378.135
	maxRadiusKm = 1e6
)

// Model is an initialised SGP4 model for one satellite.
type Model struct {
	sat           satellite.Satellite
	catalogNumber int
}

// Decode initialises a model from an element set using WGS-72 constants.
// Errors wrap ErrElementDecode.
func Decode(set tle.ElementSet) (*Model, error) {
	if err := checkLines(set.Line1, set.Line2); err != nil {
		return nil, fmt.Errorf("catalog number %d: %w", set.CatalogNumber, err)
	}

	sat := satellite.TLEToSat(set.Line1, set.Line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("catalog number %d: %w: sgp4 init code=%d %s",
			set.CatalogNumber, ErrElementDecode, sat.Error, sat.ErrorStr)
	}

	n, _ := tle.CatalogNumber(set.Line1)
	return &Model{sat: sat, catalogNumber: n}, nil
}

// Propagate returns the TEME position in km at t. The library only accepts
// whole seconds, so a sub-second t is interpolated linearly between the
// neighbouring seconds (under a metre of error for low orbits).
// Errors wrap ErrPropagation; the position is never clamped into range.
func (m *Model) Propagate(t time.Time) (transform.Vector, error) {
	floor := t.UTC().Truncate(time.Second)
	r, err := m.propagateWhole(floor)
	if err != nil {
		return transform.Vector{}, err
	}
	frac := t.Sub(floor).Seconds()
	if frac == 0 {
		return r, nil
	}
	next, err := m.propagateWhole(floor.Add(time.Second))
	if err != nil {
		return transform.Vector{}, err
	}
	return r.Add(next.Sub(r).Scale(frac)), nil
}

func (m *Model) propagateWhole(t time.Time) (transform.Vector, error) {
	pos, _ := satellite.Propagate(m.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	r := transform.Vector{X: pos.X, Y: pos.Y, Z: pos.Z}

	if !r.Finite() {
		return transform.Vector{}, fmt.Errorf("catalog number %d: %w: output is NaN/Inf", m.catalogNumber, ErrPropagation)
	}

	// SGP4 error codes (including decay) leave a zero vector.
	mag := r.Norm()
	if mag < minRadiusKm {
		return transform.Vector{}, fmt.Errorf("catalog number %d: %w: radius %.1f km is below the surface (decayed or model error)", m.catalogNumber, ErrPropagation, mag)
	}
	if mag > maxRadiusKm {
		return transform.Vector{}, fmt.Errorf("catalog number %d: %w: non-physical radius %.1f km", m.catalogNumber, ErrPropagation, mag)
	}
	return r, nil
}
