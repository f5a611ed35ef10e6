// Package transform converts SGP4 output into earth-fixed, geodetic and
// topocentric coordinates.
//
// SGP4 positions are in TEME (True Equator Mean Equinox). The earth-fixed
// frame is obtained by a single rotation about Z by GMST (TEME → PEF ≈ ECEF),
// ignoring polar motion and the equation of the equinoxes; the error is tens
// of metres. Distances are kilometres and angles radians throughout.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3-4.
package transform

import "math"

// Vector is a Cartesian position in kilometres.
type Vector struct {
	X, Y, Z float64
}

// Norm returns the vector magnitude.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Finite reports whether no component is NaN or infinite.
func (v Vector) Finite() bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v * k.
func (v Vector) Scale(k float64) Vector {
	return Vector{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// TEMEToECEF rotates a TEME position into the earth-fixed frame using a GMST
// angle in radians: r_ECEF = R3(θ) * r_TEME.
func TEMEToECEF(r Vector, gmst float64) Vector {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)
	return Vector{
		X: r.X*cosG + r.Y*sinG,
		Y: -r.X*sinG + r.Y*cosG,
		Z: r.Z,
	}
}
