package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a global-frame position or direction in millimetres.
type Vec = r3.Vec

// Perp returns the transverse radius sqrt(x²+y²).
func Perp(v Vec) float64 {
	return math.Hypot(v.X, v.Y)
}

// Phi returns the azimuth of v in (-π, π].
func Phi(v Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// Distance returns the straight-line distance between two points.
func Distance(a, b Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}
