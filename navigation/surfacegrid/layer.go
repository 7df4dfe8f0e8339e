package surfacegrid

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// LayerType selects the projection used to flatten positions onto the grid.
type LayerType int

const (
	Plane LayerType = iota
	Disc
	Cylinder
)

func (l LayerType) String() string {
	switch l {
	case Plane:
		return "Plane"
	case Disc:
		return "Disc"
	case Cylinder:
		return "Cylinder"
	default:
		return fmt.Sprintf("LayerType(%d)", int(l))
	}
}

// Valid reports whether l is one of the known layer types.
func (l LayerType) Valid() bool {
	return l == Plane || l == Disc || l == Cylinder
}

// ParseLayerType maps a case-insensitive name onto a LayerType.
func ParseLayerType(s string) (LayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plane", "planar":
		return Plane, nil
	case "disc", "disk":
		return Disc, nil
	case "cylinder", "barrel":
		return Cylinder, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
}

// Project returns the local binning coordinates of p for layer l.
func Project(l LayerType, p r3.Vec) (float64, float64) {
	switch l {
	case Disc:
		return math.Hypot(p.X, p.Y), math.Atan2(p.Y, p.X)
	case Cylinder:
		return math.Atan2(p.Y, p.X), p.Z
	default:
		return p.X, p.Y
	}
}

// boundaries returns the boundary type of each local axis for l.
func boundaries(l LayerType) [2]Boundary {
	switch l {
	case Disc:
		return [2]Boundary{Bound, Closed}
	case Cylinder:
		return [2]Boundary{Closed, Bound}
	default:
		return [2]Boundary{Bound, Bound}
	}
}
