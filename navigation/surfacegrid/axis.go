package surfacegrid

import (
	"fmt"
	"math"
)

// Boundary selects how an axis treats values and neighbours beyond its range.
type Boundary int

const (
	// Bound clamps out-of-range values into the edge bin and drops
	// neighbours that fall off the axis.
	Bound Boundary = iota
	// Closed wraps values and neighbours around to the opposite side.
	Closed
)

func (b Boundary) String() string {
	switch b {
	case Bound:
		return "Bound"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// Axis is an equidistant binning of [Min, Max] into Bins cells.
type Axis struct {
	Min, Max float64
	Bins     int
	Boundary Boundary
}

// Width returns the width of a single bin.
func (a Axis) Width() float64 {
	if a.Bins <= 0 {
		return 0
	}
	return (a.Max - a.Min) / float64(a.Bins)
}

// Bin returns the bin holding v. It never fails: NaN and degenerate axes
// resolve to bin 0, out-of-range values clamp (Bound) or wrap (Closed).
func (a Axis) Bin(v float64) int {
	span := a.Max - a.Min
	if a.Bins <= 1 || !(span > 0) || math.IsNaN(v) {
		return 0
	}
	if a.Boundary == Closed {
		v = a.Min + math.Mod(v-a.Min, span)
		if v < a.Min {
			v += span
		}
	}
	if v <= a.Min {
		return 0
	}
	if v >= a.Max {
		return a.Bins - 1
	}
	b := int((v - a.Min) / span * float64(a.Bins))
	if b >= a.Bins {
		b = a.Bins - 1
	}
	return b
}

// Center returns the centre value of bin b.
func (a Axis) Center(b int) float64 {
	return a.Min + (float64(b)+0.5)*a.Width()
}

// Neighbors appends to dst every bin within radius of bin, in ascending
// offset order. Each bin is appended at most once.
func (a Axis) Neighbors(dst []int, bin, radius int) []int {
	if a.Bins <= 0 {
		return dst
	}
	if radius < 0 {
		radius = 0
	}
	if a.Boundary == Closed && 2*radius+1 >= a.Bins {
		for i := 0; i < a.Bins; i++ {
			dst = append(dst, i)
		}
		return dst
	}
	for d := -radius; d <= radius; d++ {
		n := bin + d
		if a.Boundary == Closed {
			n = ((n % a.Bins) + a.Bins) % a.Bins
		} else if n < 0 || n >= a.Bins {
			continue
		}
		dst = append(dst, n)
	}
	return dst
}

func (a Axis) String() string {
	return fmt.Sprintf("[%g, %g] x %d (%s)", a.Min, a.Max, a.Bins, a.Boundary)
}
