package surfacegrid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrUnknownLayer  = errors.New("unknown layer type")
	ErrInvalidBins   = errors.New("bin counts must be positive")
	ErrInvalidRadius = errors.New("neighbour radius must not be negative")
)

// Grid maps bins of a projected 2D frame to the members that fall in them.
// Cells are stored in compressed form: the members of cell c are
// members[offsets[c]:offsets[c+1]], in input order.
type Grid[T any] struct {
	layer   LayerType
	axes    [2]Axis
	radius  int
	offsets []int
	members []T
}

// Stats summarises how members are spread over the grid.
type Stats struct {
	Cells         int
	OccupiedCells int
	Members       int
	MaxOccupancy  int
	MeanOccupancy float64
}

// New builds a grid of bins[0] x bins[1] cells over items. position returns
// the global position of an item; radius is the neighbourhood half-width
// used by Lookup (1 gives a 3x3 window).
func New[T any](layer LayerType, bins [2]int, radius int, items []T, position func(T) r3.Vec) (*Grid[T], error) {
	if !layer.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
	}
	if bins[0] <= 0 || bins[1] <= 0 {
		return nil, fmt.Errorf("%w: got (%d, %d)", ErrInvalidBins, bins[0], bins[1])
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, radius)
	}

	local := [2][]float64{make([]float64, len(items)), make([]float64, len(items))}
	for i, it := range items {
		local[0][i], local[1][i] = Project(layer, position(it))
	}

	g := &Grid[T]{layer: layer, radius: radius}
	bounds := boundaries(layer)
	for i := range g.axes {
		g.axes[i] = newAxis(local[i], bins[i], bounds[i])
	}

	n1 := bins[1]
	cell := make([]int, len(items))
	counts := make([]int, bins[0]*n1+1)
	for i := range items {
		c := g.axes[0].Bin(local[0][i])*n1 + g.axes[1].Bin(local[1][i])
		cell[i] = c
		counts[c+1]++
	}
	for c := 1; c < len(counts); c++ {
		counts[c] += counts[c-1]
	}
	g.offsets = counts

	next := append([]int(nil), counts[:len(counts)-1]...)
	g.members = make([]T, len(items))
	for i, it := range items {
		g.members[next[cell[i]]] = it
		next[cell[i]]++
	}
	return g, nil
}

func newAxis(values []float64, bins int, b Boundary) Axis {
	if b == Closed {
		return Axis{Min: -math.Pi, Max: math.Pi, Bins: bins, Boundary: Closed}
	}
	if len(values) == 0 {
		return Axis{Bins: bins, Boundary: Bound}
	}
	return Axis{Min: floats.Min(values), Max: floats.Max(values), Bins: bins, Boundary: Bound}
}

// Layer returns the projection the grid was built with.
func (g *Grid[T]) Layer() LayerType { return g.layer }

// Axes returns the two local axes.
func (g *Grid[T]) Axes() [2]Axis { return g.axes }

// Radius returns the lookup neighbourhood half-width.
func (g *Grid[T]) Radius() int { return g.radius }

// Len returns the number of indexed members.
func (g *Grid[T]) Len() int { return len(g.members) }

// CellOf returns the bin coordinates holding p.
func (g *Grid[T]) CellOf(p r3.Vec) (int, int) {
	u, v := Project(g.layer, p)
	return g.axes[0].Bin(u), g.axes[1].Bin(v)
}

// Cell returns a copy of the members of bin (b0, b1). Out-of-range bins are
// empty.
func (g *Grid[T]) Cell(b0, b1 int) []T {
	if b0 < 0 || b0 >= g.axes[0].Bins || b1 < 0 || b1 >= g.axes[1].Bins {
		return nil
	}
	c := b0*g.axes[1].Bins + b1
	return append([]T(nil), g.members[g.offsets[c]:g.offsets[c+1]]...)
}

// Lookup appends to dst the members of the cell containing p and of every
// neighbour within the grid radius. Cells are visited in row-major order.
func (g *Grid[T]) Lookup(dst []T, p r3.Vec) []T {
	b0, b1 := g.CellOf(p)

	var buf0, buf1 [8]int
	rows := g.axes[0].Neighbors(buf0[:0], b0, g.radius)
	cols := g.axes[1].Neighbors(buf1[:0], b1, g.radius)

	n1 := g.axes[1].Bins
	for _, r := range rows {
		for _, c := range cols {
			idx := r*n1 + c
			dst = append(dst, g.members[g.offsets[idx]:g.offsets[idx+1]]...)
		}
	}
	return dst
}

// Stats reports the occupancy of the grid.
func (g *Grid[T]) Stats() Stats {
	s := Stats{
		Cells:   g.axes[0].Bins * g.axes[1].Bins,
		Members: len(g.members),
	}
	for c := 0; c < s.Cells; c++ {
		n := g.offsets[c+1] - g.offsets[c]
		if n > 0 {
			s.OccupiedCells++
		}
		if n > s.MaxOccupancy {
			s.MaxOccupancy = n
		}
	}
	if s.Cells > 0 {
		s.MeanOccupancy = float64(s.Members) / float64(s.Cells)
	}
	return s
}
