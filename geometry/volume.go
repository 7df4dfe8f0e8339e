package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyVolumeName  = errors.New("empty volume name")
	ErrInvalidBounds    = errors.New("invalid volume bounds")
	ErrNilSurface       = errors.New("nil surface")
	ErrEmptySurfaceID   = errors.New("empty surface ID")
	ErrDuplicateSurface = errors.New("surface already exists in volume")
	ErrSurfaceIsPortal  = errors.New("surface is also registered as a portal")
)

// Bounds is an axis-aligned box in the global frame.
type Bounds struct {
	Min, Max Vec
}

// Contains reports whether p lies inside the box, faces included.
func (b Bounds) Contains(p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Vec {
	return Vec{
		X: 0.5 * (b.Min.X + b.Max.X),
		Y: 0.5 * (b.Min.Y + b.Max.Y),
		Z: 0.5 * (b.Min.Z + b.Max.Z),
	}
}

func (b Bounds) valid() bool {
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsNaN(v) {
			return false
		}
	}
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Volume is a region of the detector that contains sensitive surfaces and is
// bounded by portals. A Volume is immutable after NewVolume returns; the
// accessors hand out copies of its slices.
type Volume struct {
	name     string
	bounds   Bounds
	surfaces []*Surface
	portals  []*Portal
}

// NewVolume validates and assembles a volume. Surface IDs must be unique
// across both surfaces and portals, and no surface may appear in both sets.
func NewVolume(name string, bounds Bounds, surfaces []*Surface, portals []*Portal) (*Volume, error) {
	if name == "" {
		return nil, ErrEmptyVolumeName
	}
	if !bounds.valid() {
		return nil, fmt.Errorf("%w: volume %q", ErrInvalidBounds, name)
	}

	seen := make(map[*Surface]bool, len(surfaces)+len(portals))
	ids := make(map[string]bool, len(surfaces)+len(portals))
	for _, s := range surfaces {
		if s == nil {
			return nil, fmt.Errorf("%w in volume %q", ErrNilSurface, name)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("%w in volume %q", ErrEmptySurfaceID, name)
		}
		if ids[s.ID] {
			return nil, fmt.Errorf("%w: %q in volume %q", ErrDuplicateSurface, s.ID, name)
		}
		ids[s.ID] = true
		seen[s] = true
	}
	for _, p := range portals {
		if p == nil || p.Surface == nil {
			return nil, fmt.Errorf("%w: portal in volume %q", ErrNilSurface, name)
		}
		if p.Surface.ID == "" {
			return nil, fmt.Errorf("%w: portal in volume %q", ErrEmptySurfaceID, name)
		}
		if seen[p.Surface] {
			return nil, fmt.Errorf("%w: %q in volume %q", ErrSurfaceIsPortal, p.Surface.ID, name)
		}
		if ids[p.Surface.ID] {
			return nil, fmt.Errorf("%w: %q in volume %q", ErrDuplicateSurface, p.Surface.ID, name)
		}
		ids[p.Surface.ID] = true
		seen[p.Surface] = true
	}

	return &Volume{
		name:     name,
		bounds:   bounds,
		surfaces: append([]*Surface(nil), surfaces...),
		portals:  append([]*Portal(nil), portals...),
	}, nil
}

// Name returns the volume name.
func (v *Volume) Name() string { return v.name }

// Bounds returns the bounding box of the volume.
func (v *Volume) Bounds() Bounds { return v.bounds }

// Surfaces returns a copy of the volume's sensitive surfaces in
// construction order.
func (v *Volume) Surfaces() []*Surface {
	return append([]*Surface(nil), v.surfaces...)
}

// Portals returns a copy of the volume's portals in construction order.
func (v *Volume) Portals() []*Portal {
	return append([]*Portal(nil), v.portals...)
}

// NumSurfaces returns the number of sensitive surfaces.
func (v *Volume) NumSurfaces() int { return len(v.surfaces) }

// NumPortals returns the number of portals.
func (v *Volume) NumPortals() int { return len(v.portals) }
