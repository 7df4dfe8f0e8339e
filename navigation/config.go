package navigation

import (
	"fmt"

	"github.com/signalsfoundry/navpolicy/navigation/surfacegrid"
)

// LayerType re-exports the surface-array projection selector.
type LayerType = surfacegrid.LayerType

const (
	LayerPlane    = surfacegrid.Plane
	LayerDisc     = surfacegrid.Disc
	LayerCylinder = surfacegrid.Cylinder
)

// ParseLayerType maps a layer name such as "cylinder" or "disc" onto a
// LayerType.
func ParseLayerType(s string) (LayerType, error) { return surfacegrid.ParseLayerType(s) }

// DefaultWindow is the neighbourhood width used when SurfaceArrayConfig.Window
// is zero: the containing cell plus one neighbour on each side, per axis.
const DefaultWindow = 3

// Config is the variant-specific configuration handed to Factory.Add. Only
// the types in this package implement it.
type Config interface {
	policyKind() Kind
}

// SurfaceArrayConfig configures the surface-array policy.
type SurfaceArrayConfig struct {
	LayerType LayerType
	// Bins is the grid resolution along the two local axes.
	Bins [2]int
	// Window is the odd side length, in cells, of the neighbourhood returned
	// per query. Zero selects DefaultWindow.
	Window int
}

func (SurfaceArrayConfig) policyKind() Kind { return SurfaceArray }

func (c SurfaceArrayConfig) withDefaults() SurfaceArrayConfig {
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	return c
}

func (c SurfaceArrayConfig) validate() error {
	if !c.LayerType.Valid() {
		return fmt.Errorf("%w: unknown layer type %s", ErrInvalidConfig, c.LayerType)
	}
	if c.Bins[0] <= 0 || c.Bins[1] <= 0 {
		return fmt.Errorf("%w: bins must be positive, got (%d, %d)", ErrInvalidConfig, c.Bins[0], c.Bins[1])
	}
	if c.Window < 1 || c.Window%2 == 0 {
		return fmt.Errorf("%w: window must be a positive odd number, got %d", ErrInvalidConfig, c.Window)
	}
	return nil
}

// radius is the neighbourhood half-width implied by Window.
func (c SurfaceArrayConfig) radius() int { return (c.Window - 1) / 2 }

// TryAllConfig selects which candidates the combined try-all policy emits.
type TryAllConfig struct {
	Portals    bool
	Sensitives bool
}

func (TryAllConfig) policyKind() Kind { return TryAll }

// DefaultTryAllConfig enables both portals and sensitive surfaces.
func DefaultTryAllConfig() TryAllConfig {
	return TryAllConfig{Portals: true, Sensitives: true}
}

func (c TryAllConfig) validate() error {
	if !c.Portals && !c.Sensitives {
		return fmt.Errorf("%w: try_all with neither portals nor sensitives", ErrInvalidConfig)
	}
	return nil
}

// resolveConfig applies variant defaults and checks cfg against kind.
func resolveConfig(kind Kind, cfg Config) (Config, error) {
	cfg = derefConfig(cfg)
	if cfg != nil && cfg.policyKind() != kind {
		return nil, fmt.Errorf("%w: %T given for %s", ErrInvalidConfig, cfg, kind)
	}

	switch kind {
	case TryAllPortal, TryAllSurface:
		return nil, nil
	case TryAll:
		c := DefaultTryAllConfig()
		if cfg != nil {
			c = cfg.(TryAllConfig)
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	case SurfaceArray:
		if cfg == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, kind)
		}
		c := cfg.(SurfaceArrayConfig).withDefaults()
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, kind)
	}
}

// derefConfig turns pointer configs into values so the rest of the package
// only deals with one shape. Typed nil pointers count as no config.
func derefConfig(cfg Config) Config {
	switch c := cfg.(type) {
	case *SurfaceArrayConfig:
		if c == nil {
			return nil
		}
		return *c
	case *TryAllConfig:
		if c == nil {
			return nil
		}
		return *c
	default:
		return cfg
	}
}
