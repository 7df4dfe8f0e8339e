package navigation

import (
	"github.com/signalsfoundry/navpolicy/geometry"
)

// Query is the navigator's question at one integration step.
type Query struct {
	Position  geometry.Vec
	Direction geometry.Vec
}

// Candidate is a surface proposed for intersection testing. Portal is set
// when the surface is a volume boundary.
type Candidate struct {
	Surface *geometry.Surface
	Portal  *geometry.Portal
}

// IsPortal reports whether the candidate is a portal.
func (c Candidate) IsPortal() bool { return c.Portal != nil }

// ID returns the surface identifier of the candidate.
func (c Candidate) ID() string {
	if c.Surface == nil {
		return ""
	}
	return c.Surface.ID
}

func surfaceCandidate(s *geometry.Surface) Candidate { return Candidate{Surface: s} }

func portalCandidate(p *geometry.Portal) Candidate { return Candidate{Surface: p.Surface, Portal: p} }

// Policy is one instantiated navigation strategy bound to a volume. The
// implementations are TryAllPortalPolicy, TryAllSurfacePolicy, TryAllPolicy
// and SurfaceArrayPolicy; the unexported method keeps the set closed.
type Policy interface {
	// Kind returns the variant identity.
	Kind() Kind
	// Volume returns the volume the policy was built for.
	Volume() *geometry.Volume
	// AppendCandidates appends the policy's proposals for q to dst.
	AppendCandidates(dst []Candidate, q Query) []Candidate

	sealed()
}

// Navigator is what the propagation loop queries each step.
type Navigator interface {
	Candidates(q Query) []Candidate
}

// newPolicy instantiates a resolved registration against vol.
func newPolicy(kind Kind, cfg Config, vol *geometry.Volume) (Policy, error) {
	switch kind {
	case TryAllPortal:
		return NewTryAllPortalPolicy(vol), nil
	case TryAllSurface:
		return NewTryAllSurfacePolicy(vol), nil
	case TryAll:
		return NewTryAllPolicy(vol, cfg.(TryAllConfig)), nil
	case SurfaceArray:
		return NewSurfaceArrayPolicy(vol, cfg.(SurfaceArrayConfig))
	default:
		return nil, ErrUnknownPolicy
	}
}
