package navigation

import "github.com/signalsfoundry/navpolicy/geometry"

// Composite is the ordered set of policies attached to one volume. It
// answers a query by asking each policy in registration order and
// concatenating their proposals. It does not de-duplicate: a surface reached
// through two policies is returned twice (see Deduplicate).
//
// A Composite is immutable and safe for concurrent use.
type Composite struct {
	volume   *geometry.Volume
	policies []Policy
	capHint  int
}

func newComposite(vol *geometry.Volume, policies []Policy) *Composite {
	hint := 0
	for _, p := range policies {
		switch p := p.(type) {
		case *TryAllPortalPolicy:
			hint += len(p.candidates)
		case *TryAllSurfacePolicy:
			hint += len(p.candidates)
		case *TryAllPolicy:
			hint += len(p.candidates)
		case *SurfaceArrayPolicy:
			w := p.config.Window
			hint += int(p.grid.Stats().MeanOccupancy*float64(w*w)) + 1
		}
	}
	return &Composite{volume: vol, policies: policies, capHint: hint}
}

// Candidates returns a freshly allocated, ordered candidate list for q.
func (c *Composite) Candidates(q Query) []Candidate {
	out := make([]Candidate, 0, c.capHint)
	for _, p := range c.policies {
		out = p.AppendCandidates(out, q)
	}
	return out
}

// Volume returns the volume the composite is bound to.
func (c *Composite) Volume() *geometry.Volume { return c.volume }

// Len returns the number of sub-policies.
func (c *Composite) Len() int { return len(c.policies) }

// Policies returns the sub-policies in registration order.
func (c *Composite) Policies() []Policy {
	return append([]Policy(nil), c.policies...)
}

// Kinds returns the sub-policy kinds in registration order.
func (c *Composite) Kinds() []Kind {
	kinds := make([]Kind, len(c.policies))
	for i, p := range c.policies {
		kinds[i] = p.Kind()
	}
	return kinds
}
