package navigation

import "github.com/signalsfoundry/navpolicy/geometry"

// TryAllPortalPolicy proposes every portal of its volume regardless of the
// query. It never misses a boundary and is the usual fallback.
type TryAllPortalPolicy struct {
	volume     *geometry.Volume
	candidates []Candidate
}

// NewTryAllPortalPolicy builds the policy for vol.
func NewTryAllPortalPolicy(vol *geometry.Volume) *TryAllPortalPolicy {
	portals := vol.Portals()
	cands := make([]Candidate, len(portals))
	for i, p := range portals {
		cands[i] = portalCandidate(p)
	}
	return &TryAllPortalPolicy{volume: vol, candidates: cands}
}

func (p *TryAllPortalPolicy) Kind() Kind               { return TryAllPortal }
func (p *TryAllPortalPolicy) Volume() *geometry.Volume { return p.volume }
func (p *TryAllPortalPolicy) sealed()                  {}

func (p *TryAllPortalPolicy) AppendCandidates(dst []Candidate, _ Query) []Candidate {
	return append(dst, p.candidates...)
}

// TryAllSurfacePolicy proposes every sensitive surface of its volume.
type TryAllSurfacePolicy struct {
	volume     *geometry.Volume
	candidates []Candidate
}

// NewTryAllSurfacePolicy builds the policy for vol.
func NewTryAllSurfacePolicy(vol *geometry.Volume) *TryAllSurfacePolicy {
	surfaces := vol.Surfaces()
	cands := make([]Candidate, len(surfaces))
	for i, s := range surfaces {
		cands[i] = surfaceCandidate(s)
	}
	return &TryAllSurfacePolicy{volume: vol, candidates: cands}
}

func (p *TryAllSurfacePolicy) Kind() Kind               { return TryAllSurface }
func (p *TryAllSurfacePolicy) Volume() *geometry.Volume { return p.volume }
func (p *TryAllSurfacePolicy) sealed()                  {}

func (p *TryAllSurfacePolicy) AppendCandidates(dst []Candidate, _ Query) []Candidate {
	return append(dst, p.candidates...)
}

// TryAllPolicy combines both try-all variants behind one registration:
// portals first, then sensitive surfaces, each only if enabled.
type TryAllPolicy struct {
	volume     *geometry.Volume
	config     TryAllConfig
	candidates []Candidate
}

// NewTryAllPolicy builds the combined policy for vol.
func NewTryAllPolicy(vol *geometry.Volume, cfg TryAllConfig) *TryAllPolicy {
	var cands []Candidate
	if cfg.Portals {
		for _, p := range vol.Portals() {
			cands = append(cands, portalCandidate(p))
		}
	}
	if cfg.Sensitives {
		for _, s := range vol.Surfaces() {
			cands = append(cands, surfaceCandidate(s))
		}
	}
	return &TryAllPolicy{volume: vol, config: cfg, candidates: cands}
}

func (p *TryAllPolicy) Kind() Kind               { return TryAll }
func (p *TryAllPolicy) Volume() *geometry.Volume { return p.volume }
func (p *TryAllPolicy) Config() TryAllConfig     { return p.config }
func (p *TryAllPolicy) sealed()                  {}

func (p *TryAllPolicy) AppendCandidates(dst []Candidate, _ Query) []Candidate {
	return append(dst, p.candidates...)
}
