package navigation

import (
	"fmt"

	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/navigation/surfacegrid"
)

// SurfaceArrayPolicy proposes only the sensitive surfaces binned in and
// around the grid cell holding the query point, so the candidate count
// scales with cell occupancy rather than with the layer size. Portals are
// not indexed.
type SurfaceArrayPolicy struct {
	volume *geometry.Volume
	config SurfaceArrayConfig
	grid   *surfacegrid.Grid[Candidate]
}

func candidateCenter(c Candidate) geometry.Vec { return c.Surface.Center }

// NewSurfaceArrayPolicy bins the volume's surfaces according to cfg.
func NewSurfaceArrayPolicy(vol *geometry.Volume, cfg SurfaceArrayConfig) (*SurfaceArrayPolicy, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	surfaces := vol.Surfaces()
	cands := make([]Candidate, len(surfaces))
	for i, s := range surfaces {
		cands[i] = surfaceCandidate(s)
	}
	grid, err := surfacegrid.New(cfg.LayerType, cfg.Bins, cfg.radius(), cands, candidateCenter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &SurfaceArrayPolicy{volume: vol, config: cfg, grid: grid}, nil
}

func (p *SurfaceArrayPolicy) Kind() Kind                 { return SurfaceArray }
func (p *SurfaceArrayPolicy) Volume() *geometry.Volume   { return p.volume }
func (p *SurfaceArrayPolicy) Config() SurfaceArrayConfig { return p.config }
func (p *SurfaceArrayPolicy) sealed()                    {}

// Grid exposes the read-only bin index.
func (p *SurfaceArrayPolicy) Grid() *surfacegrid.Grid[Candidate] { return p.grid }

// Stats reports the occupancy of the bin index.
func (p *SurfaceArrayPolicy) Stats() surfacegrid.Stats { return p.grid.Stats() }

func (p *SurfaceArrayPolicy) AppendCandidates(dst []Candidate, q Query) []Candidate {
	return p.grid.Lookup(dst, q.Position)
}
