package navigation

import (
	"fmt"
	"math"
	"testing"

	"github.com/signalsfoundry/navpolicy/geometry"
)

// planeVolume lays out nx*ny unit-pitch surfaces in the z=0 plane, bounded
// by nPortals portals.
func planeVolume(t *testing.T, name string, nx, ny, nPortals int) *geometry.Volume {
	t.Helper()
	surfaces := make([]*geometry.Surface, 0, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			surfaces = append(surfaces, &geometry.Surface{
				ID:     fmt.Sprintf("%s/s-%d-%d", name, i, j),
				Center: geometry.Vec{X: float64(i), Y: float64(j)},
				Normal: geometry.Vec{Z: 1},
			})
		}
	}
	return newTestVolume(t, name, surfaces, testPortals(name, nPortals), geometry.Bounds{
		Min: geometry.Vec{X: -1, Y: -1, Z: -1},
		Max: geometry.Vec{X: float64(nx), Y: float64(ny), Z: 1},
	})
}

// barrelVolume places nPhi*nZ surfaces on a cylinder of the given radius,
// centred in φ so none sits on the ±π seam.
func barrelVolume(t *testing.T, name string, radius float64, nPhi, nZ, nPortals int) *geometry.Volume {
	t.Helper()
	surfaces := make([]*geometry.Surface, 0, nPhi*nZ)
	for i := 0; i < nPhi; i++ {
		phi := -math.Pi + (float64(i)+0.5)*2*math.Pi/float64(nPhi)
		for j := 0; j < nZ; j++ {
			surfaces = append(surfaces, &geometry.Surface{
				ID: fmt.Sprintf("%s/s-%d-%d", name, i, j),
				Center: geometry.Vec{
					X: radius * math.Cos(phi),
					Y: radius * math.Sin(phi),
					Z: float64(j) * 10,
				},
				Normal: geometry.Vec{X: math.Cos(phi), Y: math.Sin(phi)},
			})
		}
	}
	half := radius + 1
	return newTestVolume(t, name, surfaces, testPortals(name, nPortals), geometry.Bounds{
		Min: geometry.Vec{X: -half, Y: -half, Z: -10},
		Max: geometry.Vec{X: half, Y: half, Z: float64(nZ) * 10},
	})
}

func testPortals(volume string, n int) []*geometry.Portal {
	portals := make([]*geometry.Portal, n)
	for i := range portals {
		portals[i] = &geometry.Portal{
			Surface: &geometry.Surface{
				ID:     fmt.Sprintf("%s/p-%d", volume, i),
				Center: geometry.Vec{Z: float64(i)},
				Normal: geometry.Vec{Z: 1},
			},
			Volumes: [2]string{volume, ""},
		}
	}
	return portals
}

func newTestVolume(t *testing.T, name string, surfaces []*geometry.Surface, portals []*geometry.Portal, b geometry.Bounds) *geometry.Volume {
	t.Helper()
	vol, err := geometry.NewVolume(name, b, surfaces, portals)
	if err != nil {
		t.Fatalf("NewVolume(%q): %v", name, err)
	}
	return vol
}

func candidateIDs(cands []Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ID()
	}
	return ids
}

func containsSurface(cands []Candidate, s *geometry.Surface) bool {
	for _, c := range cands {
		if c.Surface == s {
			return true
		}
	}
	return false
}

// nearestSurface returns the surface of vol whose centre is closest to p.
func nearestSurface(vol *geometry.Volume, p geometry.Vec) *geometry.Surface {
	var best *geometry.Surface
	bestDist := math.Inf(1)
	for _, s := range vol.Surfaces() {
		if d := geometry.Distance(s.Center, p); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
