package detector

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/navpolicy/geometry"
)

// PlaneLayer spreads count[0] x count[1] surfaces over a size[0] x size[1]
// rectangle centred on center, in the plane z = center.Z. Surfaces sit at
// the middle of their tile and face +z.
func PlaneLayer(prefix string, center geometry.Vec, size [2]float64, count [2]int) []*geometry.Surface {
	if count[0] <= 0 || count[1] <= 0 {
		return nil
	}
	pitchX := size[0] / float64(count[0])
	pitchY := size[1] / float64(count[1])
	origin := r3.Sub(center, geometry.Vec{X: size[0] / 2, Y: size[1] / 2})

	out := make([]*geometry.Surface, 0, count[0]*count[1])
	for i := 0; i < count[0]; i++ {
		for j := 0; j < count[1]; j++ {
			out = append(out, &geometry.Surface{
				ID: fmt.Sprintf("%s/%d-%d", prefix, i, j),
				Center: r3.Add(origin, geometry.Vec{
					X: (float64(i) + 0.5) * pitchX,
					Y: (float64(j) + 0.5) * pitchY,
				}),
				Normal: geometry.Vec{Z: 1},
			})
		}
	}
	return out
}

// CylinderLayer places nPhi x nZ staves on a barrel of the given radius
// between zRange[0] and zRange[1]. Staves are offset by half a pitch in φ so
// none lies on the ±π seam, and face radially outwards.
func CylinderLayer(prefix string, radius float64, zRange [2]float64, nPhi, nZ int) []*geometry.Surface {
	if nPhi <= 0 || nZ <= 0 {
		return nil
	}
	dPhi := 2 * math.Pi / float64(nPhi)
	dZ := (zRange[1] - zRange[0]) / float64(nZ)

	out := make([]*geometry.Surface, 0, nPhi*nZ)
	for i := 0; i < nPhi; i++ {
		phi := -math.Pi + (float64(i)+0.5)*dPhi
		normal := geometry.Vec{X: math.Cos(phi), Y: math.Sin(phi)}
		for j := 0; j < nZ; j++ {
			c := r3.Scale(radius, normal)
			c.Z = zRange[0] + (float64(j)+0.5)*dZ
			out = append(out, &geometry.Surface{
				ID:     fmt.Sprintf("%s/%d-%d", prefix, i, j),
				Center: c,
				Normal: normal,
			})
		}
	}
	return out
}

// DiscLayer places nR rings of nPhi petals between rRange[0] and rRange[1]
// in the plane z. Petals face +z.
func DiscLayer(prefix string, z float64, rRange [2]float64, nR, nPhi int) []*geometry.Surface {
	if nR <= 0 || nPhi <= 0 {
		return nil
	}
	dR := (rRange[1] - rRange[0]) / float64(nR)
	dPhi := 2 * math.Pi / float64(nPhi)

	out := make([]*geometry.Surface, 0, nR*nPhi)
	for i := 0; i < nR; i++ {
		r := rRange[0] + (float64(i)+0.5)*dR
		for j := 0; j < nPhi; j++ {
			phi := -math.Pi + (float64(j)+0.5)*dPhi
			out = append(out, &geometry.Surface{
				ID:     fmt.Sprintf("%s/%d-%d", prefix, i, j),
				Center: geometry.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z},
				Normal: geometry.Vec{Z: 1},
			})
		}
	}
	return out
}
