package geometry

// Surface is a sensitive detector element that the stepper intersects.
// Surfaces are immutable once the owning volume is built.
type Surface struct {
	ID     string
	Center Vec
	Normal Vec
}

// Portal is a boundary surface joining two volumes. Either side may be empty
// when the portal faces the world boundary.
type Portal struct {
	Surface *Surface
	Volumes [2]string
}

// ID returns the identifier of the underlying surface.
func (p *Portal) ID() string {
	if p == nil || p.Surface == nil {
		return ""
	}
	return p.Surface.ID
}

// Joins reports whether the portal borders the named volume.
func (p *Portal) Joins(volume string) bool {
	return p.Volumes[0] == volume || p.Volumes[1] == volume
}

// Other returns the volume on the far side of the portal as seen from
// volume, or "" for the world boundary.
func (p *Portal) Other(volume string) string {
	switch volume {
	case p.Volumes[0]:
		return p.Volumes[1]
	case p.Volumes[1]:
		return p.Volumes[0]
	default:
		return ""
	}
}
