package navigation

import (
	"fmt"
	"strings"
)

// Kind identifies a navigation policy variant. The set is closed: adding a
// variant means adding a constant here and a case to newPolicy.
type Kind int

const (
	// TryAllPortal proposes every portal of the volume.
	TryAllPortal Kind = iota + 1
	// TryAllSurface proposes every sensitive surface of the volume.
	TryAllSurface
	// SurfaceArray proposes the surfaces binned near the query point.
	SurfaceArray
	// TryAll proposes portals and/or surfaces according to TryAllConfig.
	TryAll
)

var kindNames = map[Kind]string{
	TryAllPortal:  "try_all_portal",
	TryAllSurface: "try_all_surface",
	SurfaceArray:  "surface_array",
	TryAll:        "try_all",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k belongs to the known set.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a policy name (as written in geometry descriptions) onto a
// Kind. Dashes and case are ignored.
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for k, name := range kindNames {
		if name == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}
