package navigation

import "github.com/signalsfoundry/navpolicy/geometry"

// Deduplicate returns the candidates with repeated surfaces removed, keeping
// the first occurrence and the original order. The input is not modified.
func Deduplicate(cands []Candidate) []Candidate {
	seen := make(map[*geometry.Surface]struct{}, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.Surface]; dup {
			continue
		}
		seen[c.Surface] = struct{}{}
		out = append(out, c)
	}
	return out
}
