// Package surfacegrid implements the two-dimensional bin index used by the
// surface-array navigation policy.
//
// Member positions are flattened onto a local coordinate pair chosen by the
// layer type:
//
//	Plane    (x, y)     both axes bound
//	Cylinder (phi, z)   phi closed over [-pi, pi)
//	Disc     (r, phi)   phi closed over [-pi, pi)
//
// Bound axes span the extent of the projected members and are split into
// equal-width bins. A value v falls into bin floor((v-min)/width); every bin
// is half-open [lo, hi) except the last, which also takes v == max. Values
// outside a bound axis are clamped into the first or last bin. Closed axes
// wrap around.
//
// A Grid is built once and never re-partitioned. Lookups read immutable state
// only and are safe for concurrent use.
package surfacegrid
