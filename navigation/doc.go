// Package navigation builds and composes the navigation policies attached to
// detector volumes.
//
// A policy answers a single question for the propagation loop: given the
// current position and direction inside a volume, which surfaces and portals
// should be intersection-tested next? Policies come from a closed set of
// kinds (see Kind). A Factory collects one registration per kind and, on
// Finalize, instantiates them against a volume and wraps them in a
// Composite, which is the only object the navigator talks to.
//
// Construction is single-threaded and happens before propagation starts.
// Once built, a Composite and everything it owns are immutable and may be
// queried concurrently without locking.
package navigation
