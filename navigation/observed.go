package navigation

import "time"

// QueryObserver receives per-query measurements from an observed navigator.
type QueryObserver interface {
	ObserveQuery(volume string, candidates int, elapsed time.Duration)
}

type observedNavigator struct {
	next     *Composite
	volume   string
	observer QueryObserver
}

// Observed wraps c so every query is reported to observer. The composite
// itself stays free of side effects; a nil observer returns c unchanged.
func Observed(c *Composite, observer QueryObserver) Navigator {
	if observer == nil {
		return c
	}
	return &observedNavigator{next: c, volume: c.Volume().Name(), observer: observer}
}

func (o *observedNavigator) Candidates(q Query) []Candidate {
	start := time.Now()
	out := o.next.Candidates(q)
	o.observer.ObserveQuery(o.volume, len(out), time.Since(start))
	return out
}
