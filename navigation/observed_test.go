package navigation

import (
	"testing"
	"time"
)

type queryRecord struct {
	volume     string
	candidates int
}

type fakeObserver struct {
	records []queryRecord
}

func (o *fakeObserver) ObserveQuery(volume string, candidates int, elapsed time.Duration) {
	if elapsed < 0 {
		panic("negative query duration")
	}
	o.records = append(o.records, queryRecord{volume: volume, candidates: candidates})
}

func TestObservedReportsEachQuery(t *testing.T) {
	vol := planeVolume(t, "layer", 3, 3, 2)
	comp := buildComposite(t, vol, registration{kind: TryAllPortal}, registration{kind: TryAllSurface})

	obs := &fakeObserver{}
	nav := Observed(comp, obs)
	for i := 0; i < 4; i++ {
		if got := len(nav.Candidates(Query{})); got != 11 {
			t.Fatalf("candidates = %d, want 11", got)
		}
	}
	if len(obs.records) != 4 {
		t.Fatalf("observed %d queries, want 4", len(obs.records))
	}
	for _, r := range obs.records {
		if r.volume != "layer" || r.candidates != 11 {
			t.Fatalf("unexpected record %+v", r)
		}
	}
}

func TestObservedWithoutObserverIsComposite(t *testing.T) {
	vol := planeVolume(t, "layer", 1, 1, 1)
	comp := buildComposite(t, vol, registration{kind: TryAllPortal})
	if nav := Observed(comp, nil); nav != Navigator(comp) {
		t.Fatalf("Observed(c, nil) should return c")
	}
}
