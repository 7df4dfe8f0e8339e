package navigation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/signalsfoundry/navpolicy/internal/logging"
	"github.com/signalsfoundry/navpolicy/navigation/surfacegrid"
)

type fakeRecorder struct {
	built    []Kind
	failures []string
	grids    map[string]surfacegrid.Stats
}

func (r *fakeRecorder) PolicyBuilt(_ string, kind Kind) { r.built = append(r.built, kind) }
func (r *fakeRecorder) BuildFailed(reason string)       { r.failures = append(r.failures, reason) }
func (r *fakeRecorder) GridBuilt(volume string, stats surfacegrid.Stats) {
	if r.grids == nil {
		r.grids = make(map[string]surfacegrid.Stats)
	}
	r.grids[volume] = stats
}

func mustAdd(t *testing.T, f *Factory, kind Kind, cfg Config) {
	t.Helper()
	if _, err := f.Add(kind, cfg); err != nil {
		t.Fatalf("Add(%s): %v", kind, err)
	}
}

func TestFactoryBuildsCompositeInRegistrationOrder(t *testing.T) {
	vol := barrelVolume(t, "barrel", 30, 20, 10, 4)

	f := NewFactory()
	mustAdd(t, f, TryAllPortal, nil)
	mustAdd(t, f, SurfaceArray, SurfaceArrayConfig{LayerType: LayerCylinder, Bins: [2]int{10, 10}})

	comp, err := f.Finalize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if comp.Len() != 2 {
		t.Fatalf("composite len = %d, want 2", comp.Len())
	}
	kinds := comp.Kinds()
	if kinds[0] != TryAllPortal || kinds[1] != SurfaceArray {
		t.Fatalf("composite kinds = %v, want [try_all_portal surface_array]", kinds)
	}
	if comp.Volume() != vol {
		t.Fatalf("composite bound to wrong volume")
	}

	target := vol.Surfaces()[57]
	cands := comp.Candidates(Query{Position: target.Center, Direction: target.Normal})
	portals := vol.Portals()
	if len(cands) <= len(portals) {
		t.Fatalf("candidates = %d, want more than the %d portals", len(cands), len(portals))
	}
	for i, p := range portals {
		if cands[i].Portal != p {
			t.Fatalf("candidate %d = %q, want portal %q", i, cands[i].ID(), p.ID())
		}
	}
	if !containsSurface(cands[len(portals):], target) {
		t.Fatalf("surface array part does not contain the surface at the query point")
	}
}

func TestFactoryAddChains(t *testing.T) {
	f := NewFactory()
	next, err := f.Add(TryAllSurface, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if next != f {
		t.Fatalf("Add should return the receiver")
	}
	next, err = f.Add(TryAllSurface, nil)
	if err == nil || next != f {
		t.Fatalf("failing Add should still return the receiver, got %p err %v", next, err)
	}
}

func TestFactoryRejectsDuplicateKind(t *testing.T) {
	f := NewFactory()
	mustAdd(t, f, TryAllSurface, nil)
	mustAdd(t, f, TryAllPortal, nil)

	if _, err := f.Add(TryAllSurface, nil); !errors.Is(err, ErrDuplicatePolicy) {
		t.Fatalf("err = %v, want ErrDuplicatePolicy", err)
	}
	kinds := f.Kinds()
	if len(kinds) != 2 || kinds[0] != TryAllSurface || kinds[1] != TryAllPortal {
		t.Fatalf("registration list changed: %v", kinds)
	}
}

func TestFactoryFinalizeEmpty(t *testing.T) {
	vol := planeVolume(t, "empty", 2, 2, 1)
	f := NewFactory()

	if _, err := f.Finalize(context.Background(), vol); !errors.Is(err, ErrEmptyFactory) {
		t.Fatalf("err = %v, want ErrEmptyFactory", err)
	}
	t.Run("nil volume", func(t *testing.T) {
		if _, err := NewFactory().Finalize(context.Background(), nil); !errors.Is(err, ErrEmptyFactory) {
			t.Fatalf("err = %v, want ErrEmptyFactory", err)
		}
	})
	// The failed finalize leaves the factory usable.
	mustAdd(t, f, TryAllPortal, nil)
	comp, err := f.Finalize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Finalize after Add: %v", err)
	}
	if comp.Len() != 1 {
		t.Fatalf("composite len = %d, want 1", comp.Len())
	}
}

func TestFactoryIsTerminalAfterFinalize(t *testing.T) {
	vol := planeVolume(t, "v", 2, 2, 1)
	f := NewFactory()
	mustAdd(t, f, TryAllSurface, nil)
	if _, err := f.Finalize(context.Background(), vol); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if f.Len() != 0 {
		t.Fatalf("registrations not discarded: %d left", f.Len())
	}
	if _, err := f.Finalize(context.Background(), vol); !errors.Is(err, ErrFactoryBuilt) {
		t.Fatalf("second Finalize err = %v, want ErrFactoryBuilt", err)
	}
	if _, err := f.Add(TryAllPortal, nil); !errors.Is(err, ErrFactoryBuilt) {
		t.Fatalf("Add after Finalize err = %v, want ErrFactoryBuilt", err)
	}
}

func TestFactoryFinalizeNilVolume(t *testing.T) {
	f := NewFactory()
	mustAdd(t, f, TryAllSurface, nil)
	if _, err := f.Finalize(context.Background(), nil); !errors.Is(err, ErrNilVolume) {
		t.Fatalf("err = %v, want ErrNilVolume", err)
	}
	if f.Len() != 1 {
		t.Fatalf("registrations lost on failed finalize")
	}
}

func TestFactoryConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		cfg  Config
		want error
	}{
		{name: "surface array without config", kind: SurfaceArray, want: ErrMissingConfig},
		{name: "surface array typed nil", kind: SurfaceArray, cfg: (*SurfaceArrayConfig)(nil), want: ErrMissingConfig},
		{name: "zero bins", kind: SurfaceArray, cfg: SurfaceArrayConfig{LayerType: LayerPlane, Bins: [2]int{0, 4}}, want: ErrInvalidConfig},
		{name: "negative bins", kind: SurfaceArray, cfg: SurfaceArrayConfig{LayerType: LayerDisc, Bins: [2]int{4, -1}}, want: ErrInvalidConfig},
		{name: "even window", kind: SurfaceArray, cfg: SurfaceArrayConfig{LayerType: LayerPlane, Bins: [2]int{4, 4}, Window: 4}, want: ErrInvalidConfig},
		{name: "unknown layer", kind: SurfaceArray, cfg: SurfaceArrayConfig{LayerType: LayerType(9), Bins: [2]int{4, 4}}, want: ErrInvalidConfig},
		{name: "wrong config kind", kind: SurfaceArray, cfg: DefaultTryAllConfig(), want: ErrInvalidConfig},
		{name: "config for try-all-portal", kind: TryAllPortal, cfg: SurfaceArrayConfig{LayerType: LayerPlane, Bins: [2]int{1, 1}}, want: ErrInvalidConfig},
		{name: "try-all nothing enabled", kind: TryAll, cfg: TryAllConfig{}, want: ErrInvalidConfig},
		{name: "unknown kind", kind: Kind(0), want: ErrUnknownPolicy},
		{name: "kind out of range", kind: Kind(99), want: ErrUnknownPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			f := NewFactory(WithRecorder(rec))
			if _, err := f.Add(tt.kind, tt.cfg); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if f.Len() != 0 {
				t.Fatalf("failed Add mutated the registration list")
			}
			if len(rec.failures) != 1 || rec.failures[0] != failureReason(tt.want) {
				t.Fatalf("recorded failures = %v, want [%s]", rec.failures, failureReason(tt.want))
			}
		})
	}
}

func TestFactoryAcceptsPointerConfig(t *testing.T) {
	vol := planeVolume(t, "v", 4, 4, 0)
	f := NewFactory()
	mustAdd(t, f, SurfaceArray, &SurfaceArrayConfig{LayerType: LayerPlane, Bins: [2]int{2, 2}})
	mustAdd(t, f, TryAll, &TryAllConfig{Sensitives: true})
	comp, err := f.Finalize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sa := comp.Policies()[0].(*SurfaceArrayPolicy)
	if sa.Config().Window != DefaultWindow {
		t.Fatalf("window = %d, want default %d", sa.Config().Window, DefaultWindow)
	}
	ta := comp.Policies()[1].(*TryAllPolicy)
	if ta.Config().Portals || !ta.Config().Sensitives {
		t.Fatalf("try-all config = %+v", ta.Config())
	}
}

func TestFactoryReportsToRecorder(t *testing.T) {
	vol := planeVolume(t, "layer", 6, 6, 2)
	rec := &fakeRecorder{}
	f := NewFactory(WithRecorder(rec))
	mustAdd(t, f, SurfaceArray, SurfaceArrayConfig{LayerType: LayerPlane, Bins: [2]int{3, 3}})
	mustAdd(t, f, TryAllPortal, nil)
	if _, err := f.Finalize(context.Background(), vol); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(rec.built) != 2 || rec.built[0] != SurfaceArray || rec.built[1] != TryAllPortal {
		t.Fatalf("recorded builds = %v", rec.built)
	}
	stats, ok := rec.grids["layer"]
	if !ok {
		t.Fatalf("grid stats not recorded")
	}
	if stats.Cells != 9 || stats.Members != 36 || stats.MaxOccupancy != 4 {
		t.Fatalf("grid stats = %+v", stats)
	}
	if len(rec.failures) != 0 {
		t.Fatalf("unexpected failures: %v", rec.failures)
	}
}

func TestFactoryFinalizeSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	vol := planeVolume(t, "traced", 2, 2, 1)
	f := NewFactory(WithTracer(tp.Tracer("test")))
	if _, err := f.Finalize(context.Background(), vol); err == nil {
		t.Fatalf("expected empty factory error")
	}
	mustAdd(t, f, TryAllPortal, nil)
	if _, err := f.Finalize(context.Background(), vol); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "navigation.Factory.Finalize" {
			t.Fatalf("span name = %q", s.Name())
		}
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("failed finalize span status = %v, want Error", spans[0].Status().Code)
	}
	if spans[1].Status().Code == codes.Error {
		t.Fatalf("successful finalize span marked as error")
	}
}

func TestFactoryFinalizeLogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "info", Format: "json", Output: &buf})
	ctx := logging.ContextWithLogger(context.Background(), log.With(logging.String("stage", "ctx")))

	vol := planeVolume(t, "logged", 2, 2, 1)
	f := NewFactory()
	mustAdd(t, f, TryAllPortal, nil)
	if _, err := f.Finalize(ctx, vol); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "navigation policy built") {
		t.Fatalf("context logger missed build message: %s", out)
	}
	if !strings.Contains(out, `"stage":"ctx"`) || !strings.Contains(out, `"volume":"logged"`) {
		t.Fatalf("build message lacks context fields: %s", out)
	}
}

func TestFactoryExplicitLoggerWinsOverContext(t *testing.T) {
	var ctxBuf, optBuf bytes.Buffer
	ctxLog := logging.New(logging.Config{Level: "info", Format: "json", Output: &ctxBuf})
	optLog := logging.New(logging.Config{Level: "info", Format: "json", Output: &optBuf})
	ctx := logging.ContextWithLogger(context.Background(), ctxLog)

	vol := planeVolume(t, "explicit", 2, 2, 1)
	f := NewFactory(WithLogger(optLog))
	mustAdd(t, f, TryAllPortal, nil)
	if _, err := f.Finalize(ctx, vol); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if ctxBuf.Len() != 0 {
		t.Fatalf("context logger written despite WithLogger: %s", ctxBuf.String())
	}
	if !strings.Contains(optBuf.String(), "navigation policy built") {
		t.Fatalf("WithLogger logger missed build message: %s", optBuf.String())
	}
}
