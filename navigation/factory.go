package navigation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/internal/logging"
	"github.com/signalsfoundry/navpolicy/navigation/surfacegrid"
)

const tracerName = "github.com/signalsfoundry/navpolicy/navigation"

// BuildRecorder is notified about factory outcomes. The Prometheus collector
// in internal/observability implements it.
type BuildRecorder interface {
	PolicyBuilt(volume string, kind Kind)
	BuildFailed(reason string)
	GridBuilt(volume string, stats surfacegrid.Stats)
}

type factoryState int

const (
	stateEmpty factoryState = iota
	stateAccumulating
	stateBuilt
)

func (s factoryState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateAccumulating:
		return "accumulating"
	case stateBuilt:
		return "built"
	default:
		return fmt.Sprintf("factoryState(%d)", int(s))
	}
}

type registration struct {
	kind   Kind
	config Config
}

// Factory accumulates policy registrations for one volume and turns them
// into a Composite. It moves Empty -> Accumulating -> Built; Built is
// terminal and any further call fails with ErrFactoryBuilt.
//
// A Factory is not safe for concurrent use.
type Factory struct {
	state    factoryState
	regs     []registration
	log      logging.Logger
	logSet   bool
	recorder BuildRecorder
	tracer   trace.Tracer
}

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger used for registration and build messages.
// Without it, Finalize logs to the logger carried by its context, if any.
func WithLogger(l logging.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.log = l
			f.logSet = true
		}
	}
}

// WithRecorder reports build outcomes to r.
func WithRecorder(r BuildRecorder) FactoryOption {
	return func(f *Factory) { f.recorder = r }
}

// WithTracer overrides the tracer used to span Finalize.
func WithTracer(t trace.Tracer) FactoryOption {
	return func(f *Factory) {
		if t != nil {
			f.tracer = t
		}
	}
}

// NewFactory returns an empty factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		log:    logging.Noop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Add registers a policy kind with its configuration. cfg may be nil for
// kinds that have a default; SurfaceArray requires one. Validation happens
// immediately: on error the registration list is left untouched. The
// factory is returned in every case so callers may keep going and collect
// errors themselves.
func (f *Factory) Add(kind Kind, cfg Config) (*Factory, error) {
	if err := f.add(kind, cfg); err != nil {
		f.fail(err)
		return f, err
	}
	f.log.Debug(context.Background(), "navigation policy registered",
		logging.String("kind", kind.String()),
		logging.Int("position", len(f.regs)-1),
	)
	return f, nil
}

func (f *Factory) add(kind Kind, cfg Config) error {
	if f.state == stateBuilt {
		return fmt.Errorf("add %s: %w", kind, ErrFactoryBuilt)
	}
	if !kind.Valid() {
		return fmt.Errorf("add: %w: %s", ErrUnknownPolicy, kind)
	}
	if f.Has(kind) {
		return fmt.Errorf("add %s: %w", kind, ErrDuplicatePolicy)
	}
	resolved, err := resolveConfig(kind, cfg)
	if err != nil {
		return fmt.Errorf("add %s: %w", kind, err)
	}
	f.regs = append(f.regs, registration{kind: kind, config: resolved})
	f.state = stateAccumulating
	return nil
}

// Has reports whether kind is already registered.
func (f *Factory) Has(kind Kind) bool {
	for _, r := range f.regs {
		if r.kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the registered kinds in registration order.
func (f *Factory) Kinds() []Kind {
	kinds := make([]Kind, len(f.regs))
	for i, r := range f.regs {
		kinds[i] = r.kind
	}
	return kinds
}

// Len returns the number of registrations.
func (f *Factory) Len() int { return len(f.regs) }

// Finalize instantiates every registration against vol, in order, and
// returns the resulting Composite. The context only carries logging and
// tracing; building never blocks. On success the registrations are
// discarded and the factory becomes unusable.
func (f *Factory) Finalize(ctx context.Context, vol *geometry.Volume) (*Composite, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	volName := ""
	if vol != nil {
		volName = vol.Name()
	}
	log := f.buildLogger(ctx)

	ctx, span := f.tracer.Start(ctx, "navigation.Factory.Finalize", trace.WithAttributes(
		attribute.String("volume", volName),
		attribute.Int("policies", len(f.regs)),
	))
	defer span.End()

	comp, err := f.finalize(ctx, log, vol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.fail(err)
		log.Warn(ctx, "navigation policy build failed",
			logging.String("volume", volName),
			logging.String("error", err.Error()),
		)
		return nil, err
	}

	log.Info(ctx, "navigation policy built",
		logging.String("volume", volName),
		logging.Any("kinds", comp.Kinds()),
	)
	return comp, nil
}

// buildLogger prefers an explicit WithLogger over the context logger.
func (f *Factory) buildLogger(ctx context.Context) logging.Logger {
	if f.logSet {
		return f.log
	}
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return f.log
}

func (f *Factory) finalize(ctx context.Context, log logging.Logger, vol *geometry.Volume) (*Composite, error) {
	switch {
	case f.state == stateBuilt:
		return nil, fmt.Errorf("finalize: %w", ErrFactoryBuilt)
	case len(f.regs) == 0:
		return nil, fmt.Errorf("finalize: %w", ErrEmptyFactory)
	case vol == nil:
		return nil, fmt.Errorf("finalize: %w", ErrNilVolume)
	}

	policies := make([]Policy, 0, len(f.regs))
	for _, r := range f.regs {
		p, err := newPolicy(r.kind, r.config, vol)
		if err != nil {
			return nil, fmt.Errorf("finalize volume %q: build %s: %w", vol.Name(), r.kind, err)
		}
		policies = append(policies, p)
	}

	for _, p := range policies {
		if f.recorder != nil {
			f.recorder.PolicyBuilt(vol.Name(), p.Kind())
		}
		if sa, ok := p.(*SurfaceArrayPolicy); ok {
			stats := sa.Stats()
			if f.recorder != nil {
				f.recorder.GridBuilt(vol.Name(), stats)
			}
			log.Debug(ctx, "surface grid built",
				logging.String("volume", vol.Name()),
				logging.String("layer", sa.config.LayerType.String()),
				logging.Int("cells", stats.Cells),
				logging.Int("max_occupancy", stats.MaxOccupancy),
			)
		}
	}

	f.regs = nil
	f.state = stateBuilt
	return newComposite(vol, policies), nil
}

func (f *Factory) fail(err error) {
	if f.recorder != nil {
		f.recorder.BuildFailed(failureReason(err))
	}
}
