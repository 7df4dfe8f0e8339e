package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/internal/logging"
	"github.com/signalsfoundry/navpolicy/navigation"
)

const tracerName = "github.com/signalsfoundry/navpolicy/detector"

// ErrInvalidDescription marks structural problems in a geometry description.
var ErrInvalidDescription = errors.New("invalid geometry description")

// Options control how Load assembles a detector.
type Options struct {
	Logger   logging.Logger
	Recorder navigation.BuildRecorder
	Tracer   trace.Tracer
	// Workers bounds how many volumes build their policies concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// internal YAML shapes, unexported so the schema can evolve.
type description struct {
	Volumes []volumeDoc `yaml:"volumes"`
	Portals []portalDoc `yaml:"portals"`
}

type volumeDoc struct {
	Name       string          `yaml:"name"`
	Bounds     boundsDoc       `yaml:"bounds"`
	Surfaces   []surfaceDoc    `yaml:"surfaces"`
	Layers     []layerDoc      `yaml:"layers"`
	Navigation []navigationDoc `yaml:"navigation"`
}

type boundsDoc struct {
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

type surfaceDoc struct {
	ID     string    `yaml:"id"`
	Center []float64 `yaml:"center"`
	Normal []float64 `yaml:"normal"`
}

type portalDoc struct {
	ID      string    `yaml:"id"`
	Center  []float64 `yaml:"center"`
	Normal  []float64 `yaml:"normal"`
	Volumes []string  `yaml:"volumes"` // one or two volume names; one means world boundary
}

// layerDoc describes a generated layer. Count is (nx, ny) for planes,
// (nPhi, nZ) for cylinders and (nR, nPhi) for discs.
type layerDoc struct {
	Type   string     `yaml:"type"`
	Prefix string     `yaml:"prefix"`
	Count  [2]int     `yaml:"count"`
	Center []float64  `yaml:"center"`
	Size   [2]float64 `yaml:"size"`
	Radius float64    `yaml:"radius"`
	ZRange [2]float64 `yaml:"z_range"`
	RRange [2]float64 `yaml:"r_range"`
	Z      float64    `yaml:"z"`
}

type navigationDoc struct {
	Type       string `yaml:"type"`
	Layer      string `yaml:"layer"`
	Bins       [2]int `yaml:"bins"`
	Window     int    `yaml:"window"`
	Portals    *bool  `yaml:"portals"`
	Sensitives *bool  `yaml:"sensitives"`
}

// Load reads a YAML geometry description from r, assembles its volumes and
// builds one navigation policy per volume through a navigation.Factory.
// Volumes without a navigation section get the combined try-all policy.
func Load(ctx context.Context, r io.Reader, opts Options) (*Detector, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	ctx, log := logging.WithBuildLogger(ctx, opts.Logger)
	ctx = logging.ContextWithLogger(ctx, log)

	ctx, span := opts.Tracer.Start(ctx, "detector.Load")
	defer span.End()

	det, err := load(ctx, r, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "geometry load failed", logging.Err(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("volumes", det.Len()))
	log.Info(ctx, "geometry loaded", logging.Int("volumes", det.Len()))
	return det, nil
}

func load(ctx context.Context, r io.Reader, opts Options) (*Detector, error) {
	var desc description
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidDescription, err)
	}
	if len(desc.Volumes) == 0 {
		return nil, fmt.Errorf("%w: no volumes", ErrInvalidDescription)
	}

	portals, err := buildPortals(desc)
	if err != nil {
		return nil, err
	}

	det := New()
	vols := make([]*geometry.Volume, len(desc.Volumes))
	for i, vd := range desc.Volumes {
		vol, err := buildVolume(vd, portals[vd.Name])
		if err != nil {
			return nil, err
		}
		if err := det.AddVolume(vol); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
		}
		vols[i] = vol
	}

	composites := make([]*navigation.Composite, len(vols))
	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i := range vols {
		i := i
		g.Go(func() error {
			c, err := buildPolicy(gctx, vols[i], desc.Volumes[i].Navigation, opts)
			if err != nil {
				return err
			}
			composites[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, c := range composites {
		if err := det.AttachPolicy(vols[i].Name(), c); err != nil {
			return nil, err
		}
	}
	return det, nil
}

// buildPortals creates each portal once and files it under every volume it
// joins, so neighbouring volumes share the same surface.
func buildPortals(desc description) (map[string][]*geometry.Portal, error) {
	known := make(map[string]bool, len(desc.Volumes))
	for _, vd := range desc.Volumes {
		known[vd.Name] = true
	}

	out := make(map[string][]*geometry.Portal)
	for _, pd := range desc.Portals {
		if pd.ID == "" {
			return nil, fmt.Errorf("%w: portal with empty id", ErrInvalidDescription)
		}
		if len(pd.Volumes) == 0 || len(pd.Volumes) > 2 {
			return nil, fmt.Errorf("%w: portal %q must join one or two volumes", ErrInvalidDescription, pd.ID)
		}
		center, err := vec(pd.Center, "center")
		if err != nil {
			return nil, fmt.Errorf("portal %q: %w", pd.ID, err)
		}
		normal, err := vec(pd.Normal, "normal")
		if err != nil {
			return nil, fmt.Errorf("portal %q: %w", pd.ID, err)
		}
		if len(pd.Volumes) == 2 && pd.Volumes[0] == pd.Volumes[1] {
			return nil, fmt.Errorf("%w: portal %q lists volume %q twice", ErrInvalidDescription, pd.ID, pd.Volumes[0])
		}
		p := &geometry.Portal{Surface: &geometry.Surface{ID: pd.ID, Center: center, Normal: normal}}
		for i, name := range pd.Volumes {
			if !known[name] {
				return nil, fmt.Errorf("%w: portal %q joins unknown volume %q", ErrInvalidDescription, pd.ID, name)
			}
			p.Volumes[i] = name
			out[name] = append(out[name], p)
		}
	}
	return out, nil
}

func buildVolume(vd volumeDoc, portals []*geometry.Portal) (*geometry.Volume, error) {
	lo, err := vec(vd.Bounds.Min, "bounds.min")
	if err != nil {
		return nil, fmt.Errorf("volume %q: %w", vd.Name, err)
	}
	hi, err := vec(vd.Bounds.Max, "bounds.max")
	if err != nil {
		return nil, fmt.Errorf("volume %q: %w", vd.Name, err)
	}

	var surfaces []*geometry.Surface
	for _, sd := range vd.Surfaces {
		center, err := vec(sd.Center, "center")
		if err != nil {
			return nil, fmt.Errorf("volume %q surface %q: %w", vd.Name, sd.ID, err)
		}
		normal, err := vec(sd.Normal, "normal")
		if err != nil {
			return nil, fmt.Errorf("volume %q surface %q: %w", vd.Name, sd.ID, err)
		}
		surfaces = append(surfaces, &geometry.Surface{ID: sd.ID, Center: center, Normal: normal})
	}
	for i, ld := range vd.Layers {
		gen, err := generateLayer(vd.Name, i, ld)
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, gen...)
	}

	vol, err := geometry.NewVolume(vd.Name, geometry.Bounds{Min: lo, Max: hi}, surfaces, portals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	return vol, nil
}

func generateLayer(volume string, idx int, ld layerDoc) ([]*geometry.Surface, error) {
	prefix := ld.Prefix
	if prefix == "" {
		prefix = fmt.Sprintf("%s/layer%d", volume, idx)
	}
	if ld.Count[0] <= 0 || ld.Count[1] <= 0 {
		return nil, fmt.Errorf("%w: volume %q layer %d: count must be positive", ErrInvalidDescription, volume, idx)
	}

	lt, err := navigation.ParseLayerType(ld.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: volume %q layer %d: %w", ErrInvalidDescription, volume, idx, err)
	}
	switch lt {
	case navigation.LayerPlane:
		center := geometry.Vec{}
		if ld.Center != nil {
			if center, err = vec(ld.Center, "center"); err != nil {
				return nil, fmt.Errorf("volume %q layer %d: %w", volume, idx, err)
			}
		}
		return PlaneLayer(prefix, center, ld.Size, ld.Count), nil
	case navigation.LayerCylinder:
		if ld.Radius <= 0 {
			return nil, fmt.Errorf("%w: volume %q layer %d: cylinder radius must be positive", ErrInvalidDescription, volume, idx)
		}
		return CylinderLayer(prefix, ld.Radius, ld.ZRange, ld.Count[0], ld.Count[1]), nil
	default:
		if ld.RRange[1] < ld.RRange[0] || ld.RRange[0] < 0 {
			return nil, fmt.Errorf("%w: volume %q layer %d: bad disc r_range %v", ErrInvalidDescription, volume, idx, ld.RRange)
		}
		return DiscLayer(prefix, ld.Z, ld.RRange, ld.Count[0], ld.Count[1]), nil
	}
}

// buildPolicy finalizes against ctx, whose build logger gives factory
// messages the load's build_id.
func buildPolicy(ctx context.Context, vol *geometry.Volume, docs []navigationDoc, opts Options) (*navigation.Composite, error) {
	f := navigation.NewFactory(
		navigation.WithRecorder(opts.Recorder),
		navigation.WithTracer(opts.Tracer),
	)
	if len(docs) == 0 {
		docs = []navigationDoc{{Type: navigation.TryAll.String()}}
	}
	for _, nd := range docs {
		kind, cfg, err := registrationFromDoc(nd)
		if err != nil {
			return nil, fmt.Errorf("volume %q: %w", vol.Name(), err)
		}
		if _, err := f.Add(kind, cfg); err != nil {
			return nil, fmt.Errorf("volume %q: %w", vol.Name(), err)
		}
	}
	return f.Finalize(ctx, vol)
}

func registrationFromDoc(nd navigationDoc) (navigation.Kind, navigation.Config, error) {
	kind, err := navigation.ParseKind(nd.Type)
	if err != nil {
		return 0, nil, err
	}
	switch kind {
	case navigation.SurfaceArray:
		lt, err := navigation.ParseLayerType(nd.Layer)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %w", navigation.ErrInvalidConfig, err)
		}
		return kind, navigation.SurfaceArrayConfig{LayerType: lt, Bins: nd.Bins, Window: nd.Window}, nil
	case navigation.TryAll:
		cfg := navigation.DefaultTryAllConfig()
		if nd.Portals != nil {
			cfg.Portals = *nd.Portals
		}
		if nd.Sensitives != nil {
			cfg.Sensitives = *nd.Sensitives
		}
		return kind, cfg, nil
	default:
		return kind, nil, nil
	}
}

func vec(v []float64, field string) (geometry.Vec, error) {
	if len(v) != 3 {
		return geometry.Vec{}, fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalidDescription, field, len(v))
	}
	return geometry.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
