package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/navpolicy/detector"
	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/internal/config"
	"github.com/signalsfoundry/navpolicy/internal/logging"
	"github.com/signalsfoundry/navpolicy/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "navigator",
		Short: "Build and query navigation policies for a detector geometry",
		Long: `navigator loads a YAML detector description, builds the navigation
policy attached to every volume and lets you inspect or exercise it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("geometry", "", "Geometry description (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newDescribeCmd(),
		newQueryCmd(),
		newBenchCmd(),
	)
	return rootCmd
}

// session is everything a subcommand needs once the geometry is built.
type session struct {
	cfg       config.Config
	log       logging.Logger
	collector *observability.NavigationCollector
	det       *detector.Detector
	span      trace.Span
	shutdown  func(context.Context) error
}

func (s *session) close(ctx context.Context) {
	s.span.End()
	observability.ShutdownWithTimeout(ctx, s.shutdown, s.log)
}

// openSession resolves configuration, initialises logging, tracing and
// metrics, then loads and builds the geometry.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("geometry"); v != "" {
		cfg.GeometryPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.GeometryPath == "" {
		return nil, errors.New("no geometry given: use --geometry or NAV_GEOMETRY")
	}

	cfg.Log.Output = cmd.ErrOrStderr()
	log := logging.New(cfg.Log)

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, cfg.GeometryPath, log)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	ctx, span := observability.StartCommandSpan(ctx, cmd.Name(), cfg.GeometryPath)
	abort := func(err error) (*session, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		observability.ShutdownWithTimeout(context.Background(), shutdown, log)
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector, err := observability.NewNavigationCollector(registry)
	if err != nil {
		return abort(fmt.Errorf("init metrics: %w", err))
	}

	f, err := os.Open(cfg.GeometryPath)
	if err != nil {
		return abort(fmt.Errorf("open geometry: %w", err))
	}
	defer f.Close()

	det, err := detector.Load(ctx, f, detector.Options{
		Logger:   log,
		Recorder: collector,
		Workers:  cfg.Workers,
	})
	if err != nil {
		return abort(fmt.Errorf("load %s: %w", cfg.GeometryPath, err))
	}

	return &session{
		cfg:       cfg,
		log:       log,
		collector: collector,
		det:       det,
		span:      span,
		shutdown:  shutdown,
	}, nil
}

func serveMetrics(addr string, collector *observability.NavigationCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// parseVec reads "x,y,z".
func parseVec(s string) (geometry.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Vec{}, fmt.Errorf("vector %q: want x,y,z", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Vec{}, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = f
	}
	return geometry.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
