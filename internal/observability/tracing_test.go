package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("NAV_TRACING_ENABLED", "")
	t.Setenv("NAV_TRACING_EXPORTER", "")
	t.Setenv("NAV_TRACING_SERVICE_NAME", "")
	t.Setenv("NAV_TRACING_SAMPLE_RATIO", "")
	t.Setenv("NAV_OTLP_ENDPOINT", "")

	cfg := TracingConfigFromEnv()
	want := DefaultTracingConfig()
	if cfg != want {
		t.Fatalf("TracingConfigFromEnv() = %+v, want %+v", cfg, want)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("NAV_TRACING_ENABLED", "TRUE")
	t.Setenv("NAV_TRACING_EXPORTER", "OTLP")
	t.Setenv("NAV_TRACING_SERVICE_NAME", "tracker")
	t.Setenv("NAV_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("NAV_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.ServiceName != "tracker" ||
		cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("NAV_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("out-of-range ratio should fall back to 1, got %v", got)
	}
}

func TestTracingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultTracingConfig()},
		{name: "otlp", cfg: TracingConfig{Exporter: "otlp", SampleRatio: 0.5}},
		{name: "unknown exporter", cfg: TracingConfig{Exporter: "zipkin", SampleRatio: 1}, wantErr: true},
		{name: "negative ratio", cfg: TracingConfig{Exporter: "stdout", SampleRatio: -0.1}, wantErr: true},
		{name: "ratio above one", cfg: TracingConfig{Exporter: "stdout", SampleRatio: 1.5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, "tracker.yaml", nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, "", nil); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestGeometryResourceNamesDescription(t *testing.T) {
	res, err := GeometryResource(context.Background(), DefaultTracingConfig(), "configs/tracker.yaml")
	if err != nil {
		t.Fatalf("GeometryResource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"service.name":            "navpolicy",
		"service.namespace":       "navigation",
		"navpolicy.geometry":      "tracker",
		"navpolicy.geometry.path": "configs/tracker.yaml",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("resource %s = %q, want %q (all: %v)", k, got[k], v, got)
		}
	}

	res, err = GeometryResource(context.Background(), DefaultTracingConfig(), "")
	if err != nil {
		t.Fatalf("GeometryResource: %v", err)
	}
	if _, ok := res.Set().Value(GeometryKey); ok {
		t.Fatalf("resource without geometry carries %s", GeometryKey)
	}
}

func TestNewTracerProviderDisabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), TracingConfig{}, "tracker.yaml")
	if err != nil {
		t.Fatalf("NewTracerProvider: %v", err)
	}
	if tp != nil {
		t.Fatalf("disabled tracing returned a provider")
	}
}

func TestCommandSpanExportedWithGeometry(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &buf

	shutdown, err := InitTracing(context.Background(), cfg, "configs/tracker.yaml", nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := StartCommandSpan(context.Background(), "describe", "configs/tracker.yaml")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"navigator.describe", "navpolicy.command", "navpolicy.geometry", "tracker"} {
		if !strings.Contains(out, want) {
			t.Fatalf("exported span lacks %q:\n%s", want, out)
		}
	}
}
