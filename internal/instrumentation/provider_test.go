package instrumentation

import (
	"context"
	"testing"
)

func TestNewProviderDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	if provider.Enabled() {
		t.Error("Expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("Expected a no-op metrics recorder, got nil")
	}
	if provider.HasPrometheusExporter() {
		t.Error("Expected no prometheus exporter when disabled")
	}

	// Shutdown of a disabled provider is a no-op
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNewProviderStdout(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:       "zoomdrive-test",
		ServiceVersion:    "test",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1.0,
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	}()

	if !provider.Enabled() {
		t.Error("Expected provider to be enabled")
	}
	if provider.Metrics() == nil {
		t.Fatal("Expected metrics recorder")
	}
	if provider.Tracer("test") == nil {
		t.Error("Expected tracer")
	}
}

func TestNewProviderInvalidExporter(t *testing.T) {
	ctx := context.Background()

	_, err := NewProvider(ctx, Config{
		ServiceName:     "zoomdrive-test",
		Enabled:         true,
		MetricsExporter: "statsd",
	})
	if err == nil {
		t.Error("Expected error for unsupported metrics exporter")
	}
}
