// Package instrumentation provides OpenTelemetry metrics and tracing for zoomdrive.
//
// The package wires a meter provider and a tracer provider from environment
// driven configuration, and exposes a Metrics recorder for the concerns of a
// sync run: Zoom API calls, Drive API calls, transfer byte counts, and fully
// synced recordings.
//
// Metrics exporters: prometheus (default, exposed via promhttp when a metrics
// address is configured), otlp, stdout. Tracing exporters: otlp, stdout, none
// (default).
//
// All Metrics recording methods are safe to call on a zero or nil recorder,
// so components accept *Metrics without caring whether instrumentation is
// enabled.
//
// Example usage:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordZoomAPIOperation(ctx, "listMeetings", instrumentation.StatusSuccess, elapsed)
package instrumentation
