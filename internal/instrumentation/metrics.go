package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrOperation = "operation"
	attrService   = "service"
	attrStatus    = "status"
	attrDirection = "direction"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Zoom API metrics
	zoomAPIOperationsTotal   metric.Int64Counter
	zoomAPIOperationDuration metric.Float64Histogram

	// Google Drive API metrics
	driveOperationsTotal   metric.Int64Counter
	driveOperationDuration metric.Float64Histogram

	// Transfer metrics
	transfersTotal     metric.Int64Counter
	transferBytesTotal metric.Int64Counter
	transferDuration   metric.Float64Histogram

	// Pipeline metrics
	recordingsSyncedTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	// Zoom API Metrics
	m.zoomAPIOperationsTotal, err = meter.Int64Counter(
		"zoom_api_operations_total",
		metric.WithDescription("Total number of Zoom API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zoom_api_operations_total counter: %w", err)
	}

	m.zoomAPIOperationDuration, err = meter.Float64Histogram(
		"zoom_api_operation_duration_seconds",
		metric.WithDescription("Zoom API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zoom_api_operation_duration_seconds histogram: %w", err)
	}

	// Google Drive Metrics
	m.driveOperationsTotal, err = meter.Int64Counter(
		"drive_operations_total",
		metric.WithDescription("Total number of Google Drive API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_operations_total counter: %w", err)
	}

	m.driveOperationDuration, err = meter.Float64Histogram(
		"drive_operation_duration_seconds",
		metric.WithDescription("Google Drive API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_operation_duration_seconds histogram: %w", err)
	}

	// Transfer Metrics
	m.transfersTotal, err = meter.Int64Counter(
		"transfers_total",
		metric.WithDescription("Total number of recording transfers"),
		metric.WithUnit("{transfer}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfers_total counter: %w", err)
	}

	m.transferBytesTotal, err = meter.Int64Counter(
		"transfer_bytes_total",
		metric.WithDescription("Total number of bytes transferred"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer_bytes_total counter: %w", err)
	}

	m.transferDuration, err = meter.Float64Histogram(
		"transfer_duration_seconds",
		metric.WithDescription("Recording transfer duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0, 120.0, 300.0, 600.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer_duration_seconds histogram: %w", err)
	}

	// Pipeline Metrics
	m.recordingsSyncedTotal, err = meter.Int64Counter(
		"recordings_synced_total",
		metric.WithDescription("Total number of recordings fully synced to Drive"),
		metric.WithUnit("{recording}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recordings_synced_total counter: %w", err)
	}

	return m, nil
}

// RecordZoomAPIOperation records a Zoom API operation with operation type,
// status, and duration.
//
// Parameters:
//   - operation: Operation type (listMeetings, listRecordings, getMeeting, token)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordZoomAPIOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.zoomAPIOperationsTotal == nil || m.zoomAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, ServiceZoom),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.zoomAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.zoomAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDriveOperation records a Google Drive API operation with operation
// type, status, and duration.
//
// Parameters:
//   - operation: Operation type (ensureFolder, upload, verifyFolder, delete)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordDriveOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.driveOperationsTotal == nil || m.driveOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, ServiceDrive),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.driveOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.driveOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTransfer records a completed recording transfer.
//
// Parameters:
//   - direction: "download" or "upload"
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the transfer
func (m *Metrics) RecordTransfer(ctx context.Context, direction, status string, duration time.Duration) {
	if m == nil || m.transfersTotal == nil || m.transferDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrDirection, direction),
		attribute.String(attrStatus, status),
	}

	m.transfersTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.transferDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// AddTransferBytes accumulates bytes moved in the given direction. Called from
// progress callbacks with chunk-sized increments.
func (m *Metrics) AddTransferBytes(ctx context.Context, direction string, n int64) {
	if m == nil || m.transferBytesTotal == nil {
		return // Instrumentation not initialized
	}

	m.transferBytesTotal.Add(ctx, n, metric.WithAttributes(
		attribute.String(attrDirection, direction),
	))
}

// RecordRecordingSynced counts a recording that completed the full
// download-upload-cleanup cycle.
func (m *Metrics) RecordRecordingSynced(ctx context.Context) {
	if m == nil || m.recordingsSyncedTotal == nil {
		return // Instrumentation not initialized
	}

	m.recordingsSyncedTotal.Add(ctx, 1)
}
