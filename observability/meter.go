package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/speakerlab/logger"
)

// InitMeter initializes the OpenTelemetry meter provider. The returned
// provider must be shut down on application exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	cfg.ApplyDefaults()

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
	))
	return mp, nil
}

// PipelineMetrics records analysis pipeline measurements.
type PipelineMetrics struct {
	runs       metric.Int64Counter
	duration   metric.Float64Histogram
	speakers   metric.Int64Histogram
	totalWords metric.Int64Histogram
}

// NewPipelineMetrics creates instruments on the global meter provider.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter(tracerName)

	runs, err := meter.Int64Counter("speakerlab.analysis.runs",
		metric.WithDescription("Completed analysis runs by status"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("speakerlab.analysis.duration_seconds",
		metric.WithDescription("End-to-end analysis duration"))
	if err != nil {
		return nil, err
	}
	speakers, err := meter.Int64Histogram("speakerlab.analysis.speakers",
		metric.WithDescription("Speakers detected per run"))
	if err != nil {
		return nil, err
	}
	totalWords, err := meter.Int64Histogram("speakerlab.analysis.words",
		metric.WithDescription("Words transcribed per run"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		runs:       runs,
		duration:   duration,
		speakers:   speakers,
		totalWords: totalWords,
	}, nil
}

// RecordRun records the outcome of one analysis run. A nil receiver is a
// no-op so metrics stay optional.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string, d time.Duration, speakers, words int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
	if speakers >= 0 {
		m.speakers.Record(ctx, int64(speakers), attrs)
	}
	if words >= 0 {
		m.totalWords.Record(ctx, int64(words), attrs)
	}
}
