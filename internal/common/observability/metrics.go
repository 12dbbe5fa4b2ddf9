package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"jobvault/internal/common/logger"
)

// Instrument names use underscores so the prometheus exporter exposes them
// unchanged, plus its unit and _total suffixes.
const (
	SectionWrites         = "profile_section_writes"
	DocumentWriteDuration = "profile_document_write_duration"
	DocumentLoads         = "profile_document_loads"
)

// Observability records profile document activity through an OpenTelemetry
// meter. A zero value is usable and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	writeCounter  otelmetric.Int64Counter
	writeDuration otelmetric.Float64Histogram
	loadCounter   otelmetric.Int64Counter
}

// New exports through prometheus into reg (the default registerer when nil).
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}
	return NewWithReader(serviceName, exporter)
}

// NewWithReader wires the meter to an arbitrary reader.
func NewWithReader(serviceName string, reader metric.Reader) *Observability {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	writeCounter, _ := meter.Int64Counter(
		SectionWrites,
		otelmetric.WithDescription("Number of profile section saves"),
	)

	writeDuration, _ := meter.Float64Histogram(
		DocumentWriteDuration,
		otelmetric.WithDescription("Profile document read-modify-write duration"),
		otelmetric.WithUnit("ms"),
	)

	loadCounter, _ := meter.Int64Counter(
		DocumentLoads,
		otelmetric.WithDescription("Number of profile document loads"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		writeCounter:  writeCounter,
		writeDuration: writeDuration,
		loadCounter:   loadCounter,
	}
}

// RecordSectionWrite counts one section save with its outcome.
func (o *Observability) RecordSectionWrite(ctx context.Context, section, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("section", section),
		attribute.String("outcome", outcome),
	)
	if o.writeCounter != nil {
		o.writeCounter.Add(ctx, 1, attrs)
	}
	if o.writeDuration != nil {
		o.writeDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

// RecordDocumentLoad counts one document load; created is true when the
// document was synthesized on first run.
func (o *Observability) RecordDocumentLoad(ctx context.Context, outcome string, created bool) {
	if o == nil || o.loadCounter == nil {
		return
	}
	o.loadCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("created", created),
	))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
