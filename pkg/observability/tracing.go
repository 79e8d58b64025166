// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the server, its tools and its network probes.
package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/liunian321/local-mcp-servers"

// TracingConfig configures OpenTelemetry tracing
type TracingConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter configuration
	ExporterType ExporterType
	Endpoint     string // OTLP endpoint
	Headers      map[string]string
	Insecure     bool // Use insecure connection (for development)

	// Sampling configuration
	SampleRate   float64  // 0.0 to 1.0
	AlwaysSample []string // Method names to always sample
	NeverSample  []string // Method names to never sample

	// Additional attributes
	ResourceAttributes map[string]string

	// SpanExporter overrides ExporterType when set; used by tests
	SpanExporter sdktrace.SpanExporter
}

// ExporterType defines the type of trace exporter
type ExporterType string

const (
	// ExporterTypeOTLPGRPC exports traces via OTLP over gRPC
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"

	// ExporterTypeOTLPHTTP exports traces via OTLP over HTTP
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"

	// ExporterTypeNoop records spans locally and exports nothing
	ExporterTypeNoop ExporterType = "noop"
)

// TracingProvider manages OpenTelemetry tracing
type TracingProvider struct {
	config     TracingConfig
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	mu         sync.Mutex
	shutdown   func(context.Context) error
}

// NewTracingProvider creates a new tracing provider and installs it as the
// global otel tracer provider.
func NewTracingProvider(config TracingConfig) (*TracingProvider, error) {
	if config.ServiceName == "" {
		config.ServiceName = "local_mcp_servers"
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = "unknown"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 1.0
	}
	if config.ExporterType == "" {
		config.ExporterType = ExporterTypeNoop
	}

	res := createResource(config)

	exporter := config.SpanExporter
	if exporter == nil {
		var err error
		exporter, err = createExporter(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(config)),
	}
	if config.ExporterType == ExporterTypeNoop || config.SpanExporter != nil {
		// Synchronous export keeps local and test setups free of a batch goroutine
		opts = append(opts, sdktrace.WithSyncer(exporter))
	} else {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	return &TracingProvider{
		config:     config,
		tracer:     tp.Tracer(instrumentationName),
		propagator: propagator,
		shutdown:   tp.Shutdown,
	}, nil
}

// DisabledTracing returns a provider whose spans are never recorded
func DisabledTracing() *TracingProvider {
	return &TracingProvider{
		tracer:     trace.NewNoopTracerProvider().Tracer(instrumentationName),
		propagator: propagation.TraceContext{},
	}
}

func createResource(config TracingConfig) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(config.Environment),
	}

	for k, v := range config.ResourceAttributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createExporter(config TracingConfig) (sdktrace.SpanExporter, error) {
	switch config.ExporterType {
	case ExporterTypeOTLPGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(config.Headers)}
		if config.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(config.Endpoint))
		}
		if config.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	case ExporterTypeOTLPHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithHeaders(config.Headers)}
		if config.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(config.Endpoint))
		}
		if config.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptrace.New(context.Background(), otlptracehttp.NewClient(opts...))
	case ExporterTypeNoop:
		return &noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", config.ExporterType)
	}
}

func createSampler(config TracingConfig) sdktrace.Sampler {
	if len(config.AlwaysSample) > 0 || len(config.NeverSample) > 0 {
		return &methodSampler{
			defaultRate:  config.SampleRate,
			alwaysSample: makeStringSet(config.AlwaysSample),
			neverSample:  makeStringSet(config.NeverSample),
		}
	}

	if config.SampleRate >= 1.0 {
		return sdktrace.AlwaysSample()
	} else if config.SampleRate <= 0.0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(config.SampleRate)
}

// StartSpan starts a new span with the given name and options
func (tp *TracingProvider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, name, opts...)
}

// StartMethodSpan starts a span for a JSON-RPC method
func (tp *TracingProvider) StartMethodSpan(ctx context.Context, method string) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, "mcp."+method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("mcp.method", method),
			attribute.String("mcp.service", tp.config.ServiceName),
		),
	)
}

// StartToolSpan starts a span around one tool invocation
func (tp *TracingProvider) StartToolSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, "mcp.tool",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("mcp.tool", tool)),
	)
}

// StartProbeSpan starts a client span for one network probe
func (tp *TracingProvider) StartProbeSpan(ctx context.Context, operation, address string) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, "netprobe."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("net.peer.address", address)),
	)
}

// RecordError records an error on the span in ctx
func (tp *TracingProvider) RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err, opts...)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetAttributes sets attributes on the span in ctx
func (tp *TracingProvider) SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// Extract extracts trace context from a carrier
func (tp *TracingProvider) Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return tp.propagator.Extract(ctx, carrier)
}

// Inject injects trace context into a carrier
func (tp *TracingProvider) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	tp.propagator.Inject(ctx, carrier)
}

// Shutdown flushes and stops the tracer provider
func (tp *TracingProvider) Shutdown(ctx context.Context) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.shutdown != nil {
		err := tp.shutdown(ctx)
		tp.shutdown = nil
		return err
	}
	return nil
}

// methodSampler samples based on method name
type methodSampler struct {
	defaultRate  float64
	alwaysSample map[string]struct{}
	neverSample  map[string]struct{}
}

func (ms *methodSampler) ShouldSample(params sdktrace.SamplingParameters) sdktrace.SamplingResult {
	method := params.Name
	for _, attr := range params.Attributes {
		if attr.Key == "mcp.method" {
			method = attr.Value.AsString()
			break
		}
	}

	if _, ok := ms.alwaysSample[method]; ok {
		return sdktrace.SamplingResult{Decision: sdktrace.RecordAndSample}
	}
	if _, ok := ms.neverSample[method]; ok {
		return sdktrace.SamplingResult{Decision: sdktrace.Drop}
	}

	if ms.defaultRate >= 1.0 {
		return sdktrace.SamplingResult{Decision: sdktrace.RecordAndSample}
	} else if ms.defaultRate <= 0.0 {
		return sdktrace.SamplingResult{Decision: sdktrace.Drop}
	}

	return sdktrace.TraceIDRatioBased(ms.defaultRate).ShouldSample(params)
}

func (ms *methodSampler) Description() string {
	return fmt.Sprintf("MethodSampler{defaultRate=%.2f}", ms.defaultRate)
}

type noopExporter struct{}

func (n *noopExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (n *noopExporter) Shutdown(ctx context.Context) error {
	return nil
}

func makeStringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
