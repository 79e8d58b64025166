package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the metrics provider
type MetricsConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string

	// Metric options
	Namespace        string    // Prometheus namespace (default: mcp)
	Subsystem        string    // Prometheus subsystem
	HistogramBuckets []float64 // Custom histogram buckets for latency

	// Registry receives every collector. A fresh registry is created when nil.
	Registry *prometheus.Registry

	// IncludeRuntime adds the Go runtime and process collectors
	IncludeRuntime bool

	// Labels to add to all metrics
	ConstLabels prometheus.Labels
}

// MetricsProvider records server, tool and probe metrics
type MetricsProvider interface {
	// RecordRequest records one dispatched JSON-RPC request
	RecordRequest(ctx context.Context, method, status string, duration time.Duration)
	// RecordToolCall records one supervised tool invocation
	RecordToolCall(ctx context.Context, tool, status string, duration time.Duration)
	// RecordProbe records one TCP latency probe
	RecordProbe(ctx context.Context, family string, reachable bool, duration time.Duration)
	// RecordPublicIPLookup records one attempt against an address-echo service
	RecordPublicIPLookup(ctx context.Context, endpoint, status string, duration time.Duration)
	// RecordActiveStreams adjusts the number of open event streams
	RecordActiveStreams(ctx context.Context, delta int)
	// RecordError counts a protocol error by type
	RecordError(ctx context.Context, errType, method string)

	// Handler serves the metrics in Prometheus exposition format
	Handler() http.Handler
}

// PrometheusMetricsProvider implements MetricsProvider using Prometheus
type PrometheusMetricsProvider struct {
	config   MetricsConfig
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	toolCallDuration *prometheus.HistogramVec
	toolCallTotal    *prometheus.CounterVec

	probeDuration *prometheus.HistogramVec
	probeTotal    *prometheus.CounterVec

	publicIPLookupTotal *prometheus.CounterVec
	publicIPDuration    *prometheus.HistogramVec

	activeStreams prometheus.Gauge

	errorTotal *prometheus.CounterVec
}

// NewMetricsProvider creates a new Prometheus metrics provider
func NewMetricsProvider(config MetricsConfig) (*PrometheusMetricsProvider, error) {
	if config.Namespace == "" {
		config.Namespace = "mcp"
	}
	if config.HistogramBuckets == nil {
		// Default buckets for milliseconds
		config.HistogramBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000, 5000, 10000}
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	constLabels := prometheus.Labels{}
	for k, v := range config.ConstLabels {
		constLabels[k] = v
	}
	if config.ServiceName != "" {
		constLabels["service"] = config.ServiceName
	}
	if config.ServiceVersion != "" {
		constLabels["version"] = config.ServiceVersion
	}
	config.ConstLabels = constLabels

	provider := &PrometheusMetricsProvider{
		config:   config,
		registry: config.Registry,
	}

	provider.initializeMetrics()

	if err := provider.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return provider, nil
}

func (p *PrometheusMetricsProvider) histogram(name, help string, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        name,
			Help:        help,
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		labels,
	)
}

func (p *PrometheusMetricsProvider) counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: p.config.ConstLabels,
		},
		labels,
	)
}

func (p *PrometheusMetricsProvider) initializeMetrics() {
	p.requestDuration = p.histogram("request_duration_milliseconds",
		"Duration of MCP requests in milliseconds", "method", "status")
	p.requestTotal = p.counter("request_total",
		"Total number of MCP requests", "method", "status")

	p.toolCallDuration = p.histogram("tool_call_duration_milliseconds",
		"Duration of tool calls in milliseconds", "tool", "status")
	p.toolCallTotal = p.counter("tool_call_total",
		"Total number of tool calls", "tool", "status")

	p.probeDuration = p.histogram("probe_duration_milliseconds",
		"Duration of TCP latency probes in milliseconds", "family", "reachable")
	p.probeTotal = p.counter("probe_total",
		"Total number of TCP latency probes", "family", "reachable")

	p.publicIPDuration = p.histogram("public_ip_lookup_duration_milliseconds",
		"Duration of public address lookups in milliseconds", "endpoint", "status")
	p.publicIPLookupTotal = p.counter("public_ip_lookup_total",
		"Total number of public address lookups", "endpoint", "status")

	p.activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "active_streams",
			Help:        "Number of open event streams",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.errorTotal = p.counter("error_total",
		"Total number of protocol errors", "type", "method")
}

func (p *PrometheusMetricsProvider) registerMetrics() error {
	cs := []prometheus.Collector{
		p.requestDuration,
		p.requestTotal,
		p.toolCallDuration,
		p.toolCallTotal,
		p.probeDuration,
		p.probeTotal,
		p.publicIPDuration,
		p.publicIPLookupTotal,
		p.activeStreams,
		p.errorTotal,
	}

	if p.config.IncludeRuntime {
		cs = append(cs, runtimeCollectors()...)
	}

	for _, collector := range cs {
		if err := p.registry.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	return nil
}

func runtimeCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// RecordRequest records one dispatched request
func (p *PrometheusMetricsProvider) RecordRequest(ctx context.Context, method, status string, duration time.Duration) {
	p.requestDuration.WithLabelValues(method, status).Observe(milliseconds(duration))
	p.requestTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records a tool call
func (p *PrometheusMetricsProvider) RecordToolCall(ctx context.Context, tool, status string, duration time.Duration) {
	p.toolCallDuration.WithLabelValues(tool, status).Observe(milliseconds(duration))
	p.toolCallTotal.WithLabelValues(tool, status).Inc()
}

// RecordProbe records a TCP latency probe
func (p *PrometheusMetricsProvider) RecordProbe(ctx context.Context, family string, reachable bool, duration time.Duration) {
	r := strconv.FormatBool(reachable)
	p.probeDuration.WithLabelValues(family, r).Observe(milliseconds(duration))
	p.probeTotal.WithLabelValues(family, r).Inc()
}

// RecordPublicIPLookup records one address-echo service attempt
func (p *PrometheusMetricsProvider) RecordPublicIPLookup(ctx context.Context, endpoint, status string, duration time.Duration) {
	p.publicIPDuration.WithLabelValues(endpoint, status).Observe(milliseconds(duration))
	p.publicIPLookupTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordActiveStreams records the change in open event streams
func (p *PrometheusMetricsProvider) RecordActiveStreams(ctx context.Context, delta int) {
	p.activeStreams.Add(float64(delta))
}

// RecordError counts a protocol error
func (p *PrometheusMetricsProvider) RecordError(ctx context.Context, errType, method string) {
	p.errorTotal.WithLabelValues(errType, method).Inc()
}

// Handler returns the /metrics handler for this provider's registry
func (p *PrometheusMetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the provider's collectors live in
func (p *PrometheusMetricsProvider) Registry() *prometheus.Registry {
	return p.registry
}

// NoopMetricsProvider discards every measurement
type NoopMetricsProvider struct{}

func (NoopMetricsProvider) RecordRequest(context.Context, string, string, time.Duration)        {}
func (NoopMetricsProvider) RecordToolCall(context.Context, string, string, time.Duration)       {}
func (NoopMetricsProvider) RecordProbe(context.Context, string, bool, time.Duration)            {}
func (NoopMetricsProvider) RecordPublicIPLookup(context.Context, string, string, time.Duration) {}
func (NoopMetricsProvider) RecordActiveStreams(context.Context, int)                            {}
func (NoopMetricsProvider) RecordError(context.Context, string, string)                         {}

// Handler reports that metrics are disabled
func (NoopMetricsProvider) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "metrics disabled", http.StatusNotFound)
	})
}
