// Package netprobe measures TCP reachability and latency of network targets,
// resolves names against explicit DNS servers and discovers the public
// address of the host.
//
// A Prober is safe for concurrent use. It holds no per-request state, every
// probe owns its own timeout and the results are returned by value.
package netprobe

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/miekg/dns"

	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
)

const (
	// DefaultPingTimeout bounds the connect of a single ping
	DefaultPingTimeout = 5 * time.Second

	// DefaultProbeTimeout bounds each per-address latency probe
	DefaultProbeTimeout = 2 * time.Second

	// DefaultLookupTimeout bounds each public address service attempt
	DefaultLookupTimeout = 5 * time.Second

	// DefaultDNSTimeout bounds each DNS exchange
	DefaultDNSTimeout = 5 * time.Second

	// DefaultProbePort is probed when the caller names no port
	DefaultProbePort uint16 = 80

	// MaxRanked is the size of the ranked address set
	MaxRanked = 3
)

// Dialer opens TCP connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// HostResolver resolves host names through the system resolver.
// *net.Resolver satisfies it.
type HostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Prober runs pings, latency probes, DNS resolution and public address lookups
type Prober struct {
	dialer           Dialer
	hosts            HostResolver
	httpClient       *http.Client
	dnsClient        *dns.Client
	dnsServers       []string
	publicIPServices []string

	pingTimeout   time.Duration
	probeTimeout  time.Duration
	lookupTimeout time.Duration

	metrics observability.MetricsProvider
	tracing *observability.TracingProvider
	logger  logging.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithDialer replaces the dialer used for every TCP connect
func WithDialer(d Dialer) Option {
	return func(p *Prober) {
		p.dialer = d
	}
}

// WithHostResolver replaces the system resolver used by Ping
func WithHostResolver(r HostResolver) Option {
	return func(p *Prober) {
		p.hosts = r
	}
}

// WithHTTPClient sets the client used for public address lookups
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		p.httpClient = c
	}
}

// WithDNSServers sets the default resolver set, each entry as ip:port
func WithDNSServers(servers ...string) Option {
	return func(p *Prober) {
		p.dnsServers = servers
	}
}

// WithDNSTimeout bounds each DNS exchange
func WithDNSTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.dnsClient.Timeout = timeout
	}
}

// WithPublicIPServices sets the ordered list of address-echo services
func WithPublicIPServices(urls ...string) Option {
	return func(p *Prober) {
		p.publicIPServices = urls
	}
}

// WithPingTimeout sets the default connect budget of Ping
func WithPingTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.pingTimeout = timeout
	}
}

// WithProbeTimeout sets the budget of each latency probe
func WithProbeTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.probeTimeout = timeout
	}
}

// WithLookupTimeout sets the budget of each public address service attempt
func WithLookupTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.lookupTimeout = timeout
	}
}

// WithMetrics records probe and lookup outcomes
func WithMetrics(metrics observability.MetricsProvider) Option {
	return func(p *Prober) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithTracing emits a client span per probe
func WithTracing(tracing *observability.TracingProvider) Option {
	return func(p *Prober) {
		if tracing != nil {
			p.tracing = tracing
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Prober with the default budgets, resolvers and services
func New(opts ...Option) *Prober {
	p := &Prober{
		dialer:           &net.Dialer{},
		hosts:            net.DefaultResolver,
		httpClient:       &http.Client{},
		dnsClient:        &dns.Client{Net: "udp", Timeout: DefaultDNSTimeout},
		dnsServers:       DefaultDNSServers,
		publicIPServices: DefaultPublicIPServices,
		pingTimeout:      DefaultPingTimeout,
		probeTimeout:     DefaultProbeTimeout,
		lookupTimeout:    DefaultLookupTimeout,
		metrics:          observability.NoopMetricsProvider{},
		tracing:          observability.DisabledTracing(),
		logger:           logging.Nop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.WithFields(logging.Component("netprobe"))
	return p
}

// Family returns the address family tag of ip, "v4" or "v6"
func Family(ip net.IP) string {
	if ip.To4() != nil {
		return "v4"
	}
	return "v6"
}
