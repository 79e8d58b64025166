// Package config loads server settings from a YAML file and LOCAL_MCP_
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/netprobe"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/tools"
)

const (
	// DefaultConfigName is looked up in the working directory when no
	// explicit path is given
	DefaultConfigName = "config"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "LOCAL_MCP"
)

type Config struct {
	ListenPort      int           `mapstructure:"listen_port"`
	ListenHost      string        `mapstructure:"listen_host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Tools   ToolsConfig   `mapstructure:"tools"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TracingConfig struct {
	Exporter   string  `mapstructure:"exporter"`
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ProbeConfig tunes the network tools. Empty lists keep the built-in servers.
type ProbeConfig struct {
	DNSServers       []string      `mapstructure:"dns_servers"`
	PublicIPServices []string      `mapstructure:"public_ip_services"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
}

type ToolsConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_host", "127.0.0.1")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("tracing.exporter", string(observability.ExporterTypeNoop))
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("probe.dns_servers", []string{})
	v.SetDefault("probe.public_ip_services", []string{})
	v.SetDefault("probe.ping_timeout", netprobe.DefaultPingTimeout)
	v.SetDefault("probe.probe_timeout", netprobe.DefaultProbeTimeout)
	v.SetDefault("tools.max_file_size", tools.DefaultMaxFileSize)
}

// New returns a viper instance with defaults and environment overrides
// registered. A non-empty path names the config file; otherwise config.yaml
// is searched for in the working directory.
func New(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// listen_port has no default, so Unmarshal only sees the env value once bound
	_ = v.BindEnv("listen_port")
	return v
}

// Load reads the config file at path, applies environment overrides and
// validates the result. A missing default config.yaml is tolerated so the
// server can be configured from the environment alone; a missing explicit
// path is not.
func Load(path string) (*Config, error) {
	return LoadFrom(New(path))
}

// LoadFrom reads and validates config from a prepared viper instance.
// Callers bind command-line flags onto v before calling it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ListenPort == 0 {
		result = multierror.Append(result, mcperrors.MissingParameter("listen_port"))
	} else if c.ListenPort < 1 || c.ListenPort > 65535 {
		result = multierror.Append(result, mcperrors.InvalidParameter("listen_port", c.ListenPort, "a port between 1 and 65535"))
	}

	if c.ListenHost == "" {
		result = multierror.Append(result, mcperrors.MissingParameter("listen_host"))
	}

	if c.ShutdownTimeout <= 0 {
		result = multierror.Append(result, mcperrors.InvalidParameter("shutdown_timeout", c.ShutdownTimeout.String(), "a positive duration"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, mcperrors.InvalidParameter("log.level", c.Log.Level, "one of debug, info, warn, error"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		result = multierror.Append(result, mcperrors.InvalidParameter("log.format", c.Log.Format, "text or json"))
	}

	switch observability.ExporterType(c.Tracing.Exporter) {
	case observability.ExporterTypeNoop, observability.ExporterTypeOTLPGRPC, observability.ExporterTypeOTLPHTTP:
	default:
		result = multierror.Append(result, mcperrors.InvalidParameter("tracing.exporter", c.Tracing.Exporter, "noop, otlp-grpc or otlp-http"))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		result = multierror.Append(result, mcperrors.InvalidParameter("tracing.sample_rate", c.Tracing.SampleRate, "a rate between 0 and 1"))
	}

	for _, server := range c.Probe.DNSServers {
		if _, err := netprobe.ParseDNSServer(server); err != nil {
			result = multierror.Append(result, mcperrors.InvalidFormat("probe.dns_servers", server, "an IP or IP:port"))
		}
	}

	if c.Probe.PingTimeout <= 0 {
		result = multierror.Append(result, mcperrors.InvalidParameter("probe.ping_timeout", c.Probe.PingTimeout.String(), "a positive duration"))
	}
	if c.Probe.ProbeTimeout <= 0 {
		result = multierror.Append(result, mcperrors.InvalidParameter("probe.probe_timeout", c.Probe.ProbeTimeout.String(), "a positive duration"))
	}

	if c.Tools.MaxFileSize <= 0 {
		result = multierror.Append(result, mcperrors.InvalidParameter("tools.max_file_size", c.Tools.MaxFileSize, "a positive byte count"))
	}

	return result.ErrorOrNil()
}

// Addr is the host:port the server binds
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// TracingProviderConfig maps the tracing section onto the provider's config
func (c *Config) TracingProviderConfig(serviceName, serviceVersion string) observability.TracingConfig {
	return observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		ExporterType:   observability.ExporterType(c.Tracing.Exporter),
		Endpoint:       c.Tracing.Endpoint,
		Insecure:       c.Tracing.Insecure,
		SampleRate:     c.Tracing.SampleRate,
	}
}

// ProbeOptions maps the probe section onto prober options
func (c *Config) ProbeOptions() []netprobe.Option {
	opts := []netprobe.Option{
		netprobe.WithPingTimeout(c.Probe.PingTimeout),
		netprobe.WithProbeTimeout(c.Probe.ProbeTimeout),
	}
	if len(c.Probe.DNSServers) > 0 {
		servers := make([]string, 0, len(c.Probe.DNSServers))
		for _, s := range c.Probe.DNSServers {
			// Validate already rejected anything unparseable
			server, _ := netprobe.ParseDNSServer(s)
			servers = append(servers, server)
		}
		opts = append(opts, netprobe.WithDNSServers(servers...))
	}
	if len(c.Probe.PublicIPServices) > 0 {
		opts = append(opts, netprobe.WithPublicIPServices(c.Probe.PublicIPServices...))
	}
	return opts
}
