package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/netprobe"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/tools"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, "listen_port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, "127.0.0.1", cfg.ListenHost)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "noop", cfg.Tracing.Exporter)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)
	assert.Empty(t, cfg.Probe.DNSServers)
	assert.Equal(t, netprobe.DefaultPingTimeout, cfg.Probe.PingTimeout)
	assert.Equal(t, tools.DefaultMaxFileSize, cfg.Tools.MaxFileSize)
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
listen_port: 9000
listen_host: 0.0.0.0
shutdown_timeout: 3s
log:
  level: debug
  format: json
metrics:
  enabled: false
tracing:
  exporter: otlp-http
  endpoint: collector:4318
  insecure: true
  sample_rate: 0.25
probe:
  dns_servers: ["9.9.9.9", "1.0.0.1:5353"]
  public_ip_services: ["https://example.test/ip"]
  ping_timeout: 2s
  probe_timeout: 500ms
tools:
  max_file_size: 4096
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, TracingConfig{Exporter: "otlp-http", Endpoint: "collector:4318", Insecure: true, SampleRate: 0.25}, cfg.Tracing)
	assert.Equal(t, []string{"9.9.9.9", "1.0.0.1:5353"}, cfg.Probe.DNSServers)
	assert.Equal(t, []string{"https://example.test/ip"}, cfg.Probe.PublicIPServices)
	assert.Equal(t, 2*time.Second, cfg.Probe.PingTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Probe.ProbeTimeout)
	assert.Equal(t, int64(4096), cfg.Tools.MaxFileSize)

	tc := cfg.TracingProviderConfig("svc", "1.0.0")
	assert.Equal(t, "svc", tc.ServiceName)
	assert.Equal(t, observability.ExporterTypeOTLPHTTP, tc.ExporterType)
	assert.Equal(t, "collector:4318", tc.Endpoint)
	assert.True(t, tc.Insecure)
	assert.Equal(t, 0.25, tc.SampleRate)

	assert.Len(t, cfg.ProbeOptions(), 4)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "listen_port: 8080\nlog:\n  level: warn\n")
	t.Setenv("LOCAL_MCP_LISTEN_PORT", "9191")
	t.Setenv("LOCAL_MCP_LOG_FORMAT", "json")
	t.Setenv("LOCAL_MCP_METRICS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.ListenPort)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	// the package directory has no config.yaml
	t.Setenv("LOCAL_MCP_LISTEN_PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.ListenPort)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "listen_port: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadRequiresPort(t *testing.T) {
	_, err := Load(writeConfig(t, "listen_host: localhost\n"))
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.CodeMissingParameter))
	assert.Contains(t, err.Error(), "listen_port")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		ListenPort:      70000,
		ListenHost:      "",
		ShutdownTimeout: 0,
		Log:             LogConfig{Level: "loud", Format: "xml"},
		Tracing:         TracingConfig{Exporter: "zipkin", SampleRate: 2},
		Probe: ProbeConfig{
			DNSServers:   []string{"dns.example"},
			PingTimeout:  time.Second,
			ProbeTimeout: time.Second,
		},
		Tools: ToolsConfig{MaxFileSize: 0},
	}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 9)

	for _, key := range []string{
		"listen_port", "listen_host", "shutdown_timeout", "log.level", "log.format",
		"tracing.exporter", "tracing.sample_rate", "probe.dns_servers", "tools.max_file_size",
	} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidatePortRange(t *testing.T) {
	tests := []struct {
		port  int
		valid bool
	}{
		{1, true},
		{65535, true},
		{0, false},
		{-1, false},
		{65536, false},
	}

	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, "listen_port: 8080\n"))
		require.NoError(t, err)
		cfg.ListenPort = tt.port
		if tt.valid {
			assert.NoError(t, cfg.Validate(), "port %d", tt.port)
		} else {
			assert.Error(t, cfg.Validate(), "port %d", tt.port)
		}
	}
}
