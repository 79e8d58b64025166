package tools

import (
	"time"

	"github.com/liunian321/local-mcp-servers/pkg/netprobe"
)

// Options configures the built-in tool set
type Options struct {
	// Prober backs ping and read ip. A nil Prober uses netprobe.New().
	Prober *netprobe.Prober

	// Now is the clock of get_current_time
	Now func() time.Time

	// MaxFileSize caps cat file output; zero means DefaultMaxFileSize
	MaxFileSize int64
}

// Default returns a registry holding every built-in tool
func Default(opts Options, registryOpts ...RegistryOption) *Registry {
	prober := opts.Prober
	if prober == nil {
		prober = netprobe.New()
	}

	return NewRegistry([]Entry{
		SystemTypeTool(),
		CurrentTimeTool(opts.Now),
		PingTool(prober),
		ReadIPTool(prober),
		CatFileTool(opts.MaxFileSize),
		ListFilesTool(),
		RandomStringTool(),
	}, registryOpts...)
}
