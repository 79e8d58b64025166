package netprobe

import (
	"context"
	"net"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
)

// IPLatency is the probe outcome of one resolved address. LatencyMs is nil
// exactly when the address was unreachable.
type IPLatency struct {
	IP        string `json:"ip"`
	Family    string `json:"family"`
	LatencyMs *int64 `json:"latency_ms"`
	Reachable bool   `json:"reachable"`
}

// ResolveOutcome holds every resolved address with its probe outcome, the
// DNS servers used and the fastest reachable addresses.
type ResolveOutcome struct {
	Domain    string      `json:"domain"`
	DNSServer string      `json:"dns_server"`
	Records   []IPLatency `json:"records"`
	TopIPs    []IPLatency `json:"top_ips"`
}

// ResolveAndRank resolves domain, probes every address on port concurrently
// and ranks the reachable ones by latency. dnsServer may be empty to use the
// default server set; port 0 means DefaultProbePort.
func (p *Prober) ResolveAndRank(ctx context.Context, domain, dnsServer string, port uint16) (*ResolveOutcome, error) {
	servers := p.dnsServers
	if dnsServer != "" {
		server, err := ParseDNSServer(dnsServer)
		if err != nil {
			return nil, mcperrors.InvalidParameter("dns", dnsServer, "ip or ip:port").WithDetail(err.Error())
		}
		servers = []string{server}
	}
	if port == 0 {
		port = DefaultProbePort
	}

	ips, err := p.Resolve(ctx, domain, servers)
	if err != nil {
		return nil, err
	}

	records := p.ProbeAll(ctx, ips, port)
	outcome := &ResolveOutcome{
		Domain:    domain,
		DNSServer: strings.Join(servers, ","),
		Records:   records,
		TopIPs:    Rank(records, MaxRanked),
	}

	p.logger.WithContext(ctx).Debug("Resolved and ranked",
		logging.String("domain", domain),
		logging.Int("records", len(records)),
		logging.Int("reachable", len(outcome.TopIPs)),
	)
	return outcome, nil
}

// ProbeAll probes every address concurrently and waits for all of them.
// Records keep the order of ips; one probe failing never cancels another.
func (p *Prober) ProbeAll(ctx context.Context, ips []net.IP, port uint16) []IPLatency {
	records := make([]IPLatency, len(ips))

	var g errgroup.Group
	for i, ip := range ips {
		g.Go(func() error {
			records[i] = p.probeLatency(ctx, ip, port)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

// Rank returns at most n reachable records ordered by ascending latency.
// Records with equal latency keep their relative order.
func Rank(records []IPLatency, n int) []IPLatency {
	ranked := make([]IPLatency, 0, len(records))
	for _, r := range records {
		if r.Reachable && r.LatencyMs != nil {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].LatencyMs < *ranked[j].LatencyMs
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
