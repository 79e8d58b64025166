package netprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
)

// DefaultDNSServers are queried together when the caller names no server
var DefaultDNSServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// ErrInvalidDNSServer is returned for a server that is neither ip nor ip:port
var ErrInvalidDNSServer = errors.New("invalid DNS server address")

var errNoRecords = errors.New("no address records")

var errEmptyDomain = errors.New("empty domain")

var queryTypes = []uint16{dns.TypeA, dns.TypeAAAA}

// ParseDNSServer accepts a bare IP (port 53) or ip:port and returns the
// server as ip:port.
func ParseDNSServer(s string) (string, error) {
	s = strings.TrimSpace(s)
	if ip := net.ParseIP(s); ip != nil {
		return net.JoinHostPort(ip.String(), "53"), nil
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDNSServer, s)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("%w: %q is not an IP address", ErrInvalidDNSServer, host)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("%w: invalid port %q", ErrInvalidDNSServer, port)
	}
	return net.JoinHostPort(ip.String(), port), nil
}

type dnsAnswer struct {
	ips []net.IP
	err error
}

// Resolve queries every server for A and AAAA records concurrently and
// merges the answers into distinct addresses, in server order. It fails only
// when no server yields an address.
func (p *Prober) Resolve(ctx context.Context, domain string, servers []string) ([]net.IP, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, mcperrors.ResolveFailed(domain, errEmptyDomain).WithDetail(errEmptyDomain.Error())
	}
	if ip := net.ParseIP(domain); ip != nil {
		return []net.IP{ip}, nil
	}
	if len(servers) == 0 {
		servers = p.dnsServers
	}

	ctx, span := p.tracing.StartProbeSpan(ctx, "resolve", strings.Join(servers, ","))
	defer span.End()

	answers := make([]dnsAnswer, len(servers)*len(queryTypes))
	var g errgroup.Group
	for i, server := range servers {
		for j, qtype := range queryTypes {
			slot := &answers[i*len(queryTypes)+j]
			g.Go(func() error {
				slot.ips, slot.err = p.query(ctx, domain, server, qtype)
				return nil
			})
		}
	}
	_ = g.Wait()

	var result *multierror.Error
	seen := make(map[string]struct{})
	var ips []net.IP
	for _, answer := range answers {
		if answer.err != nil {
			result = multierror.Append(result, answer.err)
			continue
		}
		for _, ip := range answer.ips {
			key := ip.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ips = append(ips, ip)
		}
	}

	if len(ips) == 0 {
		cause := result.ErrorOrNil()
		if cause == nil {
			cause = errNoRecords
		}
		err := mcperrors.ResolveFailed(domain, cause).WithDetail(cause.Error())
		p.tracing.RecordError(ctx, err)
		return nil, err
	}

	if result != nil {
		p.logger.WithContext(ctx).Debug("Some DNS queries failed",
			logging.String("domain", domain),
			logging.ErrorField(result),
		)
	}
	return ips, nil
}

func (p *Prober) query(ctx context.Context, domain, server string, qtype uint16) ([]net.IP, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	in, _, err := p.dnsClient.ExchangeContext(ctx, msg, server)
	if err == nil && in.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: p.dnsClient.Timeout}
		in, _, err = tcp.ExchangeContext(ctx, msg, server)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", server, dns.TypeToString[qtype], err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s %s: %s", server, dns.TypeToString[qtype], dns.RcodeToString[in.Rcode])
	}

	var ips []net.IP
	for _, rr := range in.Answer {
		switch rec := rr.(type) {
		case *dns.A:
			ips = append(ips, rec.A)
		case *dns.AAAA:
			ips = append(ips, rec.AAAA)
		}
	}
	return ips, nil
}
