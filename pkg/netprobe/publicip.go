package netprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
)

// DefaultPublicIPServices are tried in order until one answers
var DefaultPublicIPServices = []string{
	"https://api.ipify.org?format=json",
	"https://ipinfo.io/json",
	"https://ifconfig.me/ip",
}

// Fields an address-echo service may report the caller's address in
var publicIPFields = []string{"ip", "origin", "query"}

const maxLookupBody = 64 << 10

var errNoAddressInBody = errors.New("response carries no usable address")

// PublicIPOutcome is the caller's public address and the service that reported it
type PublicIPOutcome struct {
	PublicIP string `json:"public_ip"`
	Service  string `json:"service"`
}

// PublicIP asks each configured address-echo service in turn, each bounded
// by the lookup timeout, and returns the first usable answer. When every
// service fails the error is a NetworkError carrying all failure reasons.
func (p *Prober) PublicIP(ctx context.Context) (*PublicIPOutcome, error) {
	var result *multierror.Error

	for _, service := range p.publicIPServices {
		start := time.Now()
		ip, err := p.lookupPublicIP(ctx, service)
		label := serviceLabel(service)

		if err != nil {
			p.metrics.RecordPublicIPLookup(ctx, label, mcperrors.StatusNetworkError, time.Since(start))
			p.logger.WithContext(ctx).Debug("Public address service failed",
				logging.String("service", label),
				logging.ErrorField(err),
			)
			result = multierror.Append(result, fmt.Errorf("%s: %w", label, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		p.metrics.RecordPublicIPLookup(ctx, label, mcperrors.StatusSuccess, time.Since(start))
		return &PublicIPOutcome{PublicIP: ip, Service: label}, nil
	}

	cause := result.ErrorOrNil()
	if cause == nil {
		cause = errors.New("no public address services configured")
	}
	return nil, mcperrors.NetworkError("public address lookup", cause).WithDetail(cause.Error())
}

func (p *Prober) lookupPublicIP(ctx context.Context, service string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.lookupTimeout)
	defer cancel()

	ctx, span := p.tracing.StartProbeSpan(ctx, "public_ip", serviceLabel(service))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.tracing.RecordError(ctx, err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		return "", err
	}

	return extractPublicIP(body)
}

// extractPublicIP reads the address from a JSON field, falling back to a
// plaintext body that is itself an IP literal.
func extractPublicIP(body []byte) (string, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range publicIPFields {
			s, ok := fields[key].(string)
			if !ok {
				continue
			}
			// origin may list a proxy chain: "client, proxy"
			first := strings.TrimSpace(strings.Split(s, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip.String(), nil
			}
		}
		return "", errNoAddressInBody
	}

	if ip := net.ParseIP(strings.TrimSpace(string(body))); ip != nil {
		return ip.String(), nil
	}
	return "", errNoAddressInBody
}

func serviceLabel(service string) string {
	if u, err := url.Parse(service); err == nil && u.Host != "" {
		return u.Host
	}
	return service
}
