package netprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
)

var errNoAddresses = errors.New("no addresses found")

// PingResult is the outcome of one TCP connect probe. On timeout LatencyMs
// is the budget rather than the elapsed time.
type PingResult struct {
	Target    string `json:"target"`
	LatencyMs int64  `json:"latency_ms"`
	Connected bool   `json:"connected"`
	Timeout   bool   `json:"timeout"`
	Status    string `json:"status"`
}

// Ping resolves target (first address wins) and opens a TCP connection to
// it within timeout. A non-positive timeout uses the prober default.
//
// The result is always populated. The returned error is an MCPError whose
// code identifies the failure: ConnectionFailed (including a host that does
// not resolve) or ConnectionTimeout.
func (p *Prober) Ping(ctx context.Context, target Target, timeout time.Duration) (*PingResult, error) {
	if timeout <= 0 {
		timeout = p.pingTimeout
	}

	addr := target.String()
	ctx, span := p.tracing.StartProbeSpan(ctx, "ping", addr)
	defer span.End()

	result := &PingResult{Target: addr}
	start := time.Now()

	ip, err := p.resolveFirst(ctx, target.Host, timeout)
	if err != nil {
		result.LatencyMs = time.Since(start).Milliseconds()
		err = fmt.Errorf("resolve %s: %w", target.Host, err)
		return p.finishPing(ctx, result, mcperrors.ConnectionFailed(addr, err).WithDetail(err.Error()))
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(int(target.Port))))
	elapsed := time.Since(start)
	p.metrics.RecordProbe(ctx, Family(ip), err == nil, elapsed)

	if err != nil {
		if isTimeout(dialCtx, err) {
			result.LatencyMs = timeout.Milliseconds()
			result.Timeout = true
			return p.finishPing(ctx, result, mcperrors.ConnectionTimeout(addr, timeout))
		}
		result.LatencyMs = elapsed.Milliseconds()
		return p.finishPing(ctx, result, mcperrors.ConnectionFailed(addr, err).WithDetail(err.Error()))
	}
	_ = conn.Close()

	result.LatencyMs = elapsed.Milliseconds()
	result.Connected = true
	return p.finishPing(ctx, result, nil)
}

func (p *Prober) finishPing(ctx context.Context, result *PingResult, err error) (*PingResult, error) {
	result.Status = mcperrors.StatusTag(err)
	if err != nil {
		p.tracing.RecordError(ctx, err)
		p.logger.WithContext(ctx).Debug("Ping failed",
			logging.String("target", result.Target),
			logging.String("status", result.Status),
			logging.ErrorField(err),
		)
		return result, err
	}

	p.logger.WithContext(ctx).Debug("Ping succeeded",
		logging.String("target", result.Target),
		logging.Int64("latency_ms", result.LatencyMs),
	)
	return result, nil
}

func (p *Prober) resolveFirst(ctx context.Context, host string, timeout time.Duration) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := p.hosts.LookupIPAddr(lookupCtx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, errNoAddresses
	}
	return addrs[0].IP, nil
}

// probeLatency connects to ip:port within the probe budget. Failures only
// mark the record unreachable.
func (p *Prober) probeLatency(ctx context.Context, ip net.IP, port uint16) IPLatency {
	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
	ctx, span := p.tracing.StartProbeSpan(ctx, "latency", addr)
	defer span.End()

	record := IPLatency{IP: ip.String(), Family: Family(ip)}

	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(probeCtx, "tcp", addr)
	elapsed := time.Since(start)
	p.metrics.RecordProbe(ctx, record.Family, err == nil, elapsed)

	if err != nil {
		p.tracing.RecordError(ctx, err)
		return record
	}
	_ = conn.Close()

	ms := elapsed.Milliseconds()
	record.LatencyMs = &ms
	record.Reachable = true
	return record
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
