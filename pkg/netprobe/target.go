package netprobe

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned for targets that match none of the accepted shapes
var ErrInvalidFormat = errors.New("invalid target format")

// Target is a host plus the TCP port to connect to
type Target struct {
	Host string
	Port uint16
}

// String returns the target as host:port, bracketing IPv6 literals
func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

var securePorts = map[string]uint16{
	"https": 443,
	"wss":   443,
}

// ParseTarget parses a URL, a host:port pair, a bare IP literal or a bare
// domain. URLs default to 443 for secure schemes and 80 otherwise; bare IPs
// and domains default to 80.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("%w: empty target", ErrInvalidFormat)
	}

	if strings.Contains(s, "://") {
		return parseURLTarget(s)
	}

	if ip := net.ParseIP(s); ip != nil {
		return Target{Host: ip.String(), Port: 80}, nil
	}

	if host, port, err := net.SplitHostPort(s); err == nil {
		if host == "" || strings.ContainsAny(host, " \t") {
			return Target{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		p, err := parsePort(port)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
		}
		return Target{Host: host, Port: p}, nil
	}

	if !strings.Contains(s, ":") && strings.Contains(s, ".") && !strings.ContainsAny(s, " \t/") {
		return Target{Host: s, Port: 80}, nil
	}

	return Target{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

func parseURLTarget(s string) (Target, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("%w: %q has no host", ErrInvalidFormat, s)
	}

	if port := u.Port(); port != "" {
		p, err := parsePort(port)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
		}
		return Target{Host: host, Port: p}, nil
	}

	if p, ok := securePorts[strings.ToLower(u.Scheme)]; ok {
		return Target{Host: host, Port: p}, nil
	}
	return Target{Host: host, Port: 80}, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(n), nil
}
