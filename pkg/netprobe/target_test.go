package netprobe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https url", "https://example.com", "example.com:443"},
		{"http url", "http://example.com/path?q=1", "example.com:80"},
		{"wss url", "wss://example.com/socket", "example.com:443"},
		{"other scheme", "ftp://example.com", "example.com:80"},
		{"url with port", "https://example.com:8443", "example.com:8443"},
		{"url with ipv6 host", "http://[::1]:9000", "[::1]:9000"},
		{"bare domain", "example.com", "example.com:80"},
		{"bare ipv4", "1.2.3.4", "1.2.3.4:80"},
		{"bare ipv6", "::1", "[::1]:80"},
		{"host port", "example.com:8080", "example.com:8080"},
		{"ip port", "10.0.0.1:22", "10.0.0.1:22"},
		{"bracketed ipv6 port", "[2001:db8::1]:443", "[2001:db8::1]:443"},
		{"surrounding space", "  example.com  ", "example.com:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseTargetInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"localhost",
		"example.com:http",
		"example.com:70000",
		"https://",
		"http://example.com:99999",
		"not a host",
	} {
		_, err := ParseTarget(in)
		if assert.Error(t, err, "%q", in) {
			assert.True(t, errors.Is(err, ErrInvalidFormat), "%q: %v", in, err)
		}
	}
}

func TestParseDNSServer(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"8.8.8.8", "8.8.8.8:53", false},
		{"1.1.1.1:5353", "1.1.1.1:5353", false},
		{"2001:4860:4860::8888", "[2001:4860:4860::8888]:53", false},
		{"[2001:4860:4860::8888]:53", "[2001:4860:4860::8888]:53", false},
		{"dns.google", "", true},
		{"dns.google:53", "", true},
		{"8.8.8.8:dns", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDNSServer(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDNSServer, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
