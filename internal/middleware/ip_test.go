package middleware

import (
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestForwardedClientAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
		wantOK  bool
	}{
		{"no headers", nil, "192.168.0.1:999", "192.168.0.1", true},
		{"spaces around remote", nil, "  192.168.0.1 : 999 ", "192.168.0.1", true},
		{"cloudflare header", map[string]string{"CF-Connecting-IP": "20.55.20.55"}, "10.0.0.2:999", "20.55.20.55", true},
		{
			"cloudflare wins over forwarded-for",
			map[string]string{"CF-Connecting-IP": " 20.55.20.55 ", "X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			"10.0.0.2:999", "20.55.20.55", true,
		},
		{
			"malformed header falls through",
			map[string]string{"CF-Connecting-IP": "mistake", "X-Forwarded-For": "1.2.3.4 ,  5.6.7.8"},
			"10.0.0.2:999", "1.2.3.4", true,
		},
		{"private header ignored", map[string]string{"X-Forwarded-For": "10.1.1.1"}, "203.0.113.7:1", "203.0.113.7", true},
		{"loopback header ignored", map[string]string{"X-Real-IP": "127.0.0.1"}, "203.0.113.7:1", "203.0.113.7", true},
		{"link local header ignored", map[string]string{"X-Real-IP": "fe80::1"}, "203.0.113.7:1", "203.0.113.7", true},
		{"ipv6 header", map[string]string{"X-Real-IP": "2001:db8::5"}, "10.0.0.2:999", "2001:db8::5", true},
		{"mapped ipv4 header", map[string]string{"X-Real-IP": "::ffff:20.55.20.55"}, "10.0.0.2:999", "20.55.20.55", true},
		{"bracketed ipv6 remote", nil, "[2001:db8::9]:443", "2001:db8::9", true},
		{"garbage everywhere", map[string]string{"X-Forwarded-For": "nope"}, "nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			got, ok := forwardedClientAddr(req)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != netip.MustParseAddr(tt.want) {
				t.Errorf("addr = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDirectClientAddrIgnoresHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.4:5000"
	req.Header.Set("X-Forwarded-For", "20.55.20.55")

	got, ok := clientAddrFunc(false)(req)
	if !ok || got != netip.MustParseAddr("198.51.100.4") {
		t.Errorf("addr = %s (%v), want the socket address", got, ok)
	}
}
