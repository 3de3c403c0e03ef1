package middleware

import (
	"net/http"
	"net/netip"
	"strings"
)

// checked in order; the first public address wins
var forwardingHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

type addrResolver func(r *http.Request) (netip.Addr, bool)

func clientAddrFunc(trustedProxy bool) addrResolver {
	if trustedProxy {
		return forwardedClientAddr
	}
	return directClientAddr
}

// forwardedClientAddr reads the client from proxy headers. Private and
// loopback values are ignored since anyone can send those.
func forwardedClientAddr(r *http.Request) (netip.Addr, bool) {
	for _, name := range forwardingHeaders {
		value := strings.TrimSpace(r.Header.Get(name))
		if value == "" {
			continue
		}

		// X-Forwarded-For: client, proxy1, proxy2
		first, _, _ := strings.Cut(value, ",")
		addr, err := netip.ParseAddr(strings.TrimSpace(first))
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		if !isPublic(addr) {
			continue
		}
		return addr, true
	}

	return directClientAddr(r)
}

func directClientAddr(r *http.Request) (netip.Addr, bool) {
	remote := strings.ReplaceAll(r.RemoteAddr, " ", "")

	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), true
	}
	// no port
	if addr, err := netip.ParseAddr(remote); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

func isPublic(addr netip.Addr) bool {
	return addr.IsValid() &&
		!addr.IsPrivate() &&
		!addr.IsLoopback() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsUnspecified()
}
