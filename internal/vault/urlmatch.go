package vault

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SameSite reports whether two URLs (or bare hosts) belong to the same
// registrable domain. "https://login.example.co.uk/a" matches
// "example.co.uk" but not "notexample.co.uk". IP addresses and hosts
// without a public suffix compare by exact host.
func SameSite(a, b string) bool {
	ha := hostOf(a)
	hb := hostOf(b)
	if ha == "" || hb == "" {
		return false
	}
	return registrableDomain(ha) == registrableDomain(hb)
}

// hostOf extracts a lowercase hostname (no port) from a URL or bare host.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Bare hosts like "example.com/login" parse with an empty Host.
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return ""
		}
	}

	host := u.Hostname()
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// registrableDomain returns the eTLD+1 for the host, or the host itself when
// no public suffix applies (IPs, localhost, intranet names).
func registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
