package main

import (
	"net"
	"net/url"
	"strings"
)

const googleCallbackPath = "/api/v1/auth/google/callback"

// httpURLFromAddr turns a listen address into the URL a browser on the same
// machine would use. Wildcard hosts become localhost.
func httpURLFromAddr(addr string) string {
	a := strings.TrimSpace(addr)
	if strings.Contains(a, "://") {
		return strings.TrimRight(a, "/")
	}

	u := url.URL{Scheme: "http", Host: "localhost"}
	host, port, err := net.SplitHostPort(a)
	switch {
	case a == "":
	case err != nil:
		u.Host = a
	case host == "" || host == "0.0.0.0" || host == "::":
		u.Host = net.JoinHostPort("localhost", port)
	default:
		u.Host = net.JoinHostPort(host, port)
	}
	return u.String()
}

// googleRedirectURL picks the OAuth redirect: the configured one, else the
// external URL, else the listen address.
func googleRedirectURL(configured, externalURL, addr string) string {
	if configured != "" {
		return configured
	}
	base := strings.TrimRight(externalURL, "/")
	if base == "" {
		base = httpURLFromAddr(addr)
	}
	return base + googleCallbackPath
}
