// Package httpclient builds the outbound HTTP clients of every integration,
// routed through the configured proxy.
package httpclient

import (
	"net/http"
	"net/url"
	"time"
)

// New returns a client with the given timeout. An empty or unparsable
// proxyURL leaves the transport without a proxy.
func New(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
