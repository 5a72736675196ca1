package xts

import (
	"net/http"
	"strings"
)

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// NormalizeBaseURL rewrites an operator-supplied base URL into the
// marketdata endpoint root. Terminal configs carry URLs in several
// historical forms; a trailing /apimarketdata is dropped and the
// /marketdata path is appended when absent.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSuffix(raw, "/apimarketdata")
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/marketdata") {
		base += "/marketdata"
	}
	return base
}
