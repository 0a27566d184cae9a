package httpclient

import (
	"net/http"
	"os"
	"strings"

	"github.com/ad-freiburg/olu/internal/logging"
)

const (
	appendUAEnvVar  = "OLU_APPEND_USER_AGENT"
	defaultUserAgent = "olu"
)

type userAgentRoundTripper struct {
	inner     http.RoundTripper
	userAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header.Set("User-Agent", rt.userAgent)
	}
	logging.Trace("HTTP client %s request to %s", req.Method, req.URL.String())
	return rt.inner.RoundTrip(req)
}

// UserAgent builds the User-Agent string sent on every SPARQL and
// replication request, optionally extended by OLU_APPEND_USER_AGENT so
// operators running several instances against one endpoint can tell them
// apart in server access logs.
func UserAgent() string {
	ua := defaultUserAgent
	if add := strings.TrimSpace(os.Getenv(appendUAEnvVar)); add != "" {
		ua += " " + add
	}
	return ua
}
