// Package httpclient builds the shared *http.Client the SPARQL client and
// the replication server wrap in retryablehttp: a cleanhttp-pooled
// transport tagged with this program's own User-Agent and decorated with
// OpenTelemetry span attributes for every response, so every outbound HTTP
// call in the pipeline gets the same observability for free instead of each
// package rolling its own transport.
package httpclient

import (
	"net/http"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

// New returns a pooled HTTP client that tags requests with this program's
// User-Agent and records response attributes on the active trace span.
func New() *http.Client {
	cli := cleanhttp.DefaultPooledClient()
	cli.Transport = &tracingTransport{inner: &userAgentRoundTripper{
		userAgent: UserAgent(),
		inner:     cli.Transport,
	}}
	return cli
}
