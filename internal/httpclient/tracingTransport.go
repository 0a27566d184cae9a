package httpclient

import (
	"io"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ad-freiburg/olu/internal/tracing"
)

// tracingTransport augments the active trace span with response metadata
// for every SPARQL and replication-server request, the same way otelhttp
// would but without requiring every call site to thread a span through.
type tracingTransport struct {
	inner http.RoundTripper
}

var _ http.RoundTripper = (*tracingTransport)(nil)

func (t *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp.Request != nil {
		span := tracing.SpanFromContext(resp.Request.Context())
		if span != nil && span.IsRecording() {
			addResponseAttributes(span, resp)
			if resp.Body != nil {
				resp.Body = &trackingReadCloser{inner: resp.Body, span: span}
			}
		}
	}

	return resp, nil
}

// capturedHeaders are the response headers worth recording as span
// attributes for debugging a slow or failing SPARQL/replication request:
// content shape and caching/CDN metadata, nothing that could carry
// credentials or personal data.
var capturedHeaders = map[string]string{
	"Content-Type":     "http.response.header.content-type",
	"Content-Length":   "http.response.header.content-length",
	"Content-Encoding": "http.response.header.content-encoding",
	"ETag":             "http.response.header.etag",
	"Last-Modified":    "http.response.header.last-modified",
}

func addResponseAttributes(span tracing.Span, resp *http.Response) {
	for header, attr := range capturedHeaders {
		if value := resp.Header.Get(header); value != "" {
			span.SetAttributes(attribute.String(attr, value))
		}
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
}

// trackingReadCloser records the response body's byte count on Close, so a
// span can report how much a SPARQL query or change-file download actually
// transferred.
type trackingReadCloser struct {
	inner     io.ReadCloser
	span      tracing.Span
	bytesRead int64
	closeOnce sync.Once
	closeErr  error
}

func (r *trackingReadCloser) Read(p []byte) (n int, err error) {
	n, err = r.inner.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

func (r *trackingReadCloser) Close() error {
	r.closeOnce.Do(func() {
		r.span.SetAttributes(attribute.Int64("http.response.body.size", r.bytesRead))
		r.closeErr = r.inner.Close()
	})
	return r.closeErr
}
