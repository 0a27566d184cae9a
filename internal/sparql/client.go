// Package sparql implements the HTTP protocol for talking to the SPARQL
// endpoint: POSTing SELECT/UPDATE bodies and decoding either the generic
// W3C result JSON or QLever's own result JSON, chosen by a small interface
// rather than inheritance per the polymorphism design note.
package sparql

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/httpclient"
	"github.com/ad-freiburg/olu/internal/logging"
)

// ResultDecoder abstracts over the two JSON result shapes this system reads:
// the generic "application/sparql-results+json" format and QLever's own
// "application/qlever-results+json" format. Implementations translate
// either one into the row-oriented Bindings this package's callers consume.
//
// Grounded on the design note in spec.md §9: "Re-architect as a small trait/
// interface with the exact operations in the C5 table ... do not reach for
// inheritance."
type ResultDecoder interface {
	// Accept is the value sent as the Accept header for SELECT requests.
	Accept() string
	// Decode parses a SELECT response body into rows of variable bindings.
	Decode(body []byte) ([]Binding, error)
}

// Binding is one result row: variable name -> term value (already stripped
// of its IRI angle brackets or literal quoting by the decoder).
type Binding map[string]string

// Client talks to one SPARQL endpoint over HTTP, for both query (SELECT)
// and update (INSERT/DELETE) operations.
type Client struct {
	QueryURL   *url.URL
	UpdateURL  *url.URL
	AccessToken string
	HTTP       *retryablehttp.Client
	Decoder    ResultDecoder
}

// NewClient builds a Client using the teacher's own retryablehttp +
// cleanhttp pairing (internal/backend/remote-state/http/client.go), so HTTP
// failures retry with backoff at the transport layer rather than this
// package hand-rolling retry logic. The underlying client is
// httpclient.New(), tagging every request with this program's User-Agent
// and recording response attributes on the request's trace span.
func NewClient(queryURL, updateURL *url.URL, accessToken string, decoder ResultDecoder) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpclient.New()
	rc.Logger = nil
	return &Client{
		QueryURL:    queryURL,
		UpdateURL:   updateURL,
		AccessToken: accessToken,
		HTTP:        rc,
		Decoder:     decoder,
	}
}

func (c *Client) authorize(req *retryablehttp.Request) {
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
}

// Select runs a SPARQL SELECT query and returns its decoded bindings.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, *diags.Diagnostic) {
	body := url.Values{"query": {query}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.QueryURL.String(), []byte(body.Encode()))
	if err != nil {
		return nil, diags.New(diags.KindTransport, "failed to build SPARQL query request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", c.Decoder.Accept())
	c.authorize(req)

	logging.Debug("POST %s query=%.80q...", c.QueryURL, query)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, diags.New(diags.KindTransport, "SPARQL query request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, diags.New(diags.KindTransport, "failed to read SPARQL query response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, diags.New(diags.KindTransport,
			"SPARQL endpoint returned unexpected status",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 500)))
	}

	bindings, err := c.Decoder.Decode(respBody)
	if err != nil {
		return nil, diags.New(diags.KindParse, "failed to parse SPARQL result JSON", err)
	}
	return bindings, nil
}

// Update POSTs a SPARQL Update (INSERT DATA / DELETE ... WHERE ...) body.
func (c *Client) Update(ctx context.Context, update string) *diags.Diagnostic {
	_, dx := c.UpdateWithResponse(ctx, update)
	return dx
}

// UpdateWithResponse behaves like Update but also returns the endpoint's
// response body on success, for the DEBUG_FILE output mode (spec.md §4.8)
// which records each update's "would-be response" alongside the query.
func (c *Client) UpdateWithResponse(ctx context.Context, update string) (string, *diags.Diagnostic) {
	body := url.Values{"update": {update}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.UpdateURL.String(), []byte(body.Encode()))
	if err != nil {
		return "", diags.New(diags.KindTransport, "failed to build SPARQL update request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)

	logging.Debug("POST %s update=%.80q...", c.UpdateURL, update)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", diags.New(diags.KindTransport, "SPARQL update request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", diags.New(diags.KindTransport,
			"SPARQL endpoint rejected update",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 500)))
	}
	return string(respBody), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
