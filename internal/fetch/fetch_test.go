package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ad-freiburg/olu/internal/osm"
	"github.com/ad-freiburg/olu/internal/sparql"
)

// newFakeEndpoint starts an httptest.Server that always answers with an
// empty result set; individual tests override server.Config.Handler with a
// canned response body before exercising the Fetcher under test.
func newFakeEndpoint() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(`{"head":{"vars":[]},"results":{"bindings":[]}}`))
	}))
}

func resultJSON(t *testing.T, vars []string, rows []map[string]string) string {
	t.Helper()
	type term struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	bindings := make([]map[string]term, 0, len(rows))
	for _, row := range rows {
		b := make(map[string]term, len(row))
		for k, v := range row {
			typ := "literal"
			if strings.HasPrefix(v, "http") {
				typ = "uri"
			}
			b[k] = term{Type: typ, Value: v}
		}
		bindings = append(bindings, b)
	}
	doc := map[string]any{
		"head":    map[string]any{"vars": vars},
		"results": map[string]any{"bindings": bindings},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return string(data)
}

func newTestFetcher(t *testing.T, server *httptest.Server) *Fetcher {
	t.Helper()
	queryURL, err := url.Parse(server.URL + "/sparql")
	if err != nil {
		t.Fatalf("parse query url: %v", err)
	}
	client := sparql.NewClient(queryURL, queryURL, "", sparql.GenericDecoder{})
	return &Fetcher{Client: client, Writer: sparql.QueryWriter{}}
}

func TestFetcherNodeLocations(t *testing.T) {
	server := newFakeEndpoint()
	defer server.Close()

	body := resultJSON(t, []string{"s", "wkt"}, []map[string]string{
		{"s": osm.IRI(osm.KindNode, 42), "wkt": `"POINT(2.0 1.0)"`},
	})
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(body))
	})

	f := newTestFetcher(t, server)
	locs, dx := f.NodeLocations(context.Background(), []osm.ID{42})
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}
	loc, ok := locs[42]
	if !ok {
		t.Fatalf("expected location for node 42, got %+v", locs)
	}
	if loc.LonText != "2.0" || loc.LatText != "1.0" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestFetcherWayMembersOrdersByPosition(t *testing.T) {
	server := newFakeEndpoint()
	defer server.Close()

	body := resultJSON(t, []string{"s", "memberId", "pos"}, []map[string]string{
		{"s": osm.IRI(osm.KindWay, 100), "memberId": osm.IRI(osm.KindNode, 3), "pos": "1"},
		{"s": osm.IRI(osm.KindWay, 100), "memberId": osm.IRI(osm.KindNode, 1), "pos": "0"},
		{"s": osm.IRI(osm.KindWay, 100), "memberId": osm.IRI(osm.KindNode, 2), "pos": "2"},
	})
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(body))
	})

	f := newTestFetcher(t, server)
	members, dx := f.WayMembers(context.Background(), []osm.ID{100})
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}
	got := members[100]
	want := osm.WayMembers{1, 3, 2}
	if !got.Equal(want) {
		t.Fatalf("expected members ordered by position %v, got %v", want, got)
	}
}

func TestFetcherCardinalityOverflowIsIntegrityError(t *testing.T) {
	server := newFakeEndpoint()
	defer server.Close()

	body := resultJSON(t, []string{"s", "wkt"}, []map[string]string{
		{"s": osm.IRI(osm.KindNode, 1), "wkt": `"POINT(1 1)"`},
		{"s": osm.IRI(osm.KindNode, 1), "wkt": `"POINT(2 2)"`},
	})
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(body))
	})

	f := newTestFetcher(t, server)
	_, dx := f.NodeLocations(context.Background(), []osm.ID{1})
	if !dx.HasErrors() {
		t.Fatalf("expected a cardinality integrity error, got none")
	}
	if kind, ok := dx.WorstKind(); !ok || kind.String() != "integrity" {
		t.Fatalf("expected KindIntegrity, got %v (ok=%v)", kind, ok)
	}
}

func TestFetcherLatestTimestampNoData(t *testing.T) {
	server := newFakeEndpoint()
	defer server.Close()
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(`{"head":{"vars":["t"]},"results":{"bindings":[]}}`))
	})

	f := newTestFetcher(t, server)
	_, dx := f.LatestTimestamp(context.Background())
	if dx == nil {
		t.Fatalf("expected a no-data diagnostic")
	}
	if dx.Kind.String() != "data" {
		t.Fatalf("expected KindData, got %v", dx.Kind)
	}
}

func TestFetcherUpdatesCompleteUntilSentinelWhenAbsent(t *testing.T) {
	server := newFakeEndpoint()
	defer server.Close()
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(`{"head":{"vars":["seq"]},"results":{"bindings":[]}}`))
	})

	f := newTestFetcher(t, server)
	_, ok, dx := f.UpdatesCompleteUntil(context.Background())
	if dx != nil {
		t.Fatalf("unexpected error: %v", dx)
	}
	if ok {
		t.Fatalf("expected ok=false when no watermark triple is present")
	}
}
