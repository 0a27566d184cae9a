package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ad-freiburg/olu/internal/changefile"
	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/dummy"
	"github.com/ad-freiburg/olu/internal/fetch"
	"github.com/ad-freiburg/olu/internal/osm"
	"github.com/ad-freiburg/olu/internal/sparql"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *fetch.Fetcher {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	client := sparql.NewClient(u, u, "", sparql.GenericDecoder{})
	return &fetch.Fetcher{Client: client, Writer: sparql.QueryWriter{}}
}

func TestDetermineStartPrefersSequenceNumberOverride(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("fetcher should not be queried when --sequence-number is set")
	})
	d := &Driver{Config: Config{SequenceNumber: 42}, Fetcher: f}

	got, dx := d.determineStart(context.Background())
	if dx != nil {
		t.Fatalf("unexpected diagnostic: %v", dx)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestDetermineStartFallsBackToWatermarkPlusOne(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head":{"vars":["seq"]},"results":{"bindings":[{"seq":{"type":"literal","value":"99"}}]}}`))
	})
	d := &Driver{Config: Config{}, Fetcher: f}

	got, dx := d.determineStart(context.Background())
	if dx != nil {
		t.Fatalf("unexpected diagnostic: %v", dx)
	}
	if got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}

func TestDetermineStartRequiresFileServerForTimestampWithNoWatermark(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head":{"vars":["seq"]},"results":{"bindings":[]}}`))
	})
	d := &Driver{Config: Config{}, Fetcher: f, Replication: nil}

	_, dx := d.determineStart(context.Background())
	if dx == nil || dx.Kind != diags.KindConfig {
		t.Fatalf("expected config diagnostic when no replication server is available, got: %v", dx)
	}
}

func TestGatherLocalSourcesListsAndOrdersChangeFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000000002.osc", "000000001.osc", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<osmChange version=\"0.6\"></osmChange>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	d := &Driver{Config: Config{InputDir: dir}}

	sources, latest, dx := d.gatherSources(context.Background(), t.TempDir(), 5)
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources (ignoring ignore.txt), got %d: %v", len(sources), sources)
	}
	if sources[0].Name != "000000001.osc" || sources[1].Name != "000000002.osc" {
		t.Fatalf("expected lexicographic order, got %v", sources)
	}
	if latest != 6 {
		t.Fatalf("expected latest = start + len(sources) - 1 = 6, got %d", latest)
	}
}

func TestGatherLocalSourcesEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	d := &Driver{Config: Config{InputDir: dir}}

	sources, latest, dx := d.gatherSources(context.Background(), t.TempDir(), 5)
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}
	if len(sources) != 0 {
		t.Fatalf("expected no sources, got %v", sources)
	}
	if latest != 4 {
		t.Fatalf("expected latest = start - 1 = 4 when no files, got %d", latest)
	}
}

func TestWriteCombinedInputConcatenatesMergedAndSyntheticIntoOneDocument(t *testing.T) {
	// The merged change set carries node 7's new location; the synthetic
	// stream carries way 99's member list (99 isn't itself modified, so it
	// only appears via ReferencedWays). Both must land inside the same
	// <osmChange> root so a single osm2rdf pass can resolve way 99's
	// geometry against node 7's new location.
	merged := &changefile.Merged{Records: []changefile.Record{
		{Kind: osm.KindNode, ID: 7, Version: 2, Loc: osm.Location{LonText: "2.0", LatText: "2.0"}},
	}}

	ws := classify.NewWorkSets()
	ws.ReferencedWays.Add(99)

	data := dummy.Data{
		WayMembers: map[osm.ID]osm.WayMembers{
			99: {7, 8},
		},
	}

	d := &Driver{}
	runDir := t.TempDir()

	path, err := d.writeCombinedInput(runDir, merged, ws, data)
	if err != nil {
		t.Fatalf("writeCombinedInput: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading combined file: %v", err)
	}
	doc := string(contents)

	if strings.Count(doc, "<osmChange") != 1 {
		t.Fatalf("expected exactly one <osmChange> root, got document: %s", doc)
	}
	if !strings.Contains(doc, `id="7"`) {
		t.Fatalf("expected node 7 (from the merged change set) in combined document: %s", doc)
	}
	if !strings.Contains(doc, `<way id="99">`) {
		t.Fatalf("expected way 99 (from the synthetic stream) in combined document: %s", doc)
	}
	if strings.Index(doc, `id="7"`) > strings.Index(doc, `<way id="99">`) {
		t.Fatalf("expected merged records before synthetic records in combined document: %s", doc)
	}
}

func TestAlreadyUpToDateSentinelDetection(t *testing.T) {
	dx := diags.Diagnostics{diags.New(diags.KindAlreadyUpToDate, "nothing to do", nil)}
	if !alreadyUpToDate(dx) {
		t.Fatal("expected sentinel to be detected")
	}
	if len(realErrors(dx)) != 0 {
		t.Fatalf("expected the sentinel to be filtered out of realErrors, got %v", realErrors(dx))
	}
}

func TestRealErrorsKeepsGenuineFailures(t *testing.T) {
	dx := diags.Diagnostics{diags.New(diags.KindTransport, "boom", nil)}
	if alreadyUpToDate(dx) {
		t.Fatal("a transport failure is not the already-up-to-date sentinel")
	}
	if len(realErrors(dx)) != 1 {
		t.Fatalf("expected the failure to survive filtering, got %v", realErrors(dx))
	}
}
