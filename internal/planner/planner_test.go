package planner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/filter"
	"github.com/ad-freiburg/olu/internal/osm"
	"github.com/ad-freiburg/olu/internal/sparql"
)

func wsWithNodes(created, unchanged, changed, deleted []osm.ID) *classify.WorkSets {
	ws := classify.NewWorkSets()
	for _, id := range created {
		ws.Nodes.Created.Add(id)
	}
	for _, id := range unchanged {
		ws.Nodes.ModifiedStructureUnchanged.Add(id)
	}
	for _, id := range changed {
		ws.Nodes.ModifiedStructureChanged.Add(id)
	}
	for _, id := range deleted {
		ws.Nodes.Deleted.Add(id)
	}
	return ws
}

func TestDeletePhaseFileModeEmitsAllFourFamilies(t *testing.T) {
	ws := classify.NewWorkSets()
	ws.Nodes.Deleted.Add(1)
	ws.Nodes.ModifiedStructureChanged.Add(2)
	ws.Nodes.Created.Add(3)
	ws.Ways.ModifiedStructureChanged.Add(10)
	ws.Ways.ModifiedStructureUnchanged.Add(11)
	ws.GeometryDependentWays.Add(12)
	ws.Relations.ModifiedStructureChanged.Add(20)
	ws.Relations.ModifiedStructureUnchanged.Add(21)
	ws.GeometryDependentRelations.Add(22)

	var buf bytes.Buffer
	p := &Planner{Writer: sparql.QueryWriter{}, BatchSize: 1000, Mode: OutputFile, Out: &buf}

	dx := p.DeletePhase(context.Background(), ws)
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}

	out := buf.String()
	if !strings.Contains(out, osm.WrappedIRI(osm.KindNode, 1)) || !strings.Contains(out, osm.WrappedIRI(osm.KindNode, 2)) || !strings.Contains(out, osm.WrappedIRI(osm.KindNode, 3)) {
		t.Fatalf("expected full delete to cover deleted/changed/created node ids, got:\n%s", out)
	}
	if strings.Count(out, "DELETE { ?s ?p1 ?o1 . ?o1 ?p2 ?o2 }") < 3 {
		t.Fatalf("expected one full-delete query per kind, got:\n%s", out)
	}
	if !strings.Contains(out, osm.WrappedIRI(osm.KindWay, 11)) {
		t.Fatalf("expected tags+meta delete for way 11, got:\n%s", out)
	}
	if !strings.Contains(out, osm.WrappedIRI(osm.KindWay, 12)) {
		t.Fatalf("expected geometry-only delete for geometry-dependent way 12, got:\n%s", out)
	}
	if !strings.Contains(out, osm.WrappedIRI(osm.KindWay, 10)) || !strings.Contains(out, osm.PrefixedWayMember) {
		t.Fatalf("expected member-triple delete for structure-changed way 10, got:\n%s", out)
	}
}

func TestDeletePhaseBatchesByBatchSize(t *testing.T) {
	ws := wsWithNodes([]osm.ID{1, 2, 3}, nil, nil, nil)

	var buf bytes.Buffer
	p := &Planner{Writer: sparql.QueryWriter{}, BatchSize: 1, Mode: OutputFile, Out: &buf}
	dx := p.DeletePhase(context.Background(), ws)
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}

	// Three node ids with a batch size of 1 must produce three separate
	// full-delete queries for the node kind alone.
	count := strings.Count(buf.String(), "VALUES ?s { <https://www.openstreetmap.org/node/")
	if count != 3 {
		t.Fatalf("expected 3 batched node delete queries, got %d in:\n%s", count, buf.String())
	}
}

func TestInsertPhaseBatchesTriplesAndCarriesPrefixes(t *testing.T) {
	result := filter.Result{
		Prefixes: []string{"PREFIX osmnode: <https://www.openstreetmap.org/node/>"},
		Triples: []string{
			`osmnode:1 osmkey:name "A" .`,
			`osmnode:2 osmkey:name "B" .`,
			`osmnode:3 osmkey:name "C" .`,
		},
	}

	var buf bytes.Buffer
	p := &Planner{Writer: sparql.QueryWriter{}, BatchSize: 2, Mode: OutputFile, Out: &buf}
	dx := p.InsertPhase(context.Background(), result)
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}

	out := buf.String()
	if strings.Count(out, "INSERT DATA {") != 2 {
		t.Fatalf("expected 2 insert batches for 3 triples at batch size 2, got:\n%s", out)
	}
	if strings.Count(out, "PREFIX osmnode:") != 2 {
		t.Fatalf("expected every insert batch to carry the prefix block, got:\n%s", out)
	}
}

func TestCommitWatermarkDeletesThenInserts(t *testing.T) {
	var buf bytes.Buffer
	p := &Planner{Writer: sparql.QueryWriter{}, Mode: OutputFile, Out: &buf}
	dx := p.CommitWatermark(context.Background(), 42, "2026-07-30T00:00:00Z")
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}

	out := buf.String()
	deleteIdx := strings.Index(out, "DELETE {")
	insertIdx := strings.Index(out, "INSERT DATA {")
	if deleteIdx == -1 || insertIdx == -1 || deleteIdx > insertIdx {
		t.Fatalf("expected delete query before insert query, got:\n%s", out)
	}
	if !strings.Contains(out, `"42"`) {
		t.Fatalf("expected new sequence number in watermark insert, got:\n%s", out)
	}
}

func TestEndpointModePostsToServer(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	updateURL, err := url.Parse(server.URL + "/update")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := sparql.NewClient(updateURL, updateURL, "", sparql.GenericDecoder{})

	ws := wsWithNodes([]osm.ID{1}, nil, nil, nil)
	p := &Planner{Client: client, Writer: sparql.QueryWriter{}, BatchSize: 1000, Mode: OutputEndpoint}
	dx := p.DeletePhase(context.Background(), ws)
	if dx.HasErrors() {
		t.Fatalf("unexpected errors: %v", dx)
	}
	if atomic.LoadInt32(&requests) == 0 {
		t.Fatalf("expected at least one request to reach the endpoint")
	}
}
