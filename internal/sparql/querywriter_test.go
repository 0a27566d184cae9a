package sparql

import (
	"strings"
	"testing"

	"github.com/ad-freiburg/olu/internal/osm"
)

func TestWriteQueryForNodeLocationsContainsValuesAndPredicate(t *testing.T) {
	w := QueryWriter{}
	q := w.WriteQueryForNodeLocations([]osm.ID{1, 2, 3})
	if !strings.Contains(q, "VALUES ?s") {
		t.Fatalf("expected VALUES clause, got: %s", q)
	}
	if !strings.Contains(q, osm.WrappedIRI(osm.KindNode, 1)) {
		t.Fatalf("expected node IRI for id 1, got: %s", q)
	}
	if !strings.Contains(q, osm.PrefixedGeoAsWKT) {
		t.Fatalf("expected geo:asWKT predicate, got: %s", q)
	}
}

func TestWriteDeleteOsmObjectQueryScopesToKind(t *testing.T) {
	w := QueryWriter{}
	q := w.WriteDeleteOsmObjectQuery(osm.KindWay, []osm.ID{99})
	if !strings.Contains(q, osm.WrappedIRI(osm.KindWay, 99)) {
		t.Fatalf("expected way IRI in delete query, got: %s", q)
	}
	if !strings.Contains(q, "DELETE {") || !strings.Contains(q, "WHERE {") {
		t.Fatalf("expected DELETE/WHERE clauses, got: %s", q)
	}
}

func TestWriteDeleteOsmObjectGeometryQueryScopesPredicates(t *testing.T) {
	w := QueryWriter{}
	q := w.WriteDeleteOsmObjectGeometryQuery(osm.KindWay, []osm.ID{1})
	if !strings.Contains(q, osm.PrefixedGeoHasGeometry) {
		t.Fatalf("expected geometry predicate scoping, got: %s", q)
	}
}

func TestGraphOptionalWrapping(t *testing.T) {
	w := QueryWriter{GraphIRI: "https://example.org/graph"}
	q := w.WriteQueryForLatestTimestamp()
	if !strings.Contains(q, "GRAPH <https://example.org/graph>") {
		t.Fatalf("expected GRAPH wrapping when GraphIRI set, got: %s", q)
	}

	w2 := QueryWriter{}
	q2 := w2.WriteQueryForLatestTimestamp()
	if strings.Contains(q2, "GRAPH <") {
		t.Fatalf("expected no GRAPH wrapping when GraphIRI unset, got: %s", q2)
	}
}

func TestWriteInsertQueryBatchesTriples(t *testing.T) {
	w := QueryWriter{}
	triples := []string{
		"<https://www.openstreetmap.org/node/1> osmmeta:version \"1\" .",
	}
	q := w.WriteInsertQuery(osm.DefaultPrefixes[:1], triples)
	if !strings.HasPrefix(q, osm.DefaultPrefixes[0]) {
		t.Fatalf("expected prefix declarations first, got: %s", q)
	}
	if !strings.Contains(q, "INSERT DATA {") {
		t.Fatalf("expected INSERT DATA block, got: %s", q)
	}
}

func TestWriteInsertWatermarkQuery(t *testing.T) {
	w := QueryWriter{}
	q := w.WriteInsertWatermarkQuery(42, "2024-01-02T03:04:05Z")
	if !strings.Contains(q, "\"42\"") {
		t.Fatalf("expected sequence number literal, got: %s", q)
	}
	if !strings.Contains(q, osm.XSDInteger) || !strings.Contains(q, osm.XSDDateTime) {
		t.Fatalf("expected typed literals, got: %s", q)
	}
	if !strings.Contains(q, osm.PrefixedOSM2RDFMetaInfo) {
		t.Fatalf("expected watermark subject, got: %s", q)
	}
}

func TestWriteDeleteWatermarkQueryUsesFixedSubject(t *testing.T) {
	w := QueryWriter{}
	q := w.WriteDeleteWatermarkQuery()
	if !strings.Contains(q, "DELETE {") {
		t.Fatalf("expected DELETE block, got: %s", q)
	}
	if !strings.Contains(q, osm.PrefixedOSM2RDFMetaInfo) {
		t.Fatalf("expected watermark subject, got: %s", q)
	}
}

func TestRelationsReferencingVariants(t *testing.T) {
	w := QueryWriter{}
	ids := []osm.ID{5}
	cases := []string{
		w.WriteQueryForRelationsReferencingNodes(ids),
		w.WriteQueryForRelationsReferencingWays(ids),
		w.WriteQueryForRelationsReferencingRelations(ids),
	}
	for _, q := range cases {
		if !strings.Contains(q, "SELECT DISTINCT ?s") {
			t.Fatalf("expected distinct relation select, got: %s", q)
		}
	}
}
