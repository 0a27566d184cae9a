package filter

import (
	"strings"
	"testing"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/osm"
)

func idSet(ids ...osm.ID) classify.IDSet {
	s := make(classify.IDSet)
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func TestRunKeepsFullyKeptNodeAndDropsOthers(t *testing.T) {
	input := strings.Join([]string{
		`PREFIX osmnode: <https://www.openstreetmap.org/node/>`,
		`osmnode:1 osmkey:name "Keep Me" .`,
		`osmnode:1 geo:hasCentroid _:b0 .`,
		`_:b0 geo:asWKT "POINT(1 1)" .`,
		`osmnode:2 osmkey:name "Drop Me" .`,
	}, "\n")

	ids := RelevantIDs{Nodes: idSet(1)}
	res, err := Run(strings.NewReader(input), ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Prefixes) != 1 {
		t.Fatalf("expected 1 prefix, got %d: %v", len(res.Prefixes), res.Prefixes)
	}
	if !contains(res.Triples, `osmnode:1 osmkey:name "Keep Me" .`) {
		t.Fatalf("expected kept node tag triple, got %v", res.Triples)
	}
	if !contains(res.Triples, `_:b0 geo:asWKT "POINT(1 1)" .`) {
		t.Fatalf("expected chained blank-node triple to be kept, got %v", res.Triples)
	}
	for _, tr := range res.Triples {
		if strings.Contains(tr, "Drop Me") {
			t.Fatalf("did not expect dropped node's triple in result: %v", res.Triples)
		}
	}
}

func TestRunTagsOnlyWayDropsGeometryKeepsTags(t *testing.T) {
	input := strings.Join([]string{
		`osmway:5 osmkey:highway "residential" .`,
		`osmway:5 osm2rdfgeom:centroid "POINT(0 0)" .`,
		`osmway:5 osmway:member _:b1 .`,
		`_:b1 osm2rdfmember:id osmnode:9 .`,
	}, "\n")

	ids := RelevantIDs{WaysTagsOnly: idSet(5)}
	res, err := Run(strings.NewReader(input), ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !contains(res.Triples, `osmway:5 osmkey:highway "residential" .`) {
		t.Fatalf("expected tag triple kept, got %v", res.Triples)
	}
	if contains(res.Triples, `osmway:5 osm2rdfgeom:centroid "POINT(0 0)" .`) {
		t.Fatalf("expected geometry triple dropped, got %v", res.Triples)
	}
	if contains(res.Triples, `osmway:5 osmway:member _:b1 .`) {
		t.Fatalf("expected member triple dropped for tags-only way, got %v", res.Triples)
	}
	if contains(res.Triples, `_:b1 osm2rdfmember:id osmnode:9 .`) {
		t.Fatalf("expected member chain not followed for tags-only way, got %v", res.Triples)
	}
}

func TestRunFullWayKeepsMemberChainAndDropsSentinelTag(t *testing.T) {
	input := strings.Join([]string{
		`osmway:7 osmway:member _:b2 .`,
		`_:b2 osm2rdfmember:id osmnode:1 .`,
		`osmway:7 osmkey:olu:dummy "1" .`,
	}, "\n")

	ids := RelevantIDs{WaysFull: idSet(7)}
	res, err := Run(strings.NewReader(input), ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !contains(res.Triples, `osmway:7 osmway:member _:b2 .`) {
		t.Fatalf("expected member triple kept, got %v", res.Triples)
	}
	if !contains(res.Triples, `_:b2 osm2rdfmember:id osmnode:1 .`) {
		t.Fatalf("expected member chain followed, got %v", res.Triples)
	}
	if contains(res.Triples, `osmway:7 osmkey:olu:dummy "1" .`) {
		t.Fatalf("expected sentinel tag triple dropped, got %v", res.Triples)
	}
}

func TestRunChainResetsOnNextPrimarySubject(t *testing.T) {
	input := strings.Join([]string{
		`osmway:1 osmway:member _:b0 .`,
		`osmway:2 osmkey:highway "track" .`,
		`_:b0 osm2rdfmember:id osmnode:1 .`,
	}, "\n")

	ids := RelevantIDs{WaysFull: idSet(1)}
	res, err := Run(strings.NewReader(input), ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if contains(res.Triples, `osmway:2 osmkey:highway "track" .`) {
		t.Fatalf("way 2 was not in any relevant set, should be dropped: %v", res.Triples)
	}
	if contains(res.Triples, `_:b0 osm2rdfmember:id osmnode:1 .`) {
		t.Fatalf("chain should have reset once a new primary subject was seen: %v", res.Triples)
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
