package changefile

import (
	"strings"
	"testing"

	"github.com/ad-freiburg/olu/internal/osm"
)

const sampleChange = `<?xml version="1.0"?>
<osmChange version="0.6" generator="test">
  <create>
    <node id="42" lat="1.0" lon="2.0" version="1" changeset="100" timestamp="2024-01-01T00:00:00Z"/>
  </create>
  <modify>
    <way id="99" version="3" changeset="101" timestamp="2024-01-02T00:00:00Z">
      <nd ref="1"/>
      <nd ref="2"/>
      <tag k="highway" v="residential"/>
    </way>
    <relation id="200" version="2">
      <member type="way" ref="99" role="outer"/>
      <tag k="type" v="multipolygon"/>
    </relation>
  </modify>
  <delete>
    <node id="7" version="5" visible="false"/>
  </delete>
</osmChange>`

func TestDecodeAllKinds(t *testing.T) {
	var records []Record
	derr := Decode(strings.NewReader(sampleChange), func(r Record) error {
		records = append(records, r)
		return nil
	})
	if derr != nil {
		t.Fatalf("Decode: %v", derr)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	node := records[0]
	if node.Kind != osm.KindNode || node.ID != 42 || node.Action() != osm.ActionCreate {
		t.Fatalf("unexpected node record: %+v", node)
	}
	if node.Loc.LatText != "1.0" || node.Loc.LonText != "2.0" {
		t.Fatalf("unexpected node location: %+v", node.Loc)
	}

	way := records[1]
	if way.Kind != osm.KindWay || !way.Members.Equal(osm.WayMembers{1, 2}) {
		t.Fatalf("unexpected way record: %+v", way)
	}
	if way.Action() != osm.ActionModify {
		t.Fatalf("expected way to be a modify, got %v", way.Action())
	}

	rel := records[2]
	if rel.Kind != osm.KindRelation || rel.RelationType != "multipolygon" {
		t.Fatalf("unexpected relation record: %+v", rel)
	}
	if len(rel.RelationMembers) != 1 || rel.RelationMembers[0].ID != 99 || rel.RelationMembers[0].Kind != osm.KindWay {
		t.Fatalf("unexpected relation members: %+v", rel.RelationMembers)
	}

	deletedNode := records[3]
	if deletedNode.Kind != osm.KindNode || deletedNode.ID != 7 || !deletedNode.Deleted {
		t.Fatalf("unexpected deleted node record: %+v", deletedNode)
	}
}

func TestDecodeDeleteBlockSetsDeleted(t *testing.T) {
	var records []Record
	derr := Decode(strings.NewReader(sampleChange), func(r Record) error {
		records = append(records, r)
		return nil
	})
	if derr != nil {
		t.Fatalf("Decode: %v", derr)
	}
	deleted := records[len(records)-1]
	if deleted.ID != 7 || !deleted.Deleted || deleted.Action() != osm.ActionDelete {
		t.Fatalf("unexpected delete record: %+v", deleted)
	}
}

func TestDecodeMalformedXML(t *testing.T) {
	derr := Decode(strings.NewReader("<osmChange><create><node id=\"abc\"/></create></osmChange>"), func(Record) error {
		return nil
	})
	if derr == nil {
		t.Fatal("expected error decoding non-numeric id")
	}
}

func TestDecodeElementOutsideActionBlock(t *testing.T) {
	derr := Decode(strings.NewReader(`<osmChange><node id="1"/></osmChange>`), func(Record) error {
		return nil
	})
	if derr == nil {
		t.Fatal("expected error for node outside action block")
	}
}
