// Package dummy implements the synthetic-object builder (C6): for every id
// in a WorkSets' reference (dummy-needs) sets, it materializes a minimal
// OsmChange-shaped XML record so the RDF converter sees a well-formed
// object to derive geometry from, without pulling in any of that object's
// real tags or metadata.
package dummy

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/osm"
)

// Data is the subset of current endpoint state the builder needs to
// materialize a synthetic object: node locations, way member lists, and
// relation type+members, keyed by id. It mirrors discover.Fetcher's fetch
// targets but the builder itself never talks to the network — the caller
// (the driver) supplies whatever discover/fetch already retrieved.
type Data struct {
	NodeLocations   map[osm.ID]osm.Location
	WayMembers      map[osm.ID]osm.WayMembers
	RelationMembers map[osm.ID]RelationInfo
}

// RelationInfo is the type tag and ordered member list used to synthesize a
// relation.
type RelationInfo struct {
	Type    string
	Members osm.RelationMembers
}

// Build renders the three synthetic streams (nodes, ways, relations) for
// every id in ws's reference sets, plus every geometry-dependent way and
// relation (spec.md §4.6: a dependent object's own geometry must be
// recomputed by the converter too, even though it isn't itself referenced
// as a member by anything), using data already fetched for those ids, as a
// complete standalone OsmChange document.
func Build(ws *classify.WorkSets, data Data) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("<osmChange version=\"0.6\" generator=\"olu\">\n")
	_ = WriteRecords(&b, ws, data)
	b.WriteString("</osmChange>\n")
	return b.String()
}

// WriteRecords writes the synthetic <create> block only, with no xml.Header
// or <osmChange> wrapper of its own, so a caller can splice it directly
// into another document's <osmChange> root. driver.go uses this to write
// the synthetic stream straight into the same file as the merged change
// set, per spec.md §4.6: "the synthetic file is concatenated with the
// original merged change file and given to the RDF converter" as one
// document in a single osm2rdf invocation, not two separate runs merged
// afterward. Per spec.md §4.6, synthetic ways always carry a single
// sentinel tag so the converter treats them as tagged objects; the
// triple-relevance filter (C7) strips that sentinel tag's triple back out
// downstream.
//
// The union with GeometryDependentWays/Relations is computed locally for
// iteration only; ws's Referenced* sets themselves are left untouched so
// callers that inspect them afterward (e.g. to decide what to fetch) still
// see exactly the dummy-needs sets discover.Run produced.
func WriteRecords(w io.Writer, ws *classify.WorkSets, data Data) error {
	if _, err := io.WriteString(w, "<create>\n"); err != nil {
		return err
	}

	for _, id := range sortedIDs(ws.ReferencedNodes) {
		loc, ok := data.NodeLocations[id]
		if !ok {
			continue
		}
		if err := writeSyntheticNode(w, id, loc); err != nil {
			return err
		}
	}

	wayIDs := newIDSetUnion(ws.ReferencedWays, ws.GeometryDependentWays)
	for _, id := range sortedIDs(wayIDs) {
		members, ok := data.WayMembers[id]
		if !ok {
			continue
		}
		if err := writeSyntheticWay(w, id, members); err != nil {
			return err
		}
	}

	relationIDs := newIDSetUnion(ws.ReferencedRelations, ws.GeometryDependentRelations)
	for _, id := range sortedIDs(relationIDs) {
		info, ok := data.RelationMembers[id]
		if !ok {
			continue
		}
		if err := writeSyntheticRelation(w, id, info); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</create>\n")
	return err
}

// newIDSetUnion returns a's members plus b's, without mutating either.
func newIDSetUnion(a, b classify.IDSet) classify.IDSet {
	out := make(classify.IDSet, len(a)+len(b))
	out.Union(a)
	out.Union(b)
	return out
}

const xmlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"

func sortedIDs(set classify.IDSet) []osm.ID {
	ids := set.Slice()
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

func writeSyntheticNode(w io.Writer, id osm.ID, loc osm.Location) error {
	if _, err := io.WriteString(w, "<node id=\""+itoa(id)+"\" lat=\""); err != nil {
		return err
	}
	if err := writeEscaped(w, loc.LatText); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\" lon=\""); err != nil {
		return err
	}
	if err := writeEscaped(w, loc.LonText); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"/>\n")
	return err
}

func writeSyntheticWay(w io.Writer, id osm.ID, members osm.WayMembers) error {
	if _, err := io.WriteString(w, "<way id=\""+itoa(id)+"\">\n"); err != nil {
		return err
	}
	for _, nodeID := range members {
		if _, err := io.WriteString(w, "<nd ref=\""+itoa(nodeID)+"\"/>\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "<tag k=\""+osm.SentinelTagKey+"\" v=\""+osm.SentinelTagValue+"\"/>\n"); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</way>\n")
	return err
}

func writeSyntheticRelation(w io.Writer, id osm.ID, info RelationInfo) error {
	if _, err := io.WriteString(w, "<relation id=\""+itoa(id)+"\">\n"); err != nil {
		return err
	}
	for _, m := range info.Members {
		if _, err := io.WriteString(w, "<member type=\""+m.Kind.String()+"\" ref=\""+itoa(m.ID)+"\" role=\""); err != nil {
			return err
		}
		if err := writeEscaped(w, m.Role); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\"/>\n"); err != nil {
			return err
		}
	}
	if info.Type != "" {
		if _, err := io.WriteString(w, "<tag k=\"type\" v=\""); err != nil {
			return err
		}
		if err := writeEscaped(w, info.Type); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\"/>\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</relation>\n")
	return err
}

func itoa(id osm.ID) string {
	return strconv.FormatInt(int64(id), 10)
}

// writeEscaped writes s into w as XML attribute/character-data content,
// using the standard library's escaper (spec.md §9: escape the six XML
// special characters plus \n/\r/\t) rather than a hand-rolled one.
func writeEscaped(w io.Writer, s string) error {
	return xml.EscapeText(w, []byte(s))
}
