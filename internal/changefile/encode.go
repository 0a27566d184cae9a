package changefile

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/ad-freiburg/olu/internal/osm"
)

// WriteTo serializes the merged records as a single standalone OsmChange
// XML document, grouping consecutive records by action into create/modify/
// delete blocks and preserving the merged order within each block
// (spec.md §4.2).
func (m *Merged) WriteTo(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<osmChange version=\"0.6\" generator=\"olu\">\n"); err != nil {
		return err
	}
	if err := m.WriteBody(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</osmChange>\n")
	return err
}

// WriteBody writes just the create/modify/delete action blocks, with no
// xml.Header or <osmChange> wrapper of its own, so a caller can splice it
// into another document's <osmChange> root. driver.go uses this to write
// the merged change set and C6's synthesized dummy records into the same
// file before handing it to osm2rdf in a single pass (spec.md §4.9's
// "concatenate the synthetic file with the merged change file" rule —
// literal concatenation inside one root element, not two separate
// conversions merged afterward).
func (m *Merged) WriteBody(w io.Writer) error {
	for _, blk := range groupByAction(m.Records) {
		if _, err := io.WriteString(w, "<"+blk.tag+">\n"); err != nil {
			return err
		}
		for _, rec := range blk.records {
			if err := writeElement(w, rec); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</"+blk.tag+">\n"); err != nil {
			return err
		}
	}
	return nil
}

type actionBlock struct {
	tag     string
	records []Record
}

func groupByAction(records []Record) []actionBlock {
	var blocks []actionBlock
	var current *actionBlock
	for _, rec := range records {
		tag := actionTag(rec)
		if current == nil || current.tag != tag {
			blocks = append(blocks, actionBlock{tag: tag})
			current = &blocks[len(blocks)-1]
		}
		current.records = append(current.records, rec)
	}
	return blocks
}

func actionTag(r Record) string {
	switch r.Action() {
	case osm.ActionCreate:
		return "create"
	case osm.ActionDelete:
		return "delete"
	default:
		return "modify"
	}
}

func writeElement(w io.Writer, r Record) error {
	name := r.Kind.String()
	if _, err := io.WriteString(w, "<"+name+" id=\""+itoa(int64(r.ID))+"\""); err != nil {
		return err
	}
	if r.Version > 0 {
		if _, err := io.WriteString(w, " version=\""+itoa(int64(r.Version))+"\""); err != nil {
			return err
		}
	}
	if r.ChangesetID > 0 {
		if _, err := io.WriteString(w, " changeset=\""+itoa(r.ChangesetID)+"\""); err != nil {
			return err
		}
	}
	if !r.Timestamp.IsZero() {
		if _, err := io.WriteString(w, " timestamp=\""+r.Timestamp.String()+"\""); err != nil {
			return err
		}
	}
	switch r.Kind {
	case osm.KindNode:
		if r.Loc.LatText != "" {
			if _, err := io.WriteString(w, " lat=\""+r.Loc.LatText+"\""); err != nil {
				return err
			}
		}
		if r.Loc.LonText != "" {
			if _, err := io.WriteString(w, " lon=\""+r.Loc.LonText+"\""); err != nil {
				return err
			}
		}
	}

	writeType := r.Kind == osm.KindRelation && r.RelationType != ""
	for _, t := range r.Tags {
		if t.Key == "type" {
			writeType = false
		}
	}
	hasChildren := len(r.Tags) > 0 || len(r.Members) > 0 || len(r.RelationMembers) > 0 || writeType
	if !hasChildren {
		_, err := io.WriteString(w, "/>\n")
		return err
	}
	if _, err := io.WriteString(w, ">\n"); err != nil {
		return err
	}
	for _, ref := range r.Members {
		if _, err := io.WriteString(w, "<nd ref=\""+itoa(int64(ref))+"\"/>\n"); err != nil {
			return err
		}
	}
	for _, m := range r.RelationMembers {
		elem := "<member type=\"" + m.Kind.String() + "\" ref=\"" + itoa(int64(m.ID)) + "\" role=\"" + escapeAttr(m.Role) + "\"/>\n"
		if _, err := io.WriteString(w, elem); err != nil {
			return err
		}
	}
	for _, t := range r.Tags {
		elem := "<tag k=\"" + escapeAttr(t.Key) + "\" v=\"" + escapeAttr(t.Value) + "\"/>\n"
		if _, err := io.WriteString(w, elem); err != nil {
			return err
		}
	}
	if writeType {
		if _, err := io.WriteString(w, "<tag k=\"type\" v=\""+escapeAttr(r.RelationType)+"\"/>\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+name+">\n")
	return err
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func escapeAttr(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&quot;"...)
		case '\n':
			out = append(out, "&#10;"...)
		case '\r':
			out = append(out, "&#13;"...)
		case '\t':
			out = append(out, "&#9;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
