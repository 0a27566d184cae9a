package changefile

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/osm"
)

// Decode streams an OsmChange XML document from r, calling visit once per
// node/way/relation element in document order. It never materializes the
// whole document, following the same token-by-token approach the design
// notes ask C3's own scan to use (spec.md §9 "Streaming").
func Decode(r io.Reader, visit func(Record) error) *diags.Diagnostic {
	dec := xml.NewDecoder(r)

	var action osm.Action
	var inAction bool

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return diags.New(diags.KindParse, "malformed OsmChange XML", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "create":
				action, inAction = osm.ActionCreate, true
			case "modify":
				action, inAction = osm.ActionModify, true
			case "delete":
				action, inAction = osm.ActionDelete, true
			case "node", "way", "relation":
				if !inAction {
					return diags.New(diags.KindParse, "malformed OsmChange XML",
						fmt.Errorf("<%s> outside of create/modify/delete block", t.Name.Local))
				}
				rec, decErr := decodeElement(dec, t, action)
				if decErr != nil {
					return diags.New(diags.KindParse, "malformed OsmChange XML", decErr)
				}
				if err := visit(rec); err != nil {
					return diags.New(diags.KindData, "failed to process decoded OsmChange record", err)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "create", "modify", "delete":
				inAction = false
			}
		}
	}
	return nil
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func decodeElement(dec *xml.Decoder, start xml.StartElement, action osm.Action) (Record, error) {
	rec := Record{}

	idStr, ok := attr(start, "id")
	if !ok {
		return rec, fmt.Errorf("<%s> missing id attribute", start.Name.Local)
	}
	id, err := parseInt64(idStr)
	if err != nil {
		return rec, fmt.Errorf("<%s> has non-numeric id %q: %w", start.Name.Local, idStr, err)
	}
	rec.ID = osm.ID(id)

	if v, ok := attr(start, "version"); ok {
		n, err := parseInt64(v)
		if err != nil {
			return rec, fmt.Errorf("<%s id=%d> has non-numeric version %q: %w", start.Name.Local, id, v, err)
		}
		rec.Version = int(n)
	}
	if cs, ok := attr(start, "changeset"); ok {
		n, err := parseInt64(cs)
		if err == nil {
			rec.ChangesetID = n
		}
	}
	if ts, ok := attr(start, "timestamp"); ok {
		parsed, err := osm.ParseTimestamp(ts)
		if err != nil {
			return rec, fmt.Errorf("<%s id=%d> has unparsable timestamp %q: %w", start.Name.Local, id, ts, err)
		}
		rec.Timestamp = parsed
	}

	rec.Deleted = action == osm.ActionDelete
	if visible, ok := attr(start, "visible"); ok && visible == "false" {
		rec.Deleted = true
	}

	switch start.Name.Local {
	case "node":
		rec.Kind = osm.KindNode
		if lat, ok := attr(start, "lat"); ok {
			rec.Loc.LatText = lat
		}
		if lon, ok := attr(start, "lon"); ok {
			rec.Loc.LonText = lon
		}
	case "way":
		rec.Kind = osm.KindWay
	case "relation":
		rec.Kind = osm.KindRelation
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return rec, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tag":
				k, _ := attr(t, "k")
				v, _ := attr(t, "v")
				rec.Tags = append(rec.Tags, osm.Tag{Key: k, Value: v})
				if k == "type" {
					rec.RelationType = v
				}
				if err := dec.Skip(); err != nil {
					return rec, err
				}
			case "nd":
				refStr, _ := attr(t, "ref")
				ref, err := parseInt64(refStr)
				if err != nil {
					return rec, fmt.Errorf("way %d has non-numeric nd ref %q: %w", rec.ID, refStr, err)
				}
				rec.Members = append(rec.Members, osm.ID(ref))
				if err := dec.Skip(); err != nil {
					return rec, err
				}
			case "member":
				refStr, _ := attr(t, "ref")
				ref, err := parseInt64(refStr)
				if err != nil {
					return rec, fmt.Errorf("relation %d has non-numeric member ref %q: %w", rec.ID, refStr, err)
				}
				typeStr, _ := attr(t, "type")
				role, _ := attr(t, "role")
				rec.RelationMembers = append(rec.RelationMembers, osm.RelationMember{
					ID:   osm.ID(ref),
					Kind: memberKind(typeStr),
					Role: role,
				})
				if err := dec.Skip(); err != nil {
					return rec, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return rec, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return rec, nil
			}
		}
	}
}

func memberKind(s string) osm.Kind {
	switch s {
	case "way":
		return osm.KindWay
	case "relation":
		return osm.KindRelation
	default:
		return osm.KindNode
	}
}

func parseInt64(s string) (int64, error) {
	var n int64
	var neg bool
	i := 0
	if len(s) == 0 {
		return 0, fmt.Errorf("empty integer")
	}
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, fmt.Errorf("malformed integer %q", s)
	}
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("malformed integer %q", s)
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
