// Package osm defines the core OSM data model shared by every stage of the
// update pipeline: object identity, the three object kinds, tags, members,
// and the derived classification of a change.
package osm

import "fmt"

// ID is a 64-bit OSM object identifier. Identity is scoped by Kind: a Node
// with ID 1 and a Way with ID 1 are different objects.
type ID int64

// Kind is one of the three OSM object kinds.
type Kind uint8

const (
	KindNode Kind = iota
	KindWay
	KindRelation
)

// String renders the kind using the same lower-case singular spelling as the
// OsmChange XML element names ("node", "way", "relation").
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	default:
		return fmt.Sprintf("unknown-kind(%d)", uint8(k))
	}
}

// AllKinds lists the three object kinds in the order most of the pipeline
// iterates over them (node, way, relation), matching the order fields
// appear in OsmChange.
var AllKinds = [3]Kind{KindNode, KindWay, KindRelation}

// Tag is a (key, value) pair attached to an OSM object.
type Tag struct {
	Key   string
	Value string
}

// Meta is the metadata common to every OSM object version.
type Meta struct {
	Timestamp   Timestamp
	Version     int
	ChangesetID int64
	Deleted     bool
}

// Action classifies what kind of change an object's Meta represents, per
// spec.md §3 (ChangeAction).
type Action uint8

const (
	ActionCreate Action = iota
	ActionModify
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionModify:
		return "modify"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ClassifyAction derives the ChangeAction from an object's metadata, per
// spec.md §3: deleted implies DELETE; version 1 implies CREATE; otherwise
// MODIFY. The caller (C3) is responsible for the further promotion of a
// MODIFY to an effective CREATE when the endpoint has no prior state.
func ClassifyAction(m Meta) Action {
	if m.Deleted {
		return ActionDelete
	}
	if m.Version == 1 {
		return ActionCreate
	}
	return ActionModify
}

// Location is a decimal (longitude, latitude) pair. Lon/Lat are kept only as
// the original decimal text (no parsed float is stored) so that round-tripping
// through the RDF converter preserves the 7-digit precision the OSM
// replication format uses (spec.md §3).
type Location struct {
	LonText string
	LatText string
}

// Equal compares two locations by their normalized text, per spec.md §4.3's
// "byte-equal after normalization of text precision" rule.
func (l Location) Equal(other Location) bool {
	return normalizeDecimal(l.LonText) == normalizeDecimal(other.LonText) &&
		normalizeDecimal(l.LatText) == normalizeDecimal(other.LatText)
}

// normalizeDecimal trims trailing zeros (and a trailing decimal point) from
// a decimal literal so "2.0" and "2.0000000" compare equal, without
// rounding — this system never needs to compare across differing precision
// beyond trailing-zero noise.
func normalizeDecimal(s string) string {
	if s == "" {
		return s
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	dot := -1
	for i, c := range s {
		if c == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		if neg {
			return "-" + s
		}
		return s
	}
	end := len(s)
	for end > dot+1 && s[end-1] == '0' {
		end--
	}
	if end == dot+1 {
		end = dot
	}
	out := s[:end]
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// WayMembers is an ordered sequence of node ids referenced by a way.
// Duplicates are permitted; order is semantic (spec.md §3).
type WayMembers []ID

// Equal compares two member lists for exact order-and-value equality.
func (m WayMembers) Equal(other WayMembers) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// RelationMember is one (id, kind, role) entry in a relation's ordered
// member list.
type RelationMember struct {
	ID   ID
	Kind Kind
	Role string
}

// RelationMembers is the ordered member list of a relation.
type RelationMembers []RelationMember

// Equal compares two relation member lists for exact order-and-value
// equality, including role strings.
func (m RelationMembers) Equal(other RelationMembers) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// TypeTagValue returns the value of the relation's distinguished "type" tag,
// or "" if it has none.
func TypeTagValue(tags []Tag) string {
	for _, t := range tags {
		if t.Key == "type" {
			return t.Value
		}
	}
	return ""
}

// IsMultipolygonType reports whether a relation's type tag marks it as an
// area relation whose geometry is derived from its members (spec.md §4.3).
func IsMultipolygonType(typeTag string) bool {
	return typeTag == "multipolygon" || typeTag == "boundary"
}

// Node is a complete OSM node as read from a change file.
type Node struct {
	ID   ID
	Loc  Location
	Tags []Tag
	Meta Meta
}

// Way is a complete OSM way as read from a change file.
type Way struct {
	ID      ID
	Members WayMembers
	Tags    []Tag
	Meta    Meta
}

// Relation is a complete OSM relation as read from a change file.
type Relation struct {
	ID      ID
	Type    string
	Members RelationMembers
	Tags    []Tag
	Meta    Meta
}
