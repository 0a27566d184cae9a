// Package changefile implements the change-file merger (C2): reading one or
// more OsmChange XML streams (optionally gzip-compressed), and merging them
// into one canonical, totally ordered stream for the classifier (C3) to scan.
package changefile

import "github.com/ad-freiburg/olu/internal/osm"

// Record is one OsmChange element (node, way, or relation) in its raw
// decoded shape, before C3 routes it into a WorkSet. Only the fields
// relevant to this kind are populated; callers switch on Kind.
type Record struct {
	Kind        osm.Kind
	ID          osm.ID
	Version     int
	ChangesetID int64
	Timestamp   osm.Timestamp
	Deleted     bool

	// Node fields.
	Loc osm.Location

	// Way fields.
	Members osm.WayMembers

	// Relation fields.
	RelationType    string
	RelationMembers osm.RelationMembers

	Tags []osm.Tag
}

// Meta extracts the common metadata fields as an osm.Meta.
func (r Record) Meta() osm.Meta {
	return osm.Meta{
		Timestamp:   r.Timestamp,
		Version:     r.Version,
		ChangesetID: r.ChangesetID,
		Deleted:     r.Deleted,
	}
}

// Action derives the ChangeAction the same way osm.ClassifyAction does.
func (r Record) Action() osm.Action {
	return osm.ClassifyAction(r.Meta())
}

// AsNode converts a node Record into an osm.Node.
func (r Record) AsNode() osm.Node {
	return osm.Node{ID: r.ID, Loc: r.Loc, Tags: r.Tags, Meta: r.Meta()}
}

// AsWay converts a way Record into an osm.Way.
func (r Record) AsWay() osm.Way {
	return osm.Way{ID: r.ID, Members: r.Members, Tags: r.Tags, Meta: r.Meta()}
}

// AsRelation converts a relation Record into an osm.Relation.
func (r Record) AsRelation() osm.Relation {
	return osm.Relation{ID: r.ID, Type: r.RelationType, Members: r.RelationMembers, Tags: r.Tags, Meta: r.Meta()}
}

// key identifies a Record for merge deduplication: (kind, id).
type key struct {
	kind osm.Kind
	id   osm.ID
}
