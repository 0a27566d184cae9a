// Package classify implements the object handlers (C3): one streaming pass
// over the merged change file that routes creates/deletes immediately and
// buffers modify candidates per kind, followed by a post-pass that resolves
// each buffered modify
// against the endpoint's current state to decide whether its structure
// changed, is unchanged, or must be promoted to an effective create.
package classify

import "github.com/ad-freiburg/olu/internal/osm"

// IDSet is a plain id-membership set; classification never needs anything
// fancier than presence checks and iteration, so a bare map keeps the hot
// path allocation-free per insert. Grounded on the teacher's own
// collections.Set[T] shape (internal/collections/set.go) but declared
// locally because WorkSet's sets need a MarshalJSON-free, domain-specific
// name at call sites (CreatedNodes.Has(...), not a generic Set.Has(...)).
type IDSet map[osm.ID]struct{}

func newIDSet() IDSet { return make(IDSet) }

// Add inserts id into the set.
func (s IDSet) Add(id osm.ID) { s[id] = struct{}{} }

// Has reports whether id is a member.
func (s IDSet) Has(id osm.ID) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the set's members in unspecified order.
func (s IDSet) Slice() []osm.ID {
	out := make([]osm.ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Union adds every member of other into s.
func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// WorkSet holds the four disjoint per-kind sets named in spec.md §3. The
// derived (non-disjoint) geometry-dependent sets for ways and relations live
// on WorkSets, not here.
type WorkSet struct {
	Created                    IDSet
	ModifiedStructureUnchanged IDSet
	ModifiedStructureChanged   IDSet
	Deleted                    IDSet
}

func newWorkSet() WorkSet {
	return WorkSet{
		Created:                    newIDSet(),
		ModifiedStructureUnchanged: newIDSet(),
		ModifiedStructureChanged:   newIDSet(),
		Deleted:                    newIDSet(),
	}
}

// Disjoint reports whether the four sets are pairwise disjoint (P1/I1).
func (w WorkSet) Disjoint() bool {
	all := []IDSet{w.Created, w.ModifiedStructureUnchanged, w.ModifiedStructureChanged, w.Deleted}
	seen := newIDSet()
	for _, s := range all {
		for id := range s {
			if seen.Has(id) {
				return false
			}
			seen.Add(id)
		}
	}
	return true
}

// Union returns the set of every id appearing in any of the four sets.
func (w WorkSet) Union() IDSet {
	out := newIDSet()
	out.Union(w.Created)
	out.Union(w.ModifiedStructureUnchanged)
	out.Union(w.ModifiedStructureChanged)
	out.Union(w.Deleted)
	return out
}

// WorkSets is the complete classification result across all three kinds,
// plus the geometry-dependent and reference sets C4 consumes and extends.
type WorkSets struct {
	Nodes     WorkSet
	Ways      WorkSet
	Relations WorkSet

	// GeometryDependents holds ways/relations whose geometry must be
	// recomputed because a referenced object's geometry changed, even
	// though the object's own attributes (tags, member list identity)
	// didn't change — i.e. I2's "external object" case, plus objects C4
	// later adds.
	GeometryDependentWays      IDSet
	GeometryDependentRelations IDSet

	// MultipolygonAreas holds modified relations whose type tag is
	// multipolygon or boundary, recorded so their geometry triples are
	// rebuilt regardless of member-list identity (spec.md §4.3).
	MultipolygonAreas IDSet

	// Referenced is the dummy-needs set (spec.md §3 ReferenceSet): ids that
	// appear as members in the change file but are not themselves among
	// any WorkSet of their kind.
	ReferencedNodes     IDSet
	ReferencedWays      IDSet
	ReferencedRelations IDSet
}

// NewWorkSets allocates an empty WorkSets with every set initialized, for
// callers (tests, and C4) that need to build or extend one without running
// the full Run.
func NewWorkSets() *WorkSets {
	return newWorkSets()
}

func newWorkSets() *WorkSets {
	return &WorkSets{
		Nodes:                      newWorkSet(),
		Ways:                       newWorkSet(),
		Relations:                  newWorkSet(),
		GeometryDependentWays:      newIDSet(),
		GeometryDependentRelations: newIDSet(),
		MultipolygonAreas:          newIDSet(),
		ReferencedNodes:            newIDSet(),
		ReferencedWays:             newIDSet(),
		ReferencedRelations:        newIDSet(),
	}
}

// WorkSetFor returns the WorkSet for the given kind.
func (ws *WorkSets) WorkSetFor(k osm.Kind) *WorkSet {
	switch k {
	case osm.KindNode:
		return &ws.Nodes
	case osm.KindWay:
		return &ws.Ways
	case osm.KindRelation:
		return &ws.Relations
	default:
		return nil
	}
}
