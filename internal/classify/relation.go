package classify

import (
	"context"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/osm"
)

// resolveRelations resolves every buffered relation modify against the
// endpoint's current type tag and member list (spec.md §4.3). A relation
// whose type tag is multipolygon/boundary is recorded in MultipolygonAreas
// regardless of whether its member list changed, since its geometry is
// derived from its members' geometry. A relation that references another
// relation as a member is conservatively classified modifiedStructureChanged
// with no deeper transitive closure (Open Question decision, spec.md §9).
func (c *Classifier) resolveRelations(ctx context.Context, ws *WorkSets, modifies map[osm.ID]relationModify) diags.Diagnostics {
	var dx diags.Diagnostics
	if len(modifies) == 0 {
		return dx
	}

	ids := make([]osm.ID, 0, len(modifies))
	for id := range modifies {
		ids = append(ids, id)
	}

	current := make(map[osm.ID]RelationMembersResult, len(ids))
	for _, batch := range c.batches(ids) {
		results, bdx := c.Fetcher.RelationMembers(ctx, batch)
		dx = dx.Append(bdx...)
		for id, r := range results {
			current[id] = r
		}
	}

	for id, m := range modifies {
		if osm.IsMultipolygonType(m.relType) {
			ws.MultipolygonAreas.Add(id)
		}

		endpoint, ok := current[id]
		if !ok {
			ws.Relations.Created.Add(id)
			continue
		}

		switch {
		case endpoint.Type != m.relType:
			ws.Relations.ModifiedStructureChanged.Add(id)
		case !endpoint.Members.Equal(m.members):
			ws.Relations.ModifiedStructureChanged.Add(id)
		case relationReferencesRelation(m.members):
			ws.Relations.ModifiedStructureChanged.Add(id)
		case relationReferencesChangedWay(m.members, ws.Ways.ModifiedStructureChanged):
			ws.Relations.ModifiedStructureChanged.Add(id)
		case relationReferencesChangedNode(m.members, ws.Nodes.ModifiedStructureChanged):
			ws.Relations.ModifiedStructureChanged.Add(id)
		default:
			ws.Relations.ModifiedStructureUnchanged.Add(id)
		}
	}

	return dx
}

// relationReferencesRelation reports whether any member is itself a
// relation.
func relationReferencesRelation(members osm.RelationMembers) bool {
	for _, m := range members {
		if m.Kind == osm.KindRelation {
			return true
		}
	}
	return false
}

// relationReferencesChangedWay reports whether any member way moved to
// modifiedStructureChanged this run, mirroring the way-references-changed-
// node rule in way.go.
func relationReferencesChangedWay(members osm.RelationMembers, changedWays IDSet) bool {
	for _, m := range members {
		if m.Kind == osm.KindWay && changedWays.Has(m.ID) {
			return true
		}
	}
	return false
}

// relationReferencesChangedNode reports whether any member node moved to
// modifiedStructureChanged this run. Same scheme as
// relationReferencesChangedWay and wayReferencesChangedNode in way.go: a
// relation's own member list can be unchanged while one of its member
// nodes moved, which still requires the relation's geometry to be rebuilt.
func relationReferencesChangedNode(members osm.RelationMembers, changedNodes IDSet) bool {
	for _, m := range members {
		if m.Kind == osm.KindNode && changedNodes.Has(m.ID) {
			return true
		}
	}
	return false
}
