package classify

import (
	"context"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/osm"
)

// resolveWays resolves every buffered way modify against the endpoint's
// current member list (spec.md §4.3). A way whose member list is unchanged
// can still be forced into modifiedStructureChanged if one of its member
// nodes itself moved to modifiedStructureChanged — its geometry must be
// rebuilt even though the way object's own triples didn't change.
func (c *Classifier) resolveWays(ctx context.Context, ws *WorkSets, modifies map[osm.ID]wayModify) diags.Diagnostics {
	var dx diags.Diagnostics
	if len(modifies) == 0 {
		return dx
	}

	ids := make([]osm.ID, 0, len(modifies))
	for id := range modifies {
		ids = append(ids, id)
	}

	current := make(map[osm.ID]osm.WayMembers, len(ids))
	for _, batch := range c.batches(ids) {
		members, bdx := c.Fetcher.WayMembers(ctx, batch)
		dx = dx.Append(bdx...)
		for id, m := range members {
			current[id] = m
		}
	}

	for id, m := range modifies {
		endpointMembers, ok := current[id]
		if !ok {
			ws.Ways.Created.Add(id)
			continue
		}
		if !endpointMembers.Equal(m.members) {
			ws.Ways.ModifiedStructureChanged.Add(id)
			continue
		}
		if wayReferencesChangedNode(m.members, ws.Nodes.ModifiedStructureChanged) {
			ws.Ways.ModifiedStructureChanged.Add(id)
		} else {
			ws.Ways.ModifiedStructureUnchanged.Add(id)
		}
	}

	return dx
}

// wayReferencesChangedNode reports whether any of members is a node whose
// location changed this run.
func wayReferencesChangedNode(members osm.WayMembers, changedNodes IDSet) bool {
	for _, nodeID := range members {
		if changedNodes.Has(nodeID) {
			return true
		}
	}
	return false
}
