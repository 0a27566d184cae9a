package classify

import (
	"context"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/osm"
)

// resolveNodes resolves every buffered node modify against the endpoint's
// current location, per spec.md §4.3: no current location promotes to an
// effective create; an identical location (after text normalization) is
// structure-unchanged; anything else is structure-changed.
func (c *Classifier) resolveNodes(ctx context.Context, ws *WorkSets, modifies map[osm.ID]nodeModify) diags.Diagnostics {
	var dx diags.Diagnostics
	if len(modifies) == 0 {
		return dx
	}

	ids := make([]osm.ID, 0, len(modifies))
	for id := range modifies {
		ids = append(ids, id)
	}

	current := make(map[osm.ID]osm.Location, len(ids))
	for _, batch := range c.batches(ids) {
		locs, bdx := c.Fetcher.NodeLocations(ctx, batch)
		dx = dx.Append(bdx...)
		for id, loc := range locs {
			current[id] = loc
		}
	}

	for id, m := range modifies {
		endpointLoc, ok := current[id]
		if !ok {
			ws.Nodes.Created.Add(id)
			continue
		}
		if endpointLoc.Equal(m.loc) {
			ws.Nodes.ModifiedStructureUnchanged.Add(id)
		} else {
			ws.Nodes.ModifiedStructureChanged.Add(id)
		}
	}

	return dx
}
