package driver

import (
	"context"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/dummy"
	"github.com/ad-freiburg/olu/internal/osm"
)

// fetchDummyData retrieves current endpoint state for every id the synthetic
// stream will need: the reference (dummy-needs) sets plus the
// geometry-dependent sets, since dummy.WriteRecords synthesizes over the
// union of both.
func (d *Driver) fetchDummyData(ctx context.Context, ws *classify.WorkSets) (dummy.Data, diags.Diagnostics) {
	var dx diags.Diagnostics

	nodeIDs := ws.ReferencedNodes.Slice()
	locations, ldx := d.Fetcher.NodeLocations(ctx, nodeIDs)
	dx = append(dx, ldx...)

	wayIDs := unionSlice(ws.ReferencedWays, ws.GeometryDependentWays)
	wayMembers, wdx := d.Fetcher.WayMembers(ctx, wayIDs)
	dx = append(dx, wdx...)

	relationIDs := unionSlice(ws.ReferencedRelations, ws.GeometryDependentRelations)
	relationResults, rdx := d.Fetcher.RelationMembers(ctx, relationIDs)
	dx = append(dx, rdx...)

	relationInfo := make(map[osm.ID]dummy.RelationInfo, len(relationResults))
	for id, r := range relationResults {
		relationInfo[id] = dummy.RelationInfo{Type: r.Type, Members: r.Members}
	}

	return dummy.Data{
		NodeLocations:   locations,
		WayMembers:      wayMembers,
		RelationMembers: relationInfo,
	}, dx
}

func unionSlice(a, b classify.IDSet) []osm.ID {
	out := make(classify.IDSet, len(a)+len(b))
	out.Union(a)
	out.Union(b)
	return out.Slice()
}
