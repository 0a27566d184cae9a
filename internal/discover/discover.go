package discover

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/osm"
)

// Discoverer runs the two further outward closures of spec.md §4.4 against
// an already-classified WorkSets, in place: geometry-dependent ways and
// relations, and the member ids those dependents pull into the reference
// (dummy-needs) sets.
type Discoverer struct {
	Fetcher   Fetcher
	BatchSize int
}

func (d *Discoverer) batchSize() int {
	if d.BatchSize > 0 {
		return d.BatchSize
	}
	return 1000
}

func (d *Discoverer) batches(ids []osm.ID) [][]osm.ID {
	size := d.batchSize()
	var batches [][]osm.ID
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}

// Run extends ws with GeometryDependentWays, GeometryDependentRelations, and
// the member ids of every dependent object that aren't already covered by a
// WorkSet, then extends ReferencedNodes/ReferencedWays/ReferencedRelations
// with the ids needed to fetch data for, per spec.md §4.4's "for each
// dependent object, its members become additional referenced*" rule.
func (d *Discoverer) Run(ctx context.Context, ws *classify.WorkSets) diags.Diagnostics {
	var dx diags.Diagnostics

	changedNodeIDs := ws.Nodes.ModifiedStructureChanged.Slice()
	changedWayIDs := ws.Ways.ModifiedStructureChanged.Slice()
	changedRelationIDs := ws.Relations.ModifiedStructureChanged.Slice()

	if len(changedNodeIDs) > 0 {
		dependentWays, wdx := d.waysReferencing(ctx, changedNodeIDs)
		dx = dx.Append(wdx...)
		for _, id := range dependentWays {
			if !ws.Ways.Union().Has(id) {
				ws.GeometryDependentWays.Add(id)
			}
		}
	}

	var relDepGroup errgroup.Group
	var fromNodes, fromWays, fromRelations []osm.ID
	var fromNodesDx, fromWaysDx, fromRelationsDx diags.Diagnostics

	if len(changedNodeIDs) > 0 {
		relDepGroup.Go(func() error {
			fromNodes, fromNodesDx = d.relationsReferencingNodes(ctx, changedNodeIDs)
			return nil
		})
	}
	if len(changedWayIDs) > 0 {
		relDepGroup.Go(func() error {
			fromWays, fromWaysDx = d.relationsReferencingWays(ctx, changedWayIDs)
			return nil
		})
	}
	if len(changedRelationIDs) > 0 {
		relDepGroup.Go(func() error {
			fromRelations, fromRelationsDx = d.relationsReferencingRelations(ctx, changedRelationIDs)
			return nil
		})
	}
	_ = relDepGroup.Wait()
	dx = dx.Append(fromNodesDx...)
	dx = dx.Append(fromWaysDx...)
	dx = dx.Append(fromRelationsDx...)

	relationObjects := ws.Relations.Union()
	for _, ids := range [][]osm.ID{fromNodes, fromWays, fromRelations} {
		for _, id := range ids {
			if !relationObjects.Has(id) {
				ws.GeometryDependentRelations.Add(id)
			}
		}
	}

	logging.Debug("discover: %d geometry-dependent ways, %d geometry-dependent relations",
		len(ws.GeometryDependentWays), len(ws.GeometryDependentRelations))

	dx = dx.Append(d.extendReferences(ctx, ws)...)

	return dx
}

func (d *Discoverer) waysReferencing(ctx context.Context, nodeIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	var dx diags.Diagnostics
	var out []osm.ID
	for _, batch := range d.batches(nodeIDs) {
		ids, bdx := d.Fetcher.WaysReferencingNodes(ctx, batch)
		dx = dx.Append(bdx...)
		out = append(out, ids...)
	}
	return out, dx
}

func (d *Discoverer) relationsReferencingNodes(ctx context.Context, nodeIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	var dx diags.Diagnostics
	var out []osm.ID
	for _, batch := range d.batches(nodeIDs) {
		ids, bdx := d.Fetcher.RelationsReferencingNodes(ctx, batch)
		dx = dx.Append(bdx...)
		out = append(out, ids...)
	}
	return out, dx
}

func (d *Discoverer) relationsReferencingWays(ctx context.Context, wayIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	var dx diags.Diagnostics
	var out []osm.ID
	for _, batch := range d.batches(wayIDs) {
		ids, bdx := d.Fetcher.RelationsReferencingWays(ctx, batch)
		dx = dx.Append(bdx...)
		out = append(out, ids...)
	}
	return out, dx
}

func (d *Discoverer) relationsReferencingRelations(ctx context.Context, relationIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	var dx diags.Diagnostics
	var out []osm.ID
	for _, batch := range d.batches(relationIDs) {
		ids, bdx := d.Fetcher.RelationsReferencingRelations(ctx, batch)
		dx = dx.Append(bdx...)
		out = append(out, ids...)
	}
	return out, dx
}

// extendReferences fetches the member lists of every newly discovered
// dependent way/relation and folds their member ids into the reference
// (dummy-needs) sets, excluding ids already covered by a kind's WorkSet.
func (d *Discoverer) extendReferences(ctx context.Context, ws *classify.WorkSets) diags.Diagnostics {
	var dx diags.Diagnostics

	nodeObjects := ws.Nodes.Union()
	wayObjects := ws.Ways.Union()
	relationObjects := ws.Relations.Union()

	dependentWayIDs := ws.GeometryDependentWays.Slice()
	if len(dependentWayIDs) > 0 {
		for _, batch := range d.batches(dependentWayIDs) {
			members, bdx := d.Fetcher.WayMembers(ctx, batch)
			dx = dx.Append(bdx...)
			for _, m := range members {
				for _, nodeID := range m {
					if !nodeObjects.Has(nodeID) {
						ws.ReferencedNodes.Add(nodeID)
					}
				}
			}
		}
	}

	dependentRelationIDs := ws.GeometryDependentRelations.Slice()
	if len(dependentRelationIDs) > 0 {
		for _, batch := range d.batches(dependentRelationIDs) {
			results, bdx := d.Fetcher.RelationMembers(ctx, batch)
			dx = dx.Append(bdx...)
			for _, r := range results {
				for _, m := range r.Members {
					switch m.Kind {
					case osm.KindNode:
						if !nodeObjects.Has(m.ID) {
							ws.ReferencedNodes.Add(m.ID)
						}
					case osm.KindWay:
						if !wayObjects.Has(m.ID) {
							ws.ReferencedWays.Add(m.ID)
						}
					case osm.KindRelation:
						if !relationObjects.Has(m.ID) {
							ws.ReferencedRelations.Add(m.ID)
						}
					}
				}
			}
		}
	}

	return dx
}
