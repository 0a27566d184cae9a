package classify

import (
	"context"

	"github.com/ad-freiburg/olu/internal/changefile"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/osm"
)

// nodeModify/wayModify/relationModify hold the buffered-modify candidates
// the scan collects, keyed by id, to be resolved against endpoint state in
// the post-pass.
type nodeModify struct {
	loc osm.Location
}

type wayModify struct {
	members osm.WayMembers
}

type relationModify struct {
	relType string
	members osm.RelationMembers
}

// Classifier runs the two-phase classification pass: a single streaming
// scan of the merged change file (routing creates/deletes immediately and
// buffering modifies), then a post-pass that resolves buffered modifies
// against the Fetcher.
type Classifier struct {
	Fetcher   Fetcher
	BatchSize int
}

// batchSize returns the configured batch size or a sane default.
func (c *Classifier) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return 1000
}

// Run performs the full classification of merged, consuming records in
// order, per spec.md §4.3.
func (c *Classifier) Run(ctx context.Context, merged *changefile.Merged) (*WorkSets, diags.Diagnostics) {
	var dx diags.Diagnostics

	ws := newWorkSets()

	nodeModifies := make(map[osm.ID]nodeModify)
	wayModifies := make(map[osm.ID]wayModify)
	relationModifies := make(map[osm.ID]relationModify)

	// referencedCandidates accumulates every id seen as a way/relation
	// member during the scan; ReferenceSet is the portion of this that
	// never appears as an object of its own kind in the change file.
	referencedCandidates := struct {
		nodes     IDSet
		ways      IDSet
		relations IDSet
	}{newIDSet(), newIDSet(), newIDSet()}

	for _, rec := range merged.Records {
		switch rec.Kind {
		case osm.KindNode:
			switch rec.Action() {
			case osm.ActionCreate:
				ws.Nodes.Created.Add(rec.ID)
			case osm.ActionDelete:
				ws.Nodes.Deleted.Add(rec.ID)
			case osm.ActionModify:
				nodeModifies[rec.ID] = nodeModify{loc: rec.Loc}
			}

		case osm.KindWay:
			switch rec.Action() {
			case osm.ActionCreate:
				ws.Ways.Created.Add(rec.ID)
			case osm.ActionDelete:
				ws.Ways.Deleted.Add(rec.ID)
			case osm.ActionModify:
				wayModifies[rec.ID] = wayModify{members: rec.Members}
			}
			for _, nodeID := range rec.Members {
				referencedCandidates.nodes.Add(nodeID)
			}

		case osm.KindRelation:
			switch rec.Action() {
			case osm.ActionCreate:
				ws.Relations.Created.Add(rec.ID)
			case osm.ActionDelete:
				ws.Relations.Deleted.Add(rec.ID)
			case osm.ActionModify:
				relationModifies[rec.ID] = relationModify{relType: rec.RelationType, members: rec.RelationMembers}
			}
			for _, m := range rec.RelationMembers {
				switch m.Kind {
				case osm.KindNode:
					referencedCandidates.nodes.Add(m.ID)
				case osm.KindWay:
					referencedCandidates.ways.Add(m.ID)
				case osm.KindRelation:
					referencedCandidates.relations.Add(m.ID)
				}
			}
		}
	}

	logging.Debug("classify: scan complete: %d node modifies, %d way modifies, %d relation modifies buffered",
		len(nodeModifies), len(wayModifies), len(relationModifies))

	dx = dx.Append(c.resolveNodes(ctx, ws, nodeModifies)...)
	dx = dx.Append(c.resolveWays(ctx, ws, wayModifies)...)
	dx = dx.Append(c.resolveRelations(ctx, ws, relationModifies)...)

	// ReferenceSet[k] = referencedCandidates[k] minus every id already in
	// any of kind k's WorkSet sets (spec.md §3 I3).
	nodeObjects := ws.Nodes.Union()
	for id := range referencedCandidates.nodes {
		if !nodeObjects.Has(id) {
			ws.ReferencedNodes.Add(id)
		}
	}
	wayObjects := ws.Ways.Union()
	for id := range referencedCandidates.ways {
		if !wayObjects.Has(id) {
			ws.ReferencedWays.Add(id)
		}
	}
	relationObjects := ws.Relations.Union()
	for id := range referencedCandidates.relations {
		if !relationObjects.Has(id) {
			ws.ReferencedRelations.Add(id)
		}
	}

	if !ws.Nodes.Disjoint() || !ws.Ways.Disjoint() || !ws.Relations.Disjoint() {
		dx = dx.Append(diags.New(diags.KindIntegrity,
			"classification produced overlapping work sets", nil))
	}

	return ws, dx
}

func (c *Classifier) batches(ids []osm.ID) [][]osm.ID {
	size := c.batchSize()
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
