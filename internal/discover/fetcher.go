// Package discover implements the reference discoverer (C4): the outward
// closure from a classified WorkSets to the full set of ids whose data must
// be fetched and, where absent from the change file, synthesized before the
// converter can run.
package discover

import (
	"context"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/osm"
)

// RelationMembersResult is the endpoint's current type tag and ordered
// member list for one relation. Declared again here, at this consumer,
// rather than imported from internal/classify — each stage's Fetcher
// interface names only what that stage needs (spec.md §9).
type RelationMembersResult struct {
	Type    string
	Members osm.RelationMembers
}

// Fetcher is the subset of the remote data fetcher (C5) the reference
// discoverer needs: the three referencing-closure lookups, plus the three
// per-kind data lookups needed to materialize synthetic records for newly
// discovered reference ids.
type Fetcher interface {
	WaysReferencingNodes(ctx context.Context, nodeIDs []osm.ID) ([]osm.ID, diags.Diagnostics)
	RelationsReferencingNodes(ctx context.Context, nodeIDs []osm.ID) ([]osm.ID, diags.Diagnostics)
	RelationsReferencingWays(ctx context.Context, wayIDs []osm.ID) ([]osm.ID, diags.Diagnostics)
	RelationsReferencingRelations(ctx context.Context, relationIDs []osm.ID) ([]osm.ID, diags.Diagnostics)

	NodeLocations(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.Location, diags.Diagnostics)
	WayMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.WayMembers, diags.Diagnostics)
	RelationMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]RelationMembersResult, diags.Diagnostics)
}
