package classify

import (
	"context"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/osm"
)

// RelationMembersResult is the endpoint's current state for one relation:
// its type tag and ordered member list.
type RelationMembersResult struct {
	Type    string
	Members osm.RelationMembers
}

// Fetcher is the subset of the remote data fetcher (C5) the post-pass needs
// to resolve a buffered modify against current endpoint state. Declared
// here, at the consumer, rather than in the fetcher package itself — the
// classifier only needs three of C5's many operations.
type Fetcher interface {
	// NodeLocations returns the current location of every node in ids that
	// the endpoint has state for; ids with no current state are simply
	// absent from the result map (spec.md §4.3 "if the endpoint has no
	// location, promote to createdNodes").
	NodeLocations(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.Location, diags.Diagnostics)

	// WayMembers returns the current ordered member list of every way in
	// ids that the endpoint has state for.
	WayMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.WayMembers, diags.Diagnostics)

	// RelationMembers returns the current type and ordered member list of
	// every relation in ids that the endpoint has state for.
	RelationMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]RelationMembersResult, diags.Diagnostics)
}
