// Package fetch implements the remote data fetcher (C5): the typed
// operations table of spec.md §4.5, each a single SPARQL query assembled
// from a template, a VALUES clause, and the relevant PREFIX declarations,
// batched with a configurable maximum ids per query.
package fetch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	hcversion "github.com/hashicorp/go-version"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/discover"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/osm"
	"github.com/ad-freiburg/olu/internal/sparql"
)

// MinimumOsm2RdfVersion is the oldest converter version this fetcher's
// query shapes are known to be compatible with (the osmway:member /
// osmrel:member blank-node hub layout changed before this release).
const MinimumOsm2RdfVersion = "0.6.0"

// DefaultBatchSize is used whenever a Fetcher is built without an explicit
// override; it bounds how many ids a single VALUES clause carries.
const DefaultBatchSize = 1000

// Fetcher wraps a sparql.Client and sparql.QueryWriter to implement every
// typed operation of spec.md §4.5. It satisfies classify.Fetcher directly,
// and discover.Fetcher through the adapter AsDiscoverFetcher returns, so
// C3/C4 can depend on their own narrow interfaces while this single concrete
// type serves both.
type Fetcher struct {
	Client    *sparql.Client
	Writer    sparql.QueryWriter
	BatchSize int
}

var _ classify.Fetcher = (*Fetcher)(nil)

// discoverAdapter adapts Fetcher to discover.Fetcher. Fetcher itself
// implements classify.Fetcher directly (both its RelationMembers and
// discover's RelationMembers take the same arguments but return distinct,
// structurally-identical result types declared separately at each
// consumer — spec.md §9's interfaces-over-inheritance note means Go can't
// have one method satisfy both signatures at once, so the discoverer gets
// this thin wrapper instead).
type discoverAdapter struct{ *Fetcher }

// AsDiscoverFetcher exposes f as a discover.Fetcher.
func (f *Fetcher) AsDiscoverFetcher() discover.Fetcher { return discoverAdapter{f} }

func (a discoverAdapter) RelationMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]discover.RelationMembersResult, diags.Diagnostics) {
	return a.Fetcher.RelationMembersForDiscovery(ctx, ids)
}

var _ discover.Fetcher = discoverAdapter{}

func (f *Fetcher) batchSize() int {
	if f.BatchSize > 0 {
		return f.BatchSize
	}
	return DefaultBatchSize
}

func (f *Fetcher) batches(ids []osm.ID) [][]osm.ID {
	size := f.batchSize()
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

// checkCardinality enforces spec.md §4.5's "a result cardinality strictly
// greater than the input set is a hard error (duplicate-row pathology)"
// rule for operations with a known 1-row-per-id upper bound.
func checkCardinality(rows, inputIDs int) *diags.Diagnostic {
	if rows > inputIDs {
		return diags.New(diags.KindIntegrity,
			"SPARQL endpoint returned more rows than requested ids",
			fmt.Errorf("got %d rows for %d ids", rows, inputIDs))
	}
	return nil
}

// NodeLocations implements classify.Fetcher and discover.Fetcher.
func (f *Fetcher) NodeLocations(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.Location, diags.Diagnostics) {
	var dx diags.Diagnostics
	out := make(map[osm.ID]osm.Location)
	for _, batch := range f.batches(ids) {
		query := f.Writer.WriteQueryForNodeLocations(batch)
		bindings, err := f.Client.Select(ctx, query)
		dx = dx.Append(err)
		if err != nil {
			continue
		}
		if cerr := checkCardinality(len(bindings), len(batch)); cerr != nil {
			dx = dx.Append(cerr)
			continue
		}
		for _, row := range bindings {
			_, id, perr := osm.ParseIdentifier(row["s"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed node subject in locations result", perr))
				continue
			}
			loc, ok := osm.ParseWKTPoint(row["wkt"])
			if !ok {
				dx = dx.Append(diags.New(diags.KindParse, "malformed WKT point in locations result", nil))
				continue
			}
			out[id] = loc
		}
	}
	return out, dx
}

// WayMembers implements classify.Fetcher and discover.Fetcher.
func (f *Fetcher) WayMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.WayMembers, diags.Diagnostics) {
	var dx diags.Diagnostics
	type posMember struct {
		pos    int
		nodeID osm.ID
	}
	members := make(map[osm.ID][]posMember)

	for _, batch := range f.batches(ids) {
		query := f.Writer.WriteQueryForWaysMembers(batch)
		bindings, err := f.Client.Select(ctx, query)
		dx = dx.Append(err)
		if err != nil {
			continue
		}
		for _, row := range bindings {
			_, wayID, perr := osm.ParseIdentifier(row["s"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed way subject in members result", perr))
				continue
			}
			_, nodeID, perr := osm.ParseIdentifier(row["memberId"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed member id in way members result", perr))
				continue
			}
			pos, perr := strconv.Atoi(row["pos"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed member position in way members result", perr))
				continue
			}
			members[wayID] = append(members[wayID], posMember{pos: pos, nodeID: nodeID})
		}
	}

	out := make(map[osm.ID]osm.WayMembers, len(members))
	for wayID, ms := range members {
		sort.Slice(ms, func(i, j int) bool { return ms[i].pos < ms[j].pos })
		ordered := make(osm.WayMembers, len(ms))
		for i, m := range ms {
			ordered[i] = m.nodeID
		}
		out[wayID] = ordered
	}
	return out, dx
}

// RelationMembers implements classify.Fetcher.
func (f *Fetcher) RelationMembers(ctx context.Context, ids []osm.ID) (map[osm.ID]classify.RelationMembersResult, diags.Diagnostics) {
	members, types, dx := f.relationMembersAndTypes(ctx, ids)
	out := make(map[osm.ID]classify.RelationMembersResult, len(members))
	for id, ms := range members {
		out[id] = classify.RelationMembersResult{Type: types[id], Members: ms}
	}
	return out, dx
}

// RelationMembersForDiscovery implements discover.Fetcher's RelationMembers.
func (f *Fetcher) RelationMembersForDiscovery(ctx context.Context, ids []osm.ID) (map[osm.ID]discover.RelationMembersResult, diags.Diagnostics) {
	members, types, dx := f.relationMembersAndTypes(ctx, ids)
	out := make(map[osm.ID]discover.RelationMembersResult, len(members))
	for id, ms := range members {
		out[id] = discover.RelationMembersResult{Type: types[id], Members: ms}
	}
	return out, dx
}

type posRoleMember struct {
	pos  int
	id   osm.ID
	kind osm.Kind
	role string
}

func (f *Fetcher) relationMembersAndTypes(ctx context.Context, ids []osm.ID) (map[osm.ID]osm.RelationMembers, map[osm.ID]string, diags.Diagnostics) {
	var dx diags.Diagnostics
	raw := make(map[osm.ID][]posRoleMember)

	for _, batch := range f.batches(ids) {
		query := f.Writer.WriteQueryForRelationMemberIds(batch)
		bindings, err := f.Client.Select(ctx, query)
		dx = dx.Append(err)
		if err != nil {
			continue
		}
		for _, row := range bindings {
			_, relID, perr := osm.ParseIdentifier(row["s"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed relation subject in members result", perr))
				continue
			}
			memberKind, memberID, perr := osm.ParseIdentifier(row["memberId"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed member id in relation members result", perr))
				continue
			}
			pos, perr := strconv.Atoi(row["pos"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed member position in relation members result", perr))
				continue
			}
			raw[relID] = append(raw[relID], posRoleMember{pos: pos, id: memberID, kind: memberKind, role: row["role"]})
		}
	}

	members := make(map[osm.ID]osm.RelationMembers, len(raw))
	for relID, ms := range raw {
		sort.Slice(ms, func(i, j int) bool { return ms[i].pos < ms[j].pos })
		ordered := make(osm.RelationMembers, len(ms))
		for i, m := range ms {
			ordered[i] = osm.RelationMember{ID: m.id, Kind: m.kind, Role: m.role}
		}
		members[relID] = ordered
	}

	types := make(map[osm.ID]string, len(ids))
	for _, batch := range f.batches(ids) {
		query := f.Writer.WriteQueryForRelationTypes(batch)
		bindings, err := f.Client.Select(ctx, query)
		dx = dx.Append(err)
		if err != nil {
			continue
		}
		for _, row := range bindings {
			_, relID, perr := osm.ParseIdentifier(row["s"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed relation subject in types result", perr))
				continue
			}
			types[relID] = row["type"]
		}
	}

	return members, types, dx
}

// WaysReferencingNodes implements discover.Fetcher.
func (f *Fetcher) WaysReferencingNodes(ctx context.Context, nodeIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	return f.distinctSubjects(ctx, nodeIDs, f.Writer.WriteQueryForWaysReferencingNodes)
}

// RelationsReferencingNodes implements discover.Fetcher.
func (f *Fetcher) RelationsReferencingNodes(ctx context.Context, nodeIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	return f.distinctSubjects(ctx, nodeIDs, f.Writer.WriteQueryForRelationsReferencingNodes)
}

// RelationsReferencingWays implements discover.Fetcher.
func (f *Fetcher) RelationsReferencingWays(ctx context.Context, wayIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	return f.distinctSubjects(ctx, wayIDs, f.Writer.WriteQueryForRelationsReferencingWays)
}

// RelationsReferencingRelations implements discover.Fetcher.
func (f *Fetcher) RelationsReferencingRelations(ctx context.Context, relationIDs []osm.ID) ([]osm.ID, diags.Diagnostics) {
	return f.distinctSubjects(ctx, relationIDs, f.Writer.WriteQueryForRelationsReferencingRelations)
}

func (f *Fetcher) distinctSubjects(ctx context.Context, ids []osm.ID, build func([]osm.ID) string) ([]osm.ID, diags.Diagnostics) {
	var dx diags.Diagnostics
	var out []osm.ID
	for _, batch := range f.batches(ids) {
		query := build(batch)
		bindings, err := f.Client.Select(ctx, query)
		dx = dx.Append(err)
		if err != nil {
			continue
		}
		for _, row := range bindings {
			_, id, perr := osm.ParseIdentifier(row["s"])
			if perr != nil {
				dx = dx.Append(diags.New(diags.KindParse, "malformed subject in referencing-ids result", perr))
				continue
			}
			out = append(out, id)
		}
	}
	return out, dx
}

// LatestTimestamp implements the latestTimestamp() operation of spec.md
// §4.5: the most recent osmmeta:timestamp across all objects, or a no-data
// diagnostic if the endpoint has no objects at all.
func (f *Fetcher) LatestTimestamp(ctx context.Context) (time.Time, *diags.Diagnostic) {
	query := f.Writer.WriteQueryForLatestTimestamp()
	bindings, err := f.Client.Select(ctx, query)
	if err != nil {
		return time.Time{}, err
	}
	if len(bindings) == 0 {
		return time.Time{}, diags.New(diags.KindData, "endpoint has no data to derive a latest timestamp from", nil)
	}
	ts, perr := osm.ParseTimestamp(bindings[0]["t"])
	if perr != nil {
		return time.Time{}, diags.New(diags.KindParse, "malformed timestamp in latestTimestamp result", perr)
	}
	return ts.Time(), nil
}

// UpdatesCompleteUntil implements the updatesCompleteUntil() operation: the
// persisted watermark, or a sentinel zero value (caller checks `ok`) when no
// watermark triple is present yet.
func (f *Fetcher) UpdatesCompleteUntil(ctx context.Context) (seq int64, ok bool, dx *diags.Diagnostic) {
	query := f.Writer.WriteQueryForUpdatesCompleteUntil()
	bindings, err := f.Client.Select(ctx, query)
	if err != nil {
		return 0, false, err
	}
	if len(bindings) == 0 {
		return 0, false, nil
	}
	n, perr := strconv.ParseInt(bindings[0]["seq"], 10, 64)
	if perr != nil {
		return 0, false, diags.New(diags.KindParse, "malformed watermark sequence number", perr)
	}
	return n, true, nil
}

// Osm2RdfVersion implements the osm2rdfVersion() operation: warn-only, so a
// missing or malformed value never aborts the run. The returned version is
// also checked against MinimumOsm2RdfVersion using semantic-version
// comparison; an older or unparseable converter version only produces a
// warning, since the run can still attempt the update.
func (f *Fetcher) Osm2RdfVersion(ctx context.Context) (string, *diags.Diagnostic) {
	bindings, err := f.Client.Select(ctx, f.Writer.WriteQueryForOsm2RdfVersion())
	if err != nil {
		return "", diags.Warn(diags.KindData, "could not read converter version metadata", err)
	}
	if len(bindings) == 0 {
		logging.Warn("fetch: no osm2rdf version metadata present on endpoint")
		return "", nil
	}
	raw := bindings[0]["version"]
	f.warnIfOsm2RdfVersionTooOld(raw)
	return raw, nil
}

func (f *Fetcher) warnIfOsm2RdfVersionTooOld(raw string) {
	seen, err := hcversion.NewVersion(raw)
	if err != nil {
		logging.Warn("fetch: endpoint's osm2rdf version %q is not a parseable semantic version", raw)
		return
	}
	minimum := hcversion.Must(hcversion.NewVersion(MinimumOsm2RdfVersion))
	if seen.LessThan(minimum) {
		logging.Warn("fetch: endpoint's osm2rdf version %s is older than the minimum known-compatible version %s", seen, minimum)
	}
}

// Osm2RdfOptions implements the osm2rdfOptions() operation: warn-only.
func (f *Fetcher) Osm2RdfOptions(ctx context.Context) (string, *diags.Diagnostic) {
	bindings, err := f.Client.Select(ctx, f.Writer.WriteQueryForOsm2RdfOptions())
	if err != nil {
		return "", diags.Warn(diags.KindData, "could not read converter options metadata", err)
	}
	if len(bindings) == 0 {
		logging.Warn("fetch: no osm2rdf options metadata present on endpoint")
		return "", nil
	}
	return bindings[0]["options"], nil
}
