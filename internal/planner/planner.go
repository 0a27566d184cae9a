// Package planner implements the SPARQL update planner (C8): it turns a
// classified WorkSets and a filtered triple set into the ordered sequence
// of batched DELETE queries, the batched INSERT queries, and the final
// watermark commit transaction, per spec.md §4.8.
package planner

import (
	"context"
	"fmt"
	"io"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/collections"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/filter"
	"github.com/ad-freiburg/olu/internal/osm"
	"github.com/ad-freiburg/olu/internal/sparql"
)

// OutputMode chooses what happens to a generated query, mirroring
// config::SparqlOutput's ENDPOINT/FILE/DEBUG_FILE enum in original_source.
type OutputMode int

const (
	// OutputEndpoint posts every query to the SPARQL endpoint.
	OutputEndpoint OutputMode = iota
	// OutputFile appends every query to Out without executing it against
	// the endpoint, for generating an update script to review or replay.
	OutputFile
	// OutputDebugFile posts every query to the endpoint and appends both
	// the query and its response to Out.
	OutputDebugFile
)

// Planner drives the delete/insert/watermark query sequence for one run.
type Planner struct {
	Client    *sparql.Client
	Writer    sparql.QueryWriter
	BatchSize int
	Mode      OutputMode
	// Out receives query text (and, in OutputDebugFile, responses) when
	// Mode is OutputFile or OutputDebugFile. Unused for OutputEndpoint.
	Out io.Writer
}

func (p *Planner) batchSize() int {
	if p.BatchSize <= 0 {
		return 1000
	}
	return p.BatchSize
}

// execute runs one update query according to Mode, accumulating
// diagnostics rather than stopping at the first failure (spec.md §7).
func (p *Planner) execute(ctx context.Context, query string) diags.Diagnostics {
	var dx diags.Diagnostics
	switch p.Mode {
	case OutputFile:
		fmt.Fprintf(p.Out, "%s\n\n", query)
	case OutputDebugFile:
		resp, d := p.Client.UpdateWithResponse(ctx, query)
		dx = dx.Append(d)
		fmt.Fprintf(p.Out, "%s\n-- response --\n%s\n\n", query, resp)
	default:
		dx = dx.Append(p.Client.Update(ctx, query))
	}
	return dx
}

// fullDeleteIDs is the full-delete target for one kind: deleted ∪
// modifiedStructureChanged ∪ created. Created is included as a defensive
// superset of spec.md §4.8's "createdEffectivelyModified" (a modify
// promoted to create because the endpoint had no current state for it,
// see classify.resolveNodes/resolveWays): classify does not separately
// track which Created ids are promotions versus genuine first-sight
// objects, and a DELETE...WHERE against ids the endpoint never held is a
// no-op, so folding all of Created in is behaviorally identical while
// needing no extra state in classify.WorkSet.
func fullDeleteIDs(ws classify.WorkSet) classify.IDSet {
	out := make(classify.IDSet)
	out.Union(ws.Deleted)
	out.Union(ws.ModifiedStructureChanged)
	out.Union(ws.Created)
	return out
}

// DeletePhase issues every delete-query family of spec.md §4.8, in order:
// full delete, tags+meta delete, geometry-only delete, member-triple
// delete.
func (p *Planner) DeletePhase(ctx context.Context, ws *classify.WorkSets) diags.Diagnostics {
	var dx diags.Diagnostics

	for _, kw := range []struct {
		kind osm.Kind
		set  classify.WorkSet
	}{
		{osm.KindNode, ws.Nodes},
		{osm.KindWay, ws.Ways},
		{osm.KindRelation, ws.Relations},
	} {
		ids := fullDeleteIDs(kw.set).Slice()
		for _, batch := range collections.Chunk(ids, p.batchSize()) {
			dx = dx.Append(p.execute(ctx, p.Writer.WriteDeleteOsmObjectQuery(kw.kind, batch))...)
		}
	}

	for _, kw := range []struct {
		kind osm.Kind
		set  classify.IDSet
	}{
		{osm.KindWay, ws.Ways.ModifiedStructureUnchanged},
		{osm.KindRelation, ws.Relations.ModifiedStructureUnchanged},
	} {
		ids := kw.set.Slice()
		for _, batch := range collections.Chunk(ids, p.batchSize()) {
			dx = dx.Append(p.execute(ctx, p.Writer.WriteDeleteTagsAndMetaQuery(kw.kind, batch))...)
		}
	}

	for _, kw := range []struct {
		kind osm.Kind
		set  classify.IDSet
	}{
		{osm.KindWay, ws.GeometryDependentWays},
		{osm.KindRelation, ws.GeometryDependentRelations},
	} {
		ids := kw.set.Slice()
		for _, batch := range collections.Chunk(ids, p.batchSize()) {
			dx = dx.Append(p.execute(ctx, p.Writer.WriteDeleteOsmObjectGeometryQuery(kw.kind, batch))...)
		}
	}

	wayIDs := ws.Ways.ModifiedStructureChanged.Slice()
	for _, batch := range collections.Chunk(wayIDs, p.batchSize()) {
		dx = dx.Append(p.execute(ctx, p.Writer.WriteDeleteWayMemberQuery(batch))...)
	}
	relIDs := ws.Relations.ModifiedStructureChanged.Slice()
	for _, batch := range collections.Chunk(relIDs, p.batchSize()) {
		dx = dx.Append(p.execute(ctx, p.Writer.WriteDeleteRelMemberQuery(batch))...)
	}

	return dx
}

// InsertPhase issues one INSERT DATA query per batch of at most BatchSize
// relevant triples, each prefixed by the full set of prefixes the filter
// collected (spec.md §4.8).
func (p *Planner) InsertPhase(ctx context.Context, result filter.Result) diags.Diagnostics {
	var dx diags.Diagnostics
	for _, batch := range collections.Chunk(result.Triples, p.batchSize()) {
		dx = dx.Append(p.execute(ctx, p.Writer.WriteInsertQuery(result.Prefixes, batch))...)
	}
	return dx
}

// CommitWatermark deletes the prior updatesCompleteUntil/dateModified pair
// and inserts the new one. This is the run's single commit point (spec.md
// §4.8): it must run only after InsertPhase has fully succeeded. It returns
// the diagnostics of both queries; the driver adds the watermark's last
// known-safe value when it reports a failure here (spec.md §4.9).
func (p *Planner) CommitWatermark(ctx context.Context, seq int64, modifiedISO string) diags.Diagnostics {
	var dx diags.Diagnostics
	dx = dx.Append(p.execute(ctx, p.Writer.WriteDeleteWatermarkQuery())...)
	dx = dx.Append(p.execute(ctx, p.Writer.WriteInsertWatermarkQuery(seq, modifiedISO))...)
	return dx
}
