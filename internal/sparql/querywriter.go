package sparql

import (
	"fmt"
	"strings"

	"github.com/ad-freiburg/olu/internal/osm"
)

// QueryWriter assembles SPARQL query bodies from a template plus a VALUES
// clause and the relevant PREFIX declarations, mirroring the method
// catalogue of the original QueryWriter: one function per operation in the
// C5/C8 tables, each built from the same small set of clause helpers rather
// than ad hoc string concatenation at every call site.
type QueryWriter struct {
	// GraphIRI, if non-empty, scopes every query to GRAPH <GraphIRI> { ... }.
	GraphIRI string
}

func (w QueryWriter) wrapWithGraphOptional(clause string) string {
	if w.GraphIRI == "" {
		return clause
	}
	return fmt.Sprintf("GRAPH <%s> { %s }", w.GraphIRI, clause)
}

func prefixBlock() string {
	return strings.Join(osm.DefaultPrefixes, "\n")
}

func valuesClauseIRI(varName string, k osm.Kind, ids []osm.ID) string {
	var b strings.Builder
	b.WriteString("VALUES ?")
	b.WriteString(varName)
	b.WriteString(" { ")
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(osm.WrappedIRI(k, id))
	}
	b.WriteString(" }")
	return b.String()
}

// WriteInsertQuery builds "INSERT DATA { <prefixes are a separate concern;
// triples only> }" from a batch of already-formatted triple strings.
func (w QueryWriter) WriteInsertQuery(prefixes []string, triples []string) string {
	var b strings.Builder
	for _, p := range prefixes {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	b.WriteString("INSERT DATA {\n")
	for _, t := range triples {
		b.WriteString("  ")
		b.WriteString(t)
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}

// deleteOneHop builds the generic one-level-of-blank-node-follow delete
// pattern shared by every "full delete" family of queries (spec.md §6):
// DELETE { ?s ?p1 ?o1 . ?o1 ?p2 ?o2 } WHERE { VALUES ?s {...} ?s ?p1 ?o1 .
// OPTIONAL { ?o1 ?p2 ?o2 } }, optionally scoped to a predicate set.
func (w QueryWriter) deleteOneHop(k osm.Kind, ids []osm.ID, predicateScope []string) string {
	values := valuesClauseIRI("s", k, ids)
	var scopeFilter string
	if len(predicateScope) > 0 {
		quoted := make([]string, len(predicateScope))
		for i, p := range predicateScope {
			quoted[i] = p
		}
		scopeFilter = fmt.Sprintf(" VALUES ?p1 { %s }", strings.Join(quoted, " "))
	}
	inner := fmt.Sprintf("%s ?s ?p1 ?o1 .%s OPTIONAL { ?o1 ?p2 ?o2 }", values, scopeFilter)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nDELETE { ?s ?p1 ?o1 . ?o1 ?p2 ?o2 }\nWHERE { %s }", prefixBlock(), where)
}

// WriteDeleteOsmObjectQuery fully deletes every triple for the given objects
// and one level of blank-node follow (geometry/member hubs), per spec.md
// §4.8 delete-query family 1.
func (w QueryWriter) WriteDeleteOsmObjectQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, nil)
}

// WriteDeleteOsmObjectGeometryQuery scopes the delete to geometry
// predicates only, used for geometryDependents (spec.md §4.8 family 3).
func (w QueryWriter) WriteDeleteOsmObjectGeometryQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{
		osm.WrappedPredicate(osm.PrefixedGeoHasGeometry),
		osm.WrappedPredicate(osm.PrefixedGeoHasCentroid),
		osm.WrappedPredicate(osm.PrefixedOSM2RDFArea),
		osm.WrappedPredicate(osm.PrefixedOSM2RDFLength),
	})
}

// WriteDeleteOsmObjectCentroidQuery scopes the delete to the centroid hub.
func (w QueryWriter) WriteDeleteOsmObjectCentroidQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{osm.WrappedPredicate(osm.PrefixedGeoHasCentroid)})
}

// WriteDeleteOsmObjectOBBQuery scopes the delete to the oriented-bounding-box
// predicate.
func (w QueryWriter) WriteDeleteOsmObjectOBBQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{osm.WrappedPredicate(osm.PrefixedName(osm.PrefixOSM2RDFGeom, osm.NameOBB))})
}

// WriteDeleteOsmObjectEnvelopeQuery scopes the delete to the envelope
// predicate.
func (w QueryWriter) WriteDeleteOsmObjectEnvelopeQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{osm.WrappedPredicate(osm.PrefixedName(osm.PrefixOSM2RDFGeom, osm.NameEnvelope))})
}

// WriteDeleteOsmObjectConvexHullQuery scopes the delete to the convex-hull
// predicate.
func (w QueryWriter) WriteDeleteOsmObjectConvexHullQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{osm.WrappedPredicate(osm.PrefixedName(osm.PrefixOSM2RDFGeom, osm.NameConvexHull))})
}

// WriteDeleteOsmObjectLengthQuery scopes the delete to the length predicate.
func (w QueryWriter) WriteDeleteOsmObjectLengthQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{osm.WrappedPredicate(osm.PrefixedOSM2RDFLength)})
}

// WriteDeleteOsmObjectAreaQuery scopes the delete to the area predicate.
func (w QueryWriter) WriteDeleteOsmObjectAreaQuery(k osm.Kind, ids []osm.ID) string {
	return w.deleteOneHop(k, ids, []string{osm.WrappedPredicate(osm.PrefixedOSM2RDFArea)})
}

// WriteDeleteTagsAndMetaQuery scopes the delete to tag/metadata/facts
// predicates, used for modifiedStructureUnchanged ways/relations (spec.md
// §4.8 family 2): their geometry must survive untouched.
func (w QueryWriter) WriteDeleteTagsAndMetaQuery(k osm.Kind, ids []osm.ID) string {
	values := valuesClauseIRI("s", k, ids)
	inner := fmt.Sprintf(
		"%s ?s ?p1 ?o1 . FILTER(STRSTARTS(STR(?p1), \"%s\") || STRSTARTS(STR(?p1), \"%s\") || ?p1 = %s)",
		values, osm.NamespaceOSMKey, osm.NamespaceOSMMeta, osm.WrappedPredicate(osm.PrefixedOSM2RDFFacts),
	)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nDELETE { ?s ?p1 ?o1 }\nWHERE { %s }", prefixBlock(), where)
}

// WriteDeleteWayMemberQuery removes the osmway:member blank-node hubs for
// structure-changed ways (spec.md §4.8 family 4).
func (w QueryWriter) WriteDeleteWayMemberQuery(ids []osm.ID) string {
	return w.deleteMemberHub(osm.KindWay, ids, osm.PrefixedWayMember)
}

// WriteDeleteRelMemberQuery removes the osmrel:member blank-node hubs for
// structure-changed relations (spec.md §4.8 family 4).
func (w QueryWriter) WriteDeleteRelMemberQuery(ids []osm.ID) string {
	return w.deleteMemberHub(osm.KindRelation, ids, osm.PrefixedRelMember)
}

func (w QueryWriter) deleteMemberHub(k osm.Kind, ids []osm.ID, memberPredicate string) string {
	values := valuesClauseIRI("s", k, ids)
	inner := fmt.Sprintf("%s ?s %s ?o1 . OPTIONAL { ?o1 ?p2 ?o2 }", values, osm.WrappedPredicate(memberPredicate))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nDELETE { ?s %s ?o1 . ?o1 ?p2 ?o2 }\nWHERE { %s }", prefixBlock(), osm.WrappedPredicate(memberPredicate), where)
}

// WriteQueryForNodeLocations builds the SELECT for current node locations in
// WKT form.
func (w QueryWriter) WriteQueryForNodeLocations(ids []osm.ID) string {
	values := valuesClauseIRI("s", osm.KindNode, ids)
	inner := fmt.Sprintf("%s ?s %s ?wkt .", values, osm.WrappedPredicate(osm.PrefixedGeoAsWKT))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?s ?wkt WHERE { %s }", prefixBlock(), where)
}

// WriteQueryForLatestTimestamp builds the SELECT for the most recent
// osmmeta:timestamp value across all objects.
func (w QueryWriter) WriteQueryForLatestTimestamp() string {
	inner := fmt.Sprintf("?s %s ?t .", osm.WrappedPredicate(osm.PrefixedOSMMetaTimestamp))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?t WHERE { %s } ORDER BY DESC(?t) LIMIT 1", prefixBlock(), where)
}

// WriteQueryForWaysMembers builds the SELECT for a way's ordered member node
// ids and their position.
func (w QueryWriter) WriteQueryForWaysMembers(ids []osm.ID) string {
	values := valuesClauseIRI("s", osm.KindWay, ids)
	inner := fmt.Sprintf(
		"%s ?s %s ?hub . ?hub %s ?memberId . ?hub %s ?pos .",
		values, osm.WrappedPredicate(osm.PrefixedWayMember),
		osm.WrappedPredicate(osm.PrefixedName("osmway", osm.NameMemberID)),
		osm.WrappedPredicate(osm.PrefixedName("osmway", osm.NameMemberPos)),
	)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?s ?memberId ?pos WHERE { %s } ORDER BY ?s ?pos", prefixBlock(), where)
}

// WriteQueryForReferencedNodes builds the SELECT for all node ids referenced
// by the given ways (spec.md §4.5 waysMembers reuse for discovery).
func (w QueryWriter) WriteQueryForReferencedNodes(wayIDs []osm.ID) string {
	return w.WriteQueryForWaysMembers(wayIDs)
}

// WriteQueryForRelationMemberIds builds the SELECT for a relation's ordered
// member (id, kind, role) triples.
func (w QueryWriter) WriteQueryForRelationMemberIds(ids []osm.ID) string {
	values := valuesClauseIRI("s", osm.KindRelation, ids)
	inner := fmt.Sprintf(
		"%s ?s %s ?hub . ?hub %s ?memberId . ?hub %s ?pos . ?hub %s ?role .",
		values, osm.WrappedPredicate(osm.PrefixedRelMember),
		osm.WrappedPredicate(osm.PrefixedName("osmrel", osm.NameMemberID)),
		osm.WrappedPredicate(osm.PrefixedName("osmrel", osm.NameMemberPos)),
		osm.WrappedPredicate(osm.PrefixedName("osmrel", osm.NameMemberRole)),
	)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?s ?memberId ?pos ?role WHERE { %s } ORDER BY ?s ?pos", prefixBlock(), where)
}

// WriteQueryForRelationTypes builds the SELECT for a relation's "type" tag
// value (e.g. "multipolygon", "boundary"), used alongside
// WriteQueryForRelationMemberIds to assemble the full relationMembers()
// operation result of spec.md §4.5.
func (w QueryWriter) WriteQueryForRelationTypes(ids []osm.ID) string {
	values := valuesClauseIRI("s", osm.KindRelation, ids)
	inner := fmt.Sprintf("%s ?s %s ?type .", values, osm.WrappedPredicate(osm.PrefixedOSMKeyType))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?s ?type WHERE { %s }", prefixBlock(), where)
}

// WriteQueryForWaysReferencingNodes builds the SELECT for every way that has
// any of the given nodes as a member.
func (w QueryWriter) WriteQueryForWaysReferencingNodes(nodeIDs []osm.ID) string {
	values := valuesClauseIRI("n", osm.KindNode, nodeIDs)
	inner := fmt.Sprintf(
		"%s ?s %s ?hub . ?hub %s ?n .",
		values, osm.WrappedPredicate(osm.PrefixedWayMember),
		osm.WrappedPredicate(osm.PrefixedName("osmway", osm.NameMemberID)),
	)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT DISTINCT ?s WHERE { %s }", prefixBlock(), where)
}

// WriteQueryForRelationsReferencingNodes builds the SELECT for every
// relation that references any of the given nodes.
func (w QueryWriter) WriteQueryForRelationsReferencingNodes(nodeIDs []osm.ID) string {
	return w.relationsReferencing("n", osm.KindNode, nodeIDs)
}

// WriteQueryForRelationsReferencingWays builds the SELECT for every relation
// that references any of the given ways.
func (w QueryWriter) WriteQueryForRelationsReferencingWays(wayIDs []osm.ID) string {
	return w.relationsReferencing("w", osm.KindWay, wayIDs)
}

// WriteQueryForRelationsReferencingRelations builds the SELECT for every
// relation that references any of the given relations.
func (w QueryWriter) WriteQueryForRelationsReferencingRelations(relationIDs []osm.ID) string {
	return w.relationsReferencing("r", osm.KindRelation, relationIDs)
}

func (w QueryWriter) relationsReferencing(varName string, k osm.Kind, ids []osm.ID) string {
	values := valuesClauseIRI(varName, k, ids)
	memberVar := "?" + varName
	inner := fmt.Sprintf(
		"%s ?s %s ?hub . ?hub %s %s .",
		values, osm.WrappedPredicate(osm.PrefixedRelMember),
		osm.WrappedPredicate(osm.PrefixedName("osmrel", osm.NameMemberID)), memberVar,
	)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT DISTINCT ?s WHERE { %s }", prefixBlock(), where)
}

// WriteQueryForOsm2RdfVersion builds the SELECT for the converter version
// metadata triple.
func (w QueryWriter) WriteQueryForOsm2RdfVersion() string {
	inner := fmt.Sprintf("?s %s ?version .", osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaVersion))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?version WHERE { %s } LIMIT 1", prefixBlock(), where)
}

// WriteQueryForOsm2RdfOptions builds the SELECT for the converter's
// recorded invocation options metadata triple.
func (w QueryWriter) WriteQueryForOsm2RdfOptions() string {
	inner := fmt.Sprintf("?s %s ?options .", osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaOption))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?options WHERE { %s } LIMIT 1", prefixBlock(), where)
}

// WriteQueryForUpdatesCompleteUntil builds the SELECT for the persisted
// watermark triple.
func (w QueryWriter) WriteQueryForUpdatesCompleteUntil() string {
	inner := fmt.Sprintf("?s %s ?seq .", osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaUpdatesCompleteUntil))
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf("%s\nSELECT ?seq WHERE { %s } LIMIT 1", prefixBlock(), where)
}

// WriteDeleteWatermarkQuery deletes the current watermark pair so the
// commit transaction (spec.md §4.8) can insert the new one. The watermark
// subject is always osm2rdfmeta:info, a fixed node rather than one derived
// from any OSM object id, so unlike the delete/insert queries elsewhere in
// this file it takes no subject parameter.
func (w QueryWriter) WriteDeleteWatermarkQuery() string {
	inner := fmt.Sprintf(
		"%s %s ?seq . OPTIONAL { %s %s ?mod }",
		osm.PrefixedOSM2RDFMetaInfo, osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaUpdatesCompleteUntil),
		osm.PrefixedOSM2RDFMetaInfo, osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaDateModified),
	)
	where := w.wrapWithGraphOptional(inner)
	return fmt.Sprintf(
		"%s\nDELETE { %s %s ?seq . %s %s ?mod }\nWHERE { %s }",
		prefixBlock(), osm.PrefixedOSM2RDFMetaInfo, osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaUpdatesCompleteUntil),
		osm.PrefixedOSM2RDFMetaInfo, osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaDateModified), where,
	)
}

// WriteInsertWatermarkQuery inserts the new watermark pair: the sequence
// number and the wall-clock modification timestamp, both attached to the
// fixed osm2rdfmeta:info subject.
func (w QueryWriter) WriteInsertWatermarkQuery(seq int64, modifiedISO string) string {
	triples := []string{
		fmt.Sprintf("%s %s \"%d\"%s .", osm.PrefixedOSM2RDFMetaInfo, osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaUpdatesCompleteUntil), seq, osm.XSDInteger),
		fmt.Sprintf("%s %s \"%s\"%s .", osm.PrefixedOSM2RDFMetaInfo, osm.WrappedPredicate(osm.PrefixedOSM2RDFMetaDateModified), modifiedISO, osm.XSDDateTime),
	}
	return w.WriteInsertQuery(nil, triples)
}
