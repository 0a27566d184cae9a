// Package filter implements the triple-relevance filter (C7): a single
// streaming pass over the RDF converter's output that decides, triple by
// triple, whether the triple belongs in the outgoing INSERT batch.
//
// Grounded on original_source/src/util/TtlHelper.cpp's predicate classifiers
// (isMetadataOrTagPredicate, isGeometryPredicate, hasRelevantObject) and
// original_source/include/osm/OsmChangeHandler.h's filterNodeTriple/
// filterWayTriple/filterRelationTriple, which thread a single "current link"
// string forward across lines to decide whether a blank-node chain spawned
// by a kept triple should itself be kept.
package filter

import (
	"bufio"
	"io"
	"strings"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/osm"
)

// RelevantIDs is the per-kind membership the filter keys its keep/drop
// decisions on (spec.md §4.7), derived from a completed WorkSets after
// discovery (C4) has populated GeometryDependentWays/Relations.
type RelevantIDs struct {
	// Nodes is kept in full: createdNodes ∪ modifiedStructureUnchanged[Node]
	// ∪ modifiedStructureChanged[Node]. Nodes have no tags-only tier.
	Nodes classify.IDSet

	// WaysFull/RelationsFull are kept in full: created ∪
	// modifiedStructureChanged ∪ geometryDependents, per kind.
	WaysFull      classify.IDSet
	RelationsFull classify.IDSet

	// WaysTagsOnly/RelationsTagsOnly are modifiedStructureUnchanged: only
	// tag/metadata/facts triples survive, geometry triples are dropped.
	WaysTagsOnly      classify.IDSet
	RelationsTagsOnly classify.IDSet
}

// FromWorkSets builds RelevantIDs from a classified, dependency-discovered
// WorkSets. The caller is expected to have already run classify.Run and
// discover.Run on ws.
func FromWorkSets(ws *classify.WorkSets) RelevantIDs {
	nodes := make(classify.IDSet)
	nodes.Union(ws.Nodes.Created)
	nodes.Union(ws.Nodes.ModifiedStructureUnchanged)
	nodes.Union(ws.Nodes.ModifiedStructureChanged)

	waysFull := make(classify.IDSet)
	waysFull.Union(ws.Ways.Created)
	waysFull.Union(ws.Ways.ModifiedStructureChanged)
	waysFull.Union(ws.GeometryDependentWays)

	relationsFull := make(classify.IDSet)
	relationsFull.Union(ws.Relations.Created)
	relationsFull.Union(ws.Relations.ModifiedStructureChanged)
	relationsFull.Union(ws.GeometryDependentRelations)

	return RelevantIDs{
		Nodes:             nodes,
		WaysFull:          waysFull,
		RelationsFull:     relationsFull,
		WaysTagsOnly:      ws.Ways.ModifiedStructureUnchanged,
		RelationsTagsOnly: ws.Relations.ModifiedStructureUnchanged,
	}
}

// keepMode is the per-object decision a primary subject line resolves to;
// every subsequent triple for that subject (and, for one level, any blank
// node it spawns) is filtered according to this mode until the next primary
// subject line is seen.
type keepMode int

const (
	modeDrop keepMode = iota
	modeTagsOnly
	modeFull
)

// Result is the filter's output: the deduplicated prefix declarations seen
// on the way in, and the relevant triples to insert, each rendered as a
// complete "s p o ." line ready to drop into an INSERT DATA block.
type Result struct {
	Prefixes []string
	Triples  []string
}

// Run scans r line by line and returns the relevant subset. r is the
// converter's output: a block of PREFIX declarations followed by one triple
// per line, each terminated with " .".
func Run(r io.Reader, ids RelevantIDs) (Result, error) {
	var res Result
	seenPrefix := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var cur state
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "PREFIX ") || strings.HasPrefix(line, "@prefix") {
			if _, ok := seenPrefix[line]; !ok {
				seenPrefix[line] = struct{}{}
				res.Prefixes = append(res.Prefixes, line)
			}
			continue
		}

		subject, predicate, object, ok := parseTriple(line)
		if !ok {
			continue
		}

		if kind, id, err := osm.ParseIdentifier(subject); err == nil {
			cur = newPrimaryState(kind, id, ids)
			if cur.mode == modeDrop {
				continue
			}
			if isSentinelTagTriple(cur.kind, predicate) {
				continue
			}
			if !keepPredicate(cur, predicate) {
				continue
			}
			res.Triples = append(res.Triples, line)
			if cur.mode == modeFull && isRelevantObjectPredicate(cur.kind, predicate) {
				cur.chainSubject = object
			}
			continue
		}

		// Not a primary subject line: only relevant if it continues the most
		// recently opened blank-node chain from a kept, fully-kept object.
		if cur.mode == modeFull && cur.chainSubject != "" && subject == cur.chainSubject {
			res.Triples = append(res.Triples, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

type state struct {
	kind         osm.Kind
	mode         keepMode
	chainSubject string
}

func newPrimaryState(kind osm.Kind, id osm.ID, ids RelevantIDs) state {
	switch kind {
	case osm.KindNode:
		if ids.Nodes.Has(id) {
			return state{kind: kind, mode: modeFull}
		}
		return state{kind: kind, mode: modeDrop}
	case osm.KindWay:
		if ids.WaysFull.Has(id) {
			return state{kind: kind, mode: modeFull}
		}
		if ids.WaysTagsOnly.Has(id) {
			return state{kind: kind, mode: modeTagsOnly}
		}
		return state{kind: kind, mode: modeDrop}
	case osm.KindRelation:
		if ids.RelationsFull.Has(id) {
			return state{kind: kind, mode: modeFull}
		}
		if ids.RelationsTagsOnly.Has(id) {
			return state{kind: kind, mode: modeTagsOnly}
		}
		return state{kind: kind, mode: modeDrop}
	default:
		return state{mode: modeDrop}
	}
}

// keepPredicate decides whether predicate survives for the current primary
// subject's mode. Nodes have no tags-only tier so modeFull is the only
// non-drop mode reaching this function for a node subject.
func keepPredicate(cur state, predicate string) bool {
	if cur.kind == osm.KindNode {
		return cur.mode == modeFull
	}
	if cur.mode == modeFull {
		return true
	}
	// modeTagsOnly: keep tag/metadata/facts predicates, drop geometry ones.
	return isMetadataOrTagPredicate(predicate)
}

func isMetadataOrTagPredicate(predicate string) bool {
	return strings.HasPrefix(predicate, osm.PrefixOSMKey+":") ||
		strings.HasPrefix(predicate, osm.PrefixOSMMeta+":") ||
		strings.HasPrefix(predicate, osm.PrefixedOSM2RDFFacts)
}

// isRelevantObjectPredicate reports whether predicate spawns a blank-node
// chain that must be followed one level when the anchoring subject is kept
// in full.
func isRelevantObjectPredicate(kind osm.Kind, predicate string) bool {
	switch predicate {
	case osm.PrefixedGeoHasCentroid, osm.PrefixedGeoHasGeometry:
		return true
	case osm.PrefixedWayMember:
		return kind == osm.KindWay
	case osm.PrefixedRelMember:
		return kind == osm.KindRelation
	default:
		return false
	}
}

func isSentinelTagTriple(kind osm.Kind, predicate string) bool {
	return kind == osm.KindWay && predicate == osm.SentinelTagPredicate
}

// parseTriple splits a "subject predicate object ." line into its three
// components. Subject and predicate never contain spaces in the converter's
// output, so indexing to the first two spaces is sufficient (mirrors
// TtlHelper::parseTriple's two-substr split).
func parseTriple(line string) (subject, predicate, object string, ok bool) {
	line = strings.TrimSuffix(strings.TrimRight(line, " \t"), " .")

	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return "", "", "", false
	}
	subject = line[:i]
	rest := line[i+1:]

	j := strings.IndexByte(rest, ' ')
	if j < 0 {
		return "", "", "", false
	}
	predicate = rest[:j]
	object = rest[j+1:]
	return subject, predicate, object, true
}
