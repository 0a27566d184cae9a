// Package stats implements the statistics and timing component (C10): a
// set of per-kind object counters plus per-stage wall-clock durations,
// logged as the run progresses and printed as a final summary.
//
// Grounded on original_source/include/osm/StatisticsHandler.h's counter and
// start/end timer pairs, reshaped as a single closure-based Time helper
// (idiomatic Go favors "measure while running fn" over manual
// startTimeX()/endTimeX() pairs) and go.uber.org/zap structured logging in
// place of the original's printOsmStatistics()-style stdout dump.
package stats

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ad-freiburg/olu/internal/classify"
)

// Stage names one phase of the driver's state machine (spec.md §4.9), used
// both as the structured-logging field value and as the stats table's row
// label.
type Stage string

const (
	StageDetermineStart    Stage = "determine_start"
	StageFetchChangeFiles  Stage = "fetch_change_files"
	StageMerge             Stage = "merge_change_files"
	StageClassify          Stage = "classify"
	StageDiscover          Stage = "discover_dependents"
	StageFetchReferences   Stage = "fetch_references"
	StageSynthesizeDummies Stage = "synthesize_dummies"
	StageConvert           Stage = "osm2rdf_conversion"
	StageFilter            Stage = "filter_triples"
	StageDelete            Stage = "delete_phase"
	StageInsert            Stage = "insert_phase"
	StageCommitWatermark   Stage = "commit_watermark"
)

var stageOrder = []Stage{
	StageDetermineStart, StageFetchChangeFiles, StageMerge, StageClassify,
	StageDiscover, StageFetchReferences, StageSynthesizeDummies, StageConvert,
	StageFilter, StageDelete, StageInsert, StageCommitWatermark,
}

// Counts is the per-kind/per-family counter set, flattened from the
// original's many countX()/setX() methods into plain fields.
type Counts struct {
	CreatedNodes, ModifiedNodes, DeletedNodes          int
	CreatedWays, ModifiedWays, DeletedWays             int
	CreatedRelations, ModifiedRelations, DeletedRelations int

	ReferencedNodes, ReferencedWays, ReferencedRelations int
	GeometryDependentWays, GeometryDependentRelations    int

	ConvertedTriples, InsertedTriples int
	Queries, DeleteOps, InsertOps     int
}

// FromWorkSets populates the per-kind object counts from a classified,
// dependency-discovered WorkSets.
func (c *Counts) FromWorkSets(ws *classify.WorkSets) {
	c.CreatedNodes = len(ws.Nodes.Created)
	c.ModifiedNodes = len(ws.Nodes.ModifiedStructureUnchanged) + len(ws.Nodes.ModifiedStructureChanged)
	c.DeletedNodes = len(ws.Nodes.Deleted)

	c.CreatedWays = len(ws.Ways.Created)
	c.ModifiedWays = len(ws.Ways.ModifiedStructureUnchanged) + len(ws.Ways.ModifiedStructureChanged)
	c.DeletedWays = len(ws.Ways.Deleted)

	c.CreatedRelations = len(ws.Relations.Created)
	c.ModifiedRelations = len(ws.Relations.ModifiedStructureUnchanged) + len(ws.Relations.ModifiedStructureChanged)
	c.DeletedRelations = len(ws.Relations.Deleted)

	c.ReferencedNodes = len(ws.ReferencedNodes)
	c.ReferencedWays = len(ws.ReferencedWays)
	c.ReferencedRelations = len(ws.ReferencedRelations)
	c.GeometryDependentWays = len(ws.GeometryDependentWays)
	c.GeometryDependentRelations = len(ws.GeometryDependentRelations)
}

// Stats accumulates Counts plus per-stage timings across one run.
type Stats struct {
	Counts         Counts
	StartSequence  int64
	LatestSequence int64

	log       *zap.Logger
	durations map[Stage]time.Duration
	total     time.Duration
}

// New builds a Stats that logs stage completions through log. A nil log
// uses zap.NewNop(), so callers that don't care about structured logging
// (most tests) can omit it.
func New(log *zap.Logger) *Stats {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stats{log: log, durations: make(map[Stage]time.Duration)}
}

// Time runs fn, recording its wall-clock duration under stage and logging
// the outcome. Stages that run more than once in a run (none currently do)
// accumulate rather than overwrite.
func (s *Stats) Time(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	s.durations[stage] += elapsed
	s.total += elapsed

	if err != nil {
		s.log.Warn("stage failed",
			zap.String("stage", string(stage)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	} else {
		s.log.Debug("stage completed",
			zap.String("stage", string(stage)),
			zap.Duration("elapsed", elapsed))
	}
	return err
}

// Elapsed returns the accumulated duration recorded for stage.
func (s *Stats) Elapsed(stage Stage) time.Duration { return s.durations[stage] }

// Total returns the sum of every stage's recorded duration.
func (s *Stats) Total() time.Duration { return s.total }

// Report writes a final plain-text summary, matching the teacher's own
// fmt.Fprintf-to-writer convention for CLI output rather than a
// table-formatting dependency unused anywhere else in this codebase.
func (s *Stats) Report(w io.Writer) {
	fmt.Fprintf(w, "olu update summary\n")
	fmt.Fprintf(w, "  sequence numbers:   %d -> %d\n", s.StartSequence, s.LatestSequence)
	fmt.Fprintf(w, "  nodes:              +%d ~%d -%d\n",
		s.Counts.CreatedNodes, s.Counts.ModifiedNodes, s.Counts.DeletedNodes)
	fmt.Fprintf(w, "  ways:               +%d ~%d -%d (referenced %d, geometry-dependent %d)\n",
		s.Counts.CreatedWays, s.Counts.ModifiedWays, s.Counts.DeletedWays,
		s.Counts.ReferencedWays, s.Counts.GeometryDependentWays)
	fmt.Fprintf(w, "  relations:          +%d ~%d -%d (referenced %d, geometry-dependent %d)\n",
		s.Counts.CreatedRelations, s.Counts.ModifiedRelations, s.Counts.DeletedRelations,
		s.Counts.ReferencedRelations, s.Counts.GeometryDependentRelations)
	fmt.Fprintf(w, "  converted triples:  %d\n", s.Counts.ConvertedTriples)
	fmt.Fprintf(w, "  inserted triples:   %d\n", s.Counts.InsertedTriples)
	fmt.Fprintf(w, "  queries sent:       %d (%d deletes, %d inserts)\n",
		s.Counts.Queries, s.Counts.DeleteOps, s.Counts.InsertOps)
	fmt.Fprintf(w, "  stage timings:\n")
	for _, stage := range stageOrder {
		d, ok := s.durations[stage]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "    %-22s %s\n", stage, d.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "  total:              %s\n", s.total.Round(time.Millisecond))
}
