// Package driver implements the update driver (C9): the state machine that
// sequences every other package into one run, from determining a starting
// sequence number through committing the watermark.
//
// Grounded on OsmUpdater.h/.cpp in original_source for the stage sequence
// and the temp-directory lifecycle, and on cmd/tofu/main.go's top-level
// tracing.Tracer().Start span wrapping a staged operation.
package driver

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ad-freiburg/olu/internal/changefile"
	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/convert"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/discover"
	"github.com/ad-freiburg/olu/internal/dummy"
	"github.com/ad-freiburg/olu/internal/fetch"
	"github.com/ad-freiburg/olu/internal/filter"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/planner"
	"github.com/ad-freiburg/olu/internal/replication"
	"github.com/ad-freiburg/olu/internal/stats"
	"github.com/ad-freiburg/olu/internal/tracing"
)

// Driver orchestrates one run of the IDLE → ... → DONE state machine of
// spec.md §4.9. Replication is nil in --input mode, where there is no
// replication server to talk to.
type Driver struct {
	Config      Config
	Replication *replication.Server
	Fetcher     *fetch.Fetcher
	Classifier  *classify.Classifier
	Discoverer  *discover.Discoverer
	Planner     *planner.Planner
	Stats       *stats.Stats

	// RunID appears in the run's start and completion log lines and names
	// its scratch subdirectory under Config.WorkDir, so two runs can overlap
	// safely if a prior run's cleanup failed to complete. It is not attached
	// to trace spans.
	RunID string
}

// New wires a Driver from its already-constructed collaborators, assigning
// a fresh run id.
func New(cfg Config, rep *replication.Server, f *fetch.Fetcher, pl *planner.Planner, st *stats.Stats) *Driver {
	return &Driver{
		Config:      cfg,
		Replication: rep,
		Fetcher:     f,
		Classifier:  &classify.Classifier{Fetcher: f, BatchSize: cfg.BatchSize},
		Discoverer:  &discover.Discoverer{Fetcher: f.AsDiscoverFetcher(), BatchSize: cfg.BatchSize},
		Planner:     pl,
		Stats:       st,
		RunID:       uuid.NewString(),
	}
}

// Run executes the full state machine once. A KindAlreadyUpToDate result is
// not a failure: the caller (the CLI layer) should treat it as a distinct,
// successful outcome, per spec.md §7 rule 6.
func (d *Driver) Run(ctx context.Context) diags.Diagnostics {
	ctx, span := tracing.Tracer().Start(ctx, "driver.Run")
	defer span.End()
	logging.Info("driver: starting run %s", d.RunID)

	runDir := filepath.Join(d.workDir(), d.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return diags.Diagnostics{diags.New(diags.KindConfig, "failed to create run scratch directory", err)}
	}
	defer d.cleanupRunDir(runDir)

	var startSeq int64
	var startDx *diags.Diagnostic
	if err := d.Stats.Time(stats.StageDetermineStart, func() error {
		startSeq, startDx = d.determineStart(ctx)
		return asError(startDx)
	}); err != nil {
		return diags.Diagnostics{startDx}
	}
	d.Stats.StartSequence = startSeq

	var sources []changefile.Source
	var latestSeq int64
	var fetchDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageFetchChangeFiles, func() error {
		sources, latestSeq, fetchDx = d.gatherSources(ctx, runDir, startSeq)
		return asError(realErrors(fetchDx)...)
	}); err != nil {
		return fetchDx
	}
	if alreadyUpToDate(fetchDx) {
		logging.Info("driver: already up to date at sequence %d", latestSeq)
		return fetchDx
	}
	d.Stats.LatestSequence = latestSeq

	var merged *changefile.Merged
	var mergeDx *diags.Diagnostic
	if err := d.Stats.Time(stats.StageMerge, func() error {
		merged, mergeDx = changefile.Merge(sources)
		return asError(mergeDx)
	}); err != nil {
		return diags.Diagnostics{mergeDx}
	}

	if d.Config.BBox != "" || d.Config.PolygonPath != "" {
		var extractDx *diags.Diagnostic
		merged, extractDx = d.extractMerged(ctx, runDir, merged)
		if extractDx != nil {
			return diags.Diagnostics{extractDx}
		}
	}

	var ws *classify.WorkSets
	var classifyDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageClassify, func() error {
		ws, classifyDx = d.Classifier.Run(ctx, merged)
		return asError(classifyDx.Errs()...)
	}); err != nil {
		return classifyDx
	}

	var discoverDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageDiscover, func() error {
		discoverDx = d.Discoverer.Run(ctx, ws)
		return asError(discoverDx.Errs()...)
	}); err != nil {
		return discoverDx
	}
	d.Stats.Counts.FromWorkSets(ws)

	var dummyData dummy.Data
	var referenceDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageFetchReferences, func() error {
		dummyData, referenceDx = d.fetchDummyData(ctx, ws)
		return asError(referenceDx.Errs()...)
	}); err != nil {
		return referenceDx
	}

	var combinedPath string
	if err := d.Stats.Time(stats.StageSynthesizeDummies, func() error {
		var werr error
		combinedPath, werr = d.writeCombinedInput(runDir, merged, ws, dummyData)
		return werr
	}); err != nil {
		return diags.Diagnostics{diags.New(diags.KindConfig, "failed to stage converter input", err)}
	}

	var filterResult filter.Result
	if err := d.Stats.Time(stats.StageConvert, func() error {
		var cerr error
		filterResult, cerr = d.convertAndFilter(ctx, runDir, ws, combinedPath)
		return cerr
	}); err != nil {
		return diags.Diagnostics{diags.New(diags.KindParse, "conversion/filter stage failed", err)}
	}
	d.Stats.Counts.ConvertedTriples = len(filterResult.Triples)
	d.Stats.Counts.InsertedTriples = len(filterResult.Triples)

	var deleteDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageDelete, func() error {
		deleteDx = d.Planner.DeletePhase(ctx, ws)
		return asError(deleteDx.Errs()...)
	}); err != nil {
		return deleteDx
	}

	var insertDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageInsert, func() error {
		insertDx = d.Planner.InsertPhase(ctx, filterResult)
		return asError(insertDx.Errs()...)
	}); err != nil {
		return insertDx
	}

	// The watermark commit is the run's single commit point: any failure
	// here is fatal and is reported together with the prior, still-valid
	// watermark (the sequence just before this run's start), per spec.md
	// §4.9. It never rolls back the deletes/inserts that already succeeded.
	var commitDx diags.Diagnostics
	if err := d.Stats.Time(stats.StageCommitWatermark, func() error {
		commitDx = d.Planner.CommitWatermark(ctx, latestSeq, time.Now().UTC().Format(time.RFC3339))
		return asError(commitDx.Errs()...)
	}); err != nil {
		return commitDx.Append(diags.New(diags.KindIntegrity,
			fmt.Sprintf("watermark commit failed; the last known-safe watermark is sequence %d", startSeq-1), nil))
	}

	logging.Info("driver: run %s complete, watermark advanced to %d", d.RunID, latestSeq)
	return nil
}

func (d *Driver) workDir() string {
	if d.Config.WorkDir != "" {
		return d.Config.WorkDir
	}
	return os.TempDir()
}

func (d *Driver) cleanupRunDir(runDir string) {
	if err := os.RemoveAll(runDir); err != nil {
		logging.Warn("driver: failed to clean up scratch directory %s: %v", runDir, err)
	}
}

// writeCombinedInput writes the merged change set and C6's synthesized
// dummy records into one OsmChange document, so a single osm2rdf pass sees
// both together: a changed object's new state (merged.osc material) and a
// referencing object's member list (dummy material) must be visible to the
// very same conversion for the converter to recompute geometry that spans
// both, e.g. a way whose own tags didn't change but one of its member
// nodes moved. Per spec.md §4.9, the synthetic stream is concatenated onto
// the merged change file rather than converted separately and merged
// downstream.
func (d *Driver) writeCombinedInput(runDir string, merged *changefile.Merged, ws *classify.WorkSets, data dummy.Data) (string, error) {
	path := filepath.Join(runDir, "combined.osc")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.WriteString(f, xml.Header); err != nil {
		return "", err
	}
	if _, err := io.WriteString(f, "<osmChange version=\"0.6\" generator=\"olu\">\n"); err != nil {
		return "", err
	}
	if err := merged.WriteBody(f); err != nil {
		return "", err
	}
	if err := dummy.WriteRecords(f, ws, data); err != nil {
		return "", err
	}
	if _, err := io.WriteString(f, "</osmChange>\n"); err != nil {
		return "", err
	}
	return path, nil
}

// extractMerged restricts merged to a bounding box or polygon region via
// `osmium extract` (spec.md §4.9's optional EXTRACT stage), writing it out,
// running the external tool, then decoding the restricted result back into
// a Merged so classification only ever sees in-scope records.
func (d *Driver) extractMerged(ctx context.Context, runDir string, merged *changefile.Merged) (*changefile.Merged, *diags.Diagnostic) {
	prePath := filepath.Join(runDir, "pre-extract.osc")
	f, err := os.Create(prePath)
	if err != nil {
		return nil, diags.New(diags.KindConfig, "failed to stage pre-extract file", err)
	}
	werr := merged.WriteTo(f)
	f.Close()
	if werr != nil {
		return nil, diags.New(diags.KindConfig, "failed to write pre-extract file", werr)
	}

	postPath := filepath.Join(runDir, "post-extract.osc")
	if dx := convert.RunExtract(ctx, convert.ExtractOptions{
		BinaryPath:  d.Config.OsmiumBinaryPath,
		InputPath:   prePath,
		OutputPath:  postPath,
		BBox:        d.Config.BBox,
		PolygonPath: d.Config.PolygonPath,
	}); dx != nil {
		return nil, dx
	}

	r, err := os.Open(postPath)
	if err != nil {
		return nil, diags.New(diags.KindConfig, "failed to reopen extracted change file", err)
	}
	defer r.Close()

	var records []changefile.Record
	if dx := changefile.Decode(r, func(rec changefile.Record) error {
		records = append(records, rec)
		return nil
	}); dx != nil {
		return nil, dx
	}
	return &changefile.Merged{Records: records}, nil
}

// convertAndFilter runs osm2rdf once over the combined input (merged change
// set plus synthetic dummy records in one document, see writeCombinedInput)
// and filters its output down to the relevant triples.
func (d *Driver) convertAndFilter(ctx context.Context, runDir string, ws *classify.WorkSets, combinedPath string) (filter.Result, error) {
	ids := filter.FromWorkSets(ws)

	combinedTTL := filepath.Join(runDir, "combined.ttl")
	if dx := convert.RunOsm2Rdf(ctx, convert.Osm2RdfOptions{
		BinaryPath: d.Config.Osm2RdfBinaryPath,
		InputPath:  combinedPath,
		OutputPath: combinedTTL,
	}); dx != nil {
		return filter.Result{}, dx
	}

	return filterFile(combinedTTL, ids)
}

func filterFile(path string, ids filter.RelevantIDs) (filter.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return filter.Result{}, err
	}
	defer f.Close()
	return filter.Run(f, ids)
}

func asError(dxs ...*diags.Diagnostic) error {
	for _, dx := range dxs {
		if dx != nil && dx.Severity == diags.Error {
			return fmt.Errorf("%s", dx.Error())
		}
	}
	return nil
}

// alreadyUpToDate reports whether dx carries the AlreadyUpToDate sentinel,
// which is not a failure (spec.md §7 rule 6) even though diags.New marks it
// Error severity like any other Diagnostic.
func alreadyUpToDate(dx diags.Diagnostics) bool {
	for _, d := range dx {
		if d.Kind == diags.KindAlreadyUpToDate {
			return true
		}
	}
	return false
}

// realErrors filters out the AlreadyUpToDate sentinel so Stats.Time doesn't
// log a real "already up to date" outcome as a stage failure.
func realErrors(dx diags.Diagnostics) []*diags.Diagnostic {
	var out []*diags.Diagnostic
	for _, d := range dx.Errs() {
		if d.Kind == diags.KindAlreadyUpToDate {
			continue
		}
		out = append(out, d)
	}
	return out
}
