package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ad-freiburg/olu/internal/changefile"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/replication"
)

// gatherSources resolves the run's input to an ordered list of
// changefile.Source values and the latest sequence number that run reaches
// (for a local --input directory, which has no sequence numbering of its
// own, start plus the number of change files found, minus one). When start is already past the replication
// server's latest state, it reports KindAlreadyUpToDate rather than
// treating the run as a failure (spec.md §4.9).
func (d *Driver) gatherSources(ctx context.Context, runDir string, start int64) ([]changefile.Source, int64, diags.Diagnostics) {
	if d.Config.InputDir != "" {
		return d.gatherLocalSources(start)
	}
	return d.gatherReplicationSources(ctx, runDir, start)
}

func (d *Driver) gatherLocalSources(start int64) ([]changefile.Source, int64, diags.Diagnostics) {
	entries, err := os.ReadDir(d.Config.InputDir)
	if err != nil {
		return nil, 0, diags.Diagnostics{diags.New(diags.KindConfig, "failed to read --input directory", err)}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".gz" || filepath.Ext(name) == ".osc" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sources []changefile.Source
	for _, name := range names {
		sources = append(sources, changefile.Source{Name: name, Path: filepath.Join(d.Config.InputDir, name)})
	}
	// With no replication server to ask, the watermark this run advances
	// to is simply the user's start sequence plus the number of files
	// consumed, matching --sequence-number's role as the sole authority
	// on numbering in --input mode.
	latest := start + int64(len(sources)) - 1
	if len(sources) == 0 {
		latest = start - 1
	}
	return sources, latest, nil
}

func (d *Driver) gatherReplicationSources(ctx context.Context, runDir string, start int64) ([]changefile.Source, int64, diags.Diagnostics) {
	latestState, dx := d.Replication.FetchLatestState(ctx)
	if dx != nil {
		return nil, 0, diags.Diagnostics{dx}
	}

	if start > latestState.SequenceNumber {
		return nil, latestState.SequenceNumber, diags.Diagnostics{diags.New(diags.KindAlreadyUpToDate,
			fmt.Sprintf("computed start sequence %d is already past the replication server's latest sequence %d", start, latestState.SequenceNumber), nil)}
	}

	seqs := replication.SequencesBetween(start-1, latestState.SequenceNumber)
	logging.Info("driver: downloading %d change file(s), sequence %d through %d", len(seqs), start, latestState.SequenceNumber)

	files, fdx := d.Replication.FetchChangeFiles(ctx, seqs)
	var out diags.Diagnostics
	for _, f := range fdx {
		out = out.Append(f)
	}
	if out.HasErrors() {
		return nil, latestState.SequenceNumber, out
	}

	changesDir := filepath.Join(runDir, "changes")
	if err := os.MkdirAll(changesDir, 0o755); err != nil {
		return nil, latestState.SequenceNumber, diags.Diagnostics{diags.New(diags.KindConfig, "failed to create scratch changes directory", err)}
	}

	var sources []changefile.Source
	for _, seq := range seqs {
		data, ok := files[seq]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%09d.osc", seq)
		path := filepath.Join(changesDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, latestState.SequenceNumber, diags.Diagnostics{diags.New(diags.KindConfig, "failed to write downloaded change file to scratch directory", err)}
		}
		sources = append(sources, changefile.Source{Name: name, Path: path})
	}
	return sources, latestState.SequenceNumber, out
}
