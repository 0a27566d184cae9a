package stats

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ad-freiburg/olu/internal/classify"
	"github.com/ad-freiburg/olu/internal/osm"
)

func TestTimeAccumulatesDurationAndPropagatesError(t *testing.T) {
	s := New(nil)

	if err := s.Time(StageMerge, func() error {
		time.Sleep(time.Millisecond)
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Elapsed(StageMerge) <= 0 {
		t.Fatalf("expected StageMerge to record a positive duration, got %v", s.Elapsed(StageMerge))
	}

	boom := errors.New("boom")
	err := s.Time(StageConvert, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected Time to return the wrapped fn's error, got %v", err)
	}

	if s.Total() < s.Elapsed(StageMerge)+s.Elapsed(StageConvert) {
		t.Fatalf("expected Total to be at least the sum of recorded stages")
	}
}

func TestTimeAccumulatesAcrossRepeatedCalls(t *testing.T) {
	s := New(nil)
	s.Time(StageFetchChangeFiles, func() error { time.Sleep(time.Millisecond); return nil })
	first := s.Elapsed(StageFetchChangeFiles)
	s.Time(StageFetchChangeFiles, func() error { time.Sleep(time.Millisecond); return nil })
	if s.Elapsed(StageFetchChangeFiles) <= first {
		t.Fatalf("expected second call to add to the accumulated duration, got first=%v total=%v", first, s.Elapsed(StageFetchChangeFiles))
	}
}

func TestCountsFromWorkSets(t *testing.T) {
	ws := classify.NewWorkSets()
	ws.Nodes.Created.Add(1)
	ws.Nodes.Created.Add(2)
	ws.Nodes.ModifiedStructureUnchanged.Add(3)
	ws.Nodes.ModifiedStructureChanged.Add(4)
	ws.Nodes.Deleted.Add(5)

	ws.Ways.Created.Add(10)
	ws.GeometryDependentWays.Add(11)
	ws.ReferencedWays.Add(osm.ID(12))

	ws.Relations.Deleted.Add(20)
	ws.ReferencedRelations.Add(osm.ID(21))

	var c Counts
	c.FromWorkSets(ws)

	if c.CreatedNodes != 2 {
		t.Fatalf("expected 2 created nodes, got %d", c.CreatedNodes)
	}
	if c.ModifiedNodes != 2 {
		t.Fatalf("expected 2 modified nodes (unchanged+changed), got %d", c.ModifiedNodes)
	}
	if c.DeletedNodes != 1 {
		t.Fatalf("expected 1 deleted node, got %d", c.DeletedNodes)
	}
	if c.CreatedWays != 1 || c.GeometryDependentWays != 1 || c.ReferencedWays != 1 {
		t.Fatalf("unexpected way counts: %+v", c)
	}
	if c.DeletedRelations != 1 || c.ReferencedRelations != 1 {
		t.Fatalf("unexpected relation counts: %+v", c)
	}
}

func TestReportIncludesCountsAndTimings(t *testing.T) {
	s := New(nil)
	s.StartSequence = 100
	s.LatestSequence = 105
	s.Counts.CreatedNodes = 3
	s.Counts.InsertedTriples = 42
	s.Time(StageFilter, func() error { return nil })

	var buf bytes.Buffer
	s.Report(&buf)
	out := buf.String()

	for _, want := range []string{"100 -> 105", "+3 ~0 -0", "42", string(StageFilter), "total:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected report to contain %q, got:\n%s", want, out)
		}
	}
}
