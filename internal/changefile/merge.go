package changefile

import (
	"sort"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/osm"
)

// Merged is the canonical, totally ordered result of merging N change-file
// sources: one surviving Record per (kind, id), in the order spec.md §4.2
// specifies for the classifier's subsequent scan.
type Merged struct {
	Records []Record
}

// Merge reads every source in order and collapses them into one Merged
// result. For a given (kind, id): a strictly higher version always replaces
// the current record (later replication files carry monotonically
// increasing versions, so this also implements "last occurrence per (kind,
// id) wins" when sources are given in replication order); an exactly equal
// version is a no-op, keeping whichever occurrence was seen first
// (spec.md §4.2 "collapse to the lexicographically-first surviving
// record"). Any malformed source aborts the whole merge with no partial
// output, per spec.md §4.2's "any malformed input file aborts the run."
func Merge(sources []Source) (*Merged, *diags.Diagnostic) {
	byKey := make(map[key]Record)
	order := make([]key, 0)

	showProgress := len(sources) > 1
	for i, src := range sources {
		if showProgress {
			logging.Info("merging change file %d/%d: %s", i+1, len(sources), src.Name)
		}

		rc, derr := src.Open()
		if derr != nil {
			return nil, derr
		}
		derr2 := Decode(rc, func(rec Record) error {
			k := key{kind: rec.Kind, id: rec.ID}
			existing, seen := byKey[k]
			switch {
			case !seen:
				byKey[k] = rec
				order = append(order, k)
			case rec.Version > existing.Version:
				byKey[k] = rec
			case rec.Version == existing.Version:
				// keep the first-seen occurrence
			default:
				// stale/lower version, ignore
			}
			return nil
		})
		closeErr := rc.Close()
		if derr2 != nil {
			return nil, derr2
		}
		if closeErr != nil {
			return nil, diags.New(diags.KindTransport, "failed to close change file", closeErr)
		}
	}

	records := make([]Record, 0, len(order))
	for _, k := range order {
		records = append(records, byKey[k])
	}

	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})

	return &Merged{Records: records}, nil
}

// less implements the total order of spec.md §4.2: (kind, sign(id), |id|,
// version descending, deleted-flag, timestamp when both sides have one).
func less(a, b Record) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if sa, sb := sign(a.ID), sign(b.ID); sa != sb {
		return sa < sb
	}
	if aa, ab := abs(a.ID), abs(b.ID); aa != ab {
		return aa < ab
	}
	if a.Version != b.Version {
		return a.Version > b.Version // descending
	}
	if a.Deleted != b.Deleted {
		return !a.Deleted && b.Deleted // non-deleted before deleted
	}
	if !a.Timestamp.IsZero() && !b.Timestamp.IsZero() {
		return a.Timestamp.Before(b.Timestamp)
	}
	return false
}

func sign(id osm.ID) int {
	switch {
	case id < 0:
		return -1
	case id > 0:
		return 1
	default:
		return 0
	}
}

func abs(id osm.ID) osm.ID {
	if id < 0 {
		return -id
	}
	return id
}
