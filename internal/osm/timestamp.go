package osm

import (
	"strings"
	"time"
)

// Timestamp wraps time.Time so every comparison between an endpoint-stored
// timestamp and a replication-server timestamp goes through one normalizing
// parse, instead of comparing raw strings.
//
// Open question (spec.md §9): the original implementation compares ISO-8601
// UTC timestamps as strings and assumes second precision throughout. A
// timezone offset or sub-second fraction on either side would misorder a
// naive string comparison. This type resolves that by always parsing to a
// time.Time truncated to the second in UTC before any comparison is made.
type Timestamp struct {
	t time.Time
}

// layouts tried in order; replication state files and endpoint-reported
// timestamps have both been observed in these shapes.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses s using the first layout that matches, normalizing
// to UTC truncated to the second.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Timestamp{t: t.UTC().Truncate(time.Second)}, nil
		}
		lastErr = err
	}
	return Timestamp{}, lastErr
}

// NewTimestamp wraps an already-parsed time.Time, normalizing it the same
// way ParseTimestamp does.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// IsZero reports whether the timestamp was never set.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// After reports whether ts is strictly later than other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Time returns the underlying normalized time.Time.
func (ts Timestamp) Time() time.Time { return ts.t }

// String renders the timestamp in the canonical "...Z" form used by the
// replication server and the SPARQL endpoint alike.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.Format("2006-01-02T15:04:05Z")
}
