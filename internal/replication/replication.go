// Package replication talks to an osmosis-style replication server: the
// root state.txt and latest-sequence discovery, per-sequence state.txt
// lookups, and bounded-parallel .osc.gz change file downloads.
//
// Grounded on original_source/include/osm/OsmReplicationServerHelper.h:
// fetchLatestDatabaseState, fetchDatabaseStateForSeqNumber,
// fetchDatabaseStateForTimestamp, and fetchChangeFile.
package replication

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/httpclient"
	"github.com/ad-freiburg/olu/internal/logging"
)

// State is one replication server state.txt record: a sequence number and
// the timestamp of the data it reflects.
type State struct {
	SequenceNumber int64
	Timestamp      time.Time
}

// Server fetches state and change files from one replication server root,
// e.g. https://planet.osm.org/replication/minute/.
type Server struct {
	BaseURL string
	HTTP    *retryablehttp.Client
	// Parallelism bounds how many change files FetchChangeFiles downloads
	// at once. Defaults to 4.
	Parallelism int
}

// NewServer builds a Server using the same retryablehttp + httpclient
// pairing as internal/sparql.Client, so transient replication-server
// hiccups retry with backoff instead of failing the whole run, and every
// request carries this program's User-Agent and trace attributes.
func NewServer(baseURL string) *Server {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpclient.New()
	rc.Logger = nil
	return &Server{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: rc}
}

func (s *Server) parallelism() int {
	if s.Parallelism > 0 {
		return s.Parallelism
	}
	return 4
}

func (s *Server) get(ctx context.Context, path string) ([]byte, *diags.Diagnostic) {
	fullURL := s.BaseURL + "/" + strings.TrimLeft(path, "/")
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, diags.New(diags.KindTransport, "failed to build replication server request", err)
	}

	logging.Debug("GET %s", fullURL)
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, diags.New(diags.KindTransport, "replication server request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, diags.New(diags.KindData, "replication server has no data at "+path, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, diags.New(diags.KindTransport,
			"replication server returned unexpected status",
			fmt.Errorf("status %d for %s", resp.StatusCode, fullURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, diags.New(diags.KindTransport, "failed to read replication server response", err)
	}
	return body, nil
}

// FetchLatestState returns the server's current state, read from the root
// state.txt.
func (s *Server) FetchLatestState(ctx context.Context) (State, *diags.Diagnostic) {
	body, err := s.get(ctx, "state.txt")
	if err != nil {
		return State{}, err
	}
	return parseStateFile(body)
}

// FetchStateForSequence returns the state recorded for one sequence number,
// read from its NNN/NNN/NNN.state.txt file.
func (s *Server) FetchStateForSequence(ctx context.Context, seq int64) (State, *diags.Diagnostic) {
	path, perr := sequencePath(seq)
	if perr != nil {
		return State{}, diags.New(diags.KindConfig, "cannot address replication state file", perr)
	}
	body, err := s.get(ctx, path+".state.txt")
	if err != nil {
		return State{}, err
	}
	return parseStateFile(body)
}

// FetchStateForTimestamp locates the latest sequence number whose state is
// at or before t, using the educated-guess-then-correct strategy the
// original helper describes for minute/hour/day replication servers: start
// from an estimate derived from the latest known sequence and its minute
// cadence, then walk forward or backward one sequence at a time until the
// timestamp bracket is found.
func (s *Server) FetchStateForTimestamp(ctx context.Context, t time.Time) (State, *diags.Diagnostic) {
	latest, err := s.FetchLatestState(ctx)
	if err != nil {
		return State{}, err
	}
	if !t.Before(latest.Timestamp) {
		return latest, nil
	}

	minutesBehind := latest.Timestamp.Sub(t).Minutes()
	guess := latest.SequenceNumber - int64(minutesBehind)
	if guess < 0 {
		guess = 0
	}

	cur := guess
	var curState State
	for {
		curState, err = s.FetchStateForSequence(ctx, cur)
		if err != nil {
			return State{}, err
		}
		if curState.Timestamp.Equal(t) {
			return curState, nil
		}
		if curState.Timestamp.Before(t) {
			next := cur + 1
			nextState, nerr := s.FetchStateForSequence(ctx, next)
			if nerr != nil || !nextState.Timestamp.After(t) {
				cur = next
				continue
			}
			return curState, nil
		}
		cur--
		if cur < 0 {
			return curState, nil
		}
	}
}

// FetchChangeFile downloads and gunzips one sequence's .osc.gz file, i.e.
// fetchChangeFile(int&) with the sequence number passed explicitly rather
// than threaded through a mutable reference parameter.
func (s *Server) FetchChangeFile(ctx context.Context, seq int64) ([]byte, *diags.Diagnostic) {
	path, perr := sequencePath(seq)
	if perr != nil {
		return nil, diags.New(diags.KindConfig, "cannot address replication change file", perr)
	}
	body, err := s.get(ctx, path+".osc.gz")
	if err != nil {
		return nil, err
	}
	r, gzErr := gzip.NewReader(byteReader(body))
	if gzErr != nil {
		return nil, diags.New(diags.KindParse, fmt.Sprintf("failed to gunzip change file for sequence %d", seq), gzErr)
	}
	defer r.Close()

	out, readErr := io.ReadAll(r)
	if readErr != nil {
		return nil, diags.New(diags.KindParse, fmt.Sprintf("failed to decompress change file for sequence %d", seq), readErr)
	}
	return out, nil
}

// FetchChangeFiles downloads every sequence's change file with bounded
// concurrency, collecting every per-file failure rather than aborting at
// the first one: an independent download failing shouldn't hide sibling
// failures the caller also needs to report. go-multierror (already used by
// the teacher for exactly this "collect every failure from many
// operations" shape, see internal/backend/remote-state/*/client.go)
// accumulates under a mutex here, then is translated to diags.Diagnostics
// for the caller.
func (s *Server) FetchChangeFiles(ctx context.Context, seqs []int64) (map[int64][]byte, diags.Diagnostics) {
	out := make(map[int64][]byte, len(seqs))
	var mu sync.Mutex
	var merr *multierror.Error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism())

	for _, seq := range seqs {
		seq := seq
		g.Go(func() error {
			data, err := s.FetchChangeFile(gctx, seq)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				merr = multierror.Append(merr, err)
				return nil
			}
			out[seq] = data
			return nil
		})
	}
	// errgroup's own error propagation is unused here on purpose: every
	// goroutine returns nil so sibling downloads keep running after one
	// fails, and merr collects every failure instead of only the first.
	_ = g.Wait()

	var dx diags.Diagnostics
	if merr != nil {
		for _, e := range merr.Errors {
			if d, ok := e.(*diags.Diagnostic); ok {
				dx = dx.Append(d)
			}
		}
	}
	return out, dx
}

// sequencePath renders a sequence number as its osmosis-style directory
// path: a 9-digit zero-padded number split into 3-digit groups, e.g.
// sequencePath(12345) = "000/012/345". Sequence numbers outside the
// representable 9-digit range are rejected rather than silently truncated.
func sequencePath(seq int64) (string, error) {
	if seq < 0 || seq > 999999999 {
		return "", fmt.Errorf("sequence number %d is out of the representable 9-digit range", seq)
	}
	digits := fmt.Sprintf("%09d", seq)
	return digits[0:3] + "/" + digits[3:6] + "/" + digits[6:9], nil
}

// parseStateFile parses an osmosis state.txt body: a comment line followed
// by sequenceNumber=N and timestamp=ISO8601-with-backslash-escaped-colons.
func parseStateFile(body []byte) (State, *diags.Diagnostic) {
	var st State
	sc := bufio.NewScanner(byteReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch k {
		case "sequenceNumber":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return State{}, diags.New(diags.KindParse, "malformed sequenceNumber in state.txt", err)
			}
			st.SequenceNumber = n
		case "timestamp":
			v = strings.ReplaceAll(v, "\\:", ":")
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return State{}, diags.New(diags.KindParse, "malformed timestamp in state.txt", err)
			}
			st.Timestamp = t
		}
	}
	if err := sc.Err(); err != nil {
		return State{}, diags.New(diags.KindParse, "failed to scan state.txt", err)
	}
	if st.Timestamp.IsZero() {
		return State{}, diags.New(diags.KindParse, "state.txt missing a timestamp field", nil)
	}
	return st, nil
}

// SequencesBetween returns every sequence number in (from, to], ascending:
// the order change files must be downloaded and merged in.
func SequencesBetween(from, to int64) []int64 {
	if to <= from {
		return nil
	}
	out := make([]int64, 0, to-from)
	for seq := from + 1; seq <= to; seq++ {
		out = append(out, seq)
	}
	return out
}

func byteReader(b []byte) io.Reader { return bytes.NewReader(b) }
