// Package diags implements the error taxonomy every stage of the update
// pipeline reports through: a small closed set of Kinds, a Severity, and an
// accumulating Diagnostics list that callers Append to rather than
// short-circuiting on the first problem, mirroring the accumulate-then-report
// style the teacher's own tfdiags.Diagnostics uses.
package diags

import "fmt"

// Severity distinguishes a fatal problem from one the run can continue past.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind is the closed set of error categories named in the error taxonomy:
// every Diagnostic is exactly one of these.
type Kind int

const (
	// KindConfig: a CLI flag or runtime option is missing or invalid.
	KindConfig Kind = iota
	// KindTransport: an HTTP request to the replication server or the
	// SPARQL endpoint failed at the network/protocol level.
	KindTransport
	// KindParse: a response or file body could not be parsed as the
	// format it was expected to be (XML, SPARQL JSON, TTL).
	KindParse
	// KindData: a parsed response was structurally well-formed but
	// violated a data-level expectation (missing field, wrong arity).
	KindData
	// KindIntegrity: a cross-check between two data sources disagreed in
	// a way that signals the endpoint or the change stream is corrupt.
	KindIntegrity
	// KindAlreadyUpToDate is not really an error: it is the sentinel
	// signaling the endpoint has no pending replication sequence to
	// apply. Treated as success by the driver and the CLI.
	KindAlreadyUpToDate
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindData:
		return "data"
	case KindIntegrity:
		return "integrity"
	case KindAlreadyUpToDate:
		return "already-up-to-date"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem: a Kind, a Severity, a human-readable
// summary/detail pair, and the underlying error if any.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Summary  string
	Detail   string
	Cause    error
}

func (d *Diagnostic) Error() string {
	if d.Detail == "" {
		return fmt.Sprintf("[%s/%s] %s", d.Severity, d.Kind, d.Summary)
	}
	return fmt.Sprintf("[%s/%s] %s: %s", d.Severity, d.Kind, d.Summary, d.Detail)
}

func (d *Diagnostic) Unwrap() error { return d.Cause }

// New builds an error-severity Diagnostic.
func New(kind Kind, summary string, cause error) *Diagnostic {
	d := &Diagnostic{Severity: Error, Kind: kind, Summary: summary, Cause: cause}
	if cause != nil {
		d.Detail = cause.Error()
	}
	return d
}

// Warn builds a warning-severity Diagnostic.
func Warn(kind Kind, summary string, cause error) *Diagnostic {
	d := New(kind, summary, cause)
	d.Severity = Warning
	return d
}

// Diagnostics accumulates Diagnostic values across a run; stages append to a
// shared Diagnostics instead of aborting on the first problem, so a run can
// report everything that went wrong rather than just the first failure.
type Diagnostics []*Diagnostic

// Append adds one or more diagnostics, skipping nils so call sites can pass
// the possibly-nil result of a helper directly.
func (d Diagnostics) Append(diags ...*Diagnostic) Diagnostics {
	for _, diag := range diags {
		if diag != nil {
			d = append(d, diag)
		}
	}
	return d
}

// HasErrors reports whether any accumulated diagnostic is Error severity.
func (d Diagnostics) HasErrors() bool {
	for _, diag := range d {
		if diag.Severity == Error {
			return true
		}
	}
	return false
}

// Errs returns only the Error-severity diagnostics.
func (d Diagnostics) Errs() Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Severity == Error {
			out = append(out, diag)
		}
	}
	return out
}

// WorstKind returns the Kind of the first Error-severity diagnostic, in
// taxonomy order (Config before Transport before Parse before Data before
// Integrity). KindAlreadyUpToDate is never returned. Returns false if no
// Error-severity diagnostic has one of those five kinds.
func (d Diagnostics) WorstKind() (Kind, bool) {
	order := []Kind{KindConfig, KindTransport, KindParse, KindData, KindIntegrity}
	present := make(map[Kind]bool)
	for _, diag := range d.Errs() {
		present[diag.Kind] = true
	}
	for _, k := range order {
		if present[k] {
			return k, true
		}
	}
	return 0, false
}

func (d Diagnostics) Error() string {
	if len(d) == 0 {
		return ""
	}
	s := d[0].Error()
	if len(d) > 1 {
		s = fmt.Sprintf("%s (and %d more)", s, len(d)-1)
	}
	return s
}
