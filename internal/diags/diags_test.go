package diags

import (
	"errors"
	"testing"
)

func TestAppendSkipsNil(t *testing.T) {
	var d Diagnostics
	d = d.Append(nil, New(KindParse, "bad xml", errors.New("eof")), nil)
	if len(d) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(d))
	}
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	var d Diagnostics
	d = d.Append(Warn(KindTransport, "retrying", nil))
	if d.HasErrors() {
		t.Fatal("expected warning-only diagnostics to report no errors")
	}
	d = d.Append(New(KindData, "bad batch", nil))
	if !d.HasErrors() {
		t.Fatal("expected diagnostics with an Error to report HasErrors")
	}
}

func TestWorstKindOrdering(t *testing.T) {
	var d Diagnostics
	d = d.Append(New(KindIntegrity, "mismatch", nil), New(KindConfig, "bad flag", nil))
	kind, ok := d.WorstKind()
	if !ok || kind != KindConfig {
		t.Fatalf("WorstKind() = (%v, %v), want (KindConfig, true)", kind, ok)
	}
}

func TestWorstKindNoErrors(t *testing.T) {
	var d Diagnostics
	d = d.Append(Warn(KindTransport, "retrying", nil))
	if _, ok := d.WorstKind(); ok {
		t.Fatal("expected WorstKind to report false when there are no errors")
	}
}

func TestDiagnosticErrorFormatting(t *testing.T) {
	d := New(KindParse, "bad xml", errors.New("unexpected EOF"))
	if d.Error() != "[error/parse] bad xml: unexpected EOF" {
		t.Fatalf("unexpected formatting: %q", d.Error())
	}
	if errors.Unwrap(d).Error() != "unexpected EOF" {
		t.Fatal("expected Unwrap to return the cause")
	}
}
