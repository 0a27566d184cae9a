package cliconfig

import (
	"os"
	"testing"

	"github.com/spf13/pflag"

	"github.com/ad-freiburg/olu/internal/planner"
)

func parse(t *testing.T, args []string) (*Config, ExitCode, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	raw := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	return Validate(raw, fs.Args())
}

func TestValidateRequiresEndpointURI(t *testing.T) {
	_, code, err := parse(t, []string{"--input", t.TempDir()})
	if err == nil || code != EndpointURIMissing {
		t.Fatalf("expected EndpointURIMissing, got code=%d err=%v", code, err)
	}
}

func TestValidateRejectsInvalidEndpointURI(t *testing.T) {
	_, code, err := parse(t, []string{"--input", t.TempDir(), "not-a-uri"})
	if err == nil || code != EndpointURIInvalid {
		t.Fatalf("expected EndpointURIInvalid, got code=%d err=%v", code, err)
	}
}

func TestValidateRequiresExactlyOneOfInputOrFileServer(t *testing.T) {
	_, code, err := parse(t, []string{"https://example.org/sparql"})
	if err == nil || code != IncorrectArguments {
		t.Fatalf("expected IncorrectArguments when neither is set, got code=%d err=%v", code, err)
	}

	_, code, err = parse(t, []string{
		"--input", t.TempDir(),
		"--file-server", "https://example.org/replication/",
		"https://example.org/sparql",
	})
	if err == nil || code != IncorrectArguments {
		t.Fatalf("expected IncorrectArguments when both are set, got code=%d err=%v", code, err)
	}
}

func TestValidateRejectsMissingInputDirectory(t *testing.T) {
	_, code, err := parse(t, []string{"--input", "/does/not/exist/anywhere", "https://example.org/sparql"})
	if err == nil || code != InputNotExists {
		t.Fatalf("expected InputNotExists, got code=%d err=%v", code, err)
	}
}

func TestValidateRejectsFileAsInputDirectory(t *testing.T) {
	dir := t.TempDir()
	file := dir + "/notadir"
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, code, err := parse(t, []string{"--input", file, "https://example.org/sparql"})
	if err == nil || code != InputIsNotDirectory {
		t.Fatalf("expected InputIsNotDirectory, got code=%d err=%v", code, err)
	}
}

func TestValidateRejectsInvalidGraphURI(t *testing.T) {
	_, code, err := parse(t, []string{"--input", t.TempDir(), "--graph", "not-a-uri", "https://example.org/sparql"})
	if err == nil || code != GraphURIInvalid {
		t.Fatalf("expected GraphURIInvalid, got code=%d err=%v", code, err)
	}
}

func TestValidateDefaultsUpdateURIToEndpointURI(t *testing.T) {
	cfg, code, err := parse(t, []string{"--input", t.TempDir(), "https://example.org/sparql"})
	if err != nil || code != Success {
		t.Fatalf("unexpected failure: code=%d err=%v", code, err)
	}
	if cfg.SparqlEndpointUpdateURI != cfg.SparqlEndpointURI {
		t.Fatalf("expected update URI to default to endpoint URI, got %q vs %q", cfg.SparqlEndpointUpdateURI, cfg.SparqlEndpointURI)
	}
}

func TestValidateOutputModeFromSparqlOutputAndDebug(t *testing.T) {
	cfg, code, err := parse(t, []string{"--input", t.TempDir(), "https://example.org/sparql"})
	if err != nil || code != Success {
		t.Fatalf("unexpected failure: code=%d err=%v", code, err)
	}
	if cfg.Driver.Mode != planner.OutputEndpoint {
		t.Fatalf("expected OutputEndpoint by default, got %v", cfg.Driver.Mode)
	}

	cfg, code, err = parse(t, []string{"--input", t.TempDir(), "--sparql-output", "out.rq", "https://example.org/sparql"})
	if err != nil || code != Success {
		t.Fatalf("unexpected failure: code=%d err=%v", code, err)
	}
	if cfg.Driver.Mode != planner.OutputFile {
		t.Fatalf("expected OutputFile when --sparql-output is set, got %v", cfg.Driver.Mode)
	}

	cfg, code, err = parse(t, []string{"--input", t.TempDir(), "--sparql-output", "out.rq", "--debug", "https://example.org/sparql"})
	if err != nil || code != Success {
		t.Fatalf("unexpected failure: code=%d err=%v", code, err)
	}
	if cfg.Driver.Mode != planner.OutputDebugFile {
		t.Fatalf("expected OutputDebugFile when --sparql-output and --debug are both set, got %v", cfg.Driver.Mode)
	}
}

func TestValidateRejectsMalformedBBox(t *testing.T) {
	_, code, err := parse(t, []string{"--input", t.TempDir(), "--bbox", "not,a,bbox", "https://example.org/sparql"})
	if err == nil || code != BBoxInvalid {
		t.Fatalf("expected BBoxInvalid, got code=%d err=%v", code, err)
	}
}

func TestValidateRejectsInvertedBBox(t *testing.T) {
	_, code, err := parse(t, []string{"--input", t.TempDir(), "--bbox", "10,10,1,1", "https://example.org/sparql"})
	if err == nil || code != BBoxInvalid {
		t.Fatalf("expected BBoxInvalid for inverted bbox, got code=%d err=%v", code, err)
	}
}

func TestValidateRejectsMissingPolygonFile(t *testing.T) {
	_, code, err := parse(t, []string{"--input", t.TempDir(), "--polygon", "/does/not/exist.poly", "https://example.org/sparql"})
	if err == nil || code != PolygonFileNotExists {
		t.Fatalf("expected PolygonFileNotExists, got code=%d err=%v", code, err)
	}
}
