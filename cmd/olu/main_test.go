package main

import (
	"testing"

	"github.com/ad-freiburg/olu/internal/cliconfig"
)

func TestNewRootCommandRejectsMissingEndpointURI(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--input", t.TempDir()})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error when no SPARQL endpoint URI is given")
	}
	ce, ok := err.(exitCodeError)
	if !ok {
		t.Fatalf("expected exitCodeError, got %T: %v", err, err)
	}
	if ce.ExitCode != cliconfig.EndpointURIMissing {
		t.Fatalf("got exit code %d, want %d", ce.ExitCode, cliconfig.EndpointURIMissing)
	}
}

func TestNewRootCommandRejectsBothInputAndFileServer(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{
		"--input", t.TempDir(),
		"--file-server", "https://example.org/replication/",
		"https://example.org/sparql",
	})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error when both --input and --file-server are set")
	}
	ce, ok := err.(exitCodeError)
	if !ok {
		t.Fatalf("expected exitCodeError, got %T: %v", err, err)
	}
	if ce.ExitCode != cliconfig.IncorrectArguments {
		t.Fatalf("got exit code %d, want %d", ce.ExitCode, cliconfig.IncorrectArguments)
	}
}
