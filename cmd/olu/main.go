// Command olu downloads and applies OpenStreetMap OsmChange diffs as
// SPARQL updates against an RDF endpoint, converting new and touched
// objects through osm2rdf.
//
// Grounded on cmd/tofu/main.go's realMain() pattern: a thin main() that
// exits with realMain's return value, tracing initialized and flushed
// around a single cobra root command.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ad-freiburg/olu/internal/cliconfig"
	"github.com/ad-freiburg/olu/internal/diags"
	"github.com/ad-freiburg/olu/internal/driver"
	"github.com/ad-freiburg/olu/internal/fetch"
	"github.com/ad-freiburg/olu/internal/logging"
	"github.com/ad-freiburg/olu/internal/planner"
	"github.com/ad-freiburg/olu/internal/replication"
	"github.com/ad-freiburg/olu/internal/sparql"
	"github.com/ad-freiburg/olu/internal/stats"
	"github.com/ad-freiburg/olu/internal/tracing"
)

func main() {
	os.Exit(int(realMain()))
}

func realMain() cliconfig.ExitCode {
	ctx, err := tracing.Init(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize tracing: %v\n", err)
		return cliconfig.Exception
	}
	defer tracing.ForceFlush(5 * time.Second)

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := err.(exitCodeError); ok {
			return code.ExitCode
		}
		return cliconfig.Failure
	}
	return exitCode
}

// exitCode carries the outcome of Run out of cobra's err-only RunE contract,
// since a successful run can still need to report a non-zero code (an
// already-up-to-date run exits 0, but a classification or endpoint failure
// must not be swallowed into a generic "something went wrong").
var exitCode cliconfig.ExitCode

type exitCodeError struct {
	ExitCode cliconfig.ExitCode
	Err      error
}

func (e exitCodeError) Error() string { return e.Err.Error() }

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "olu SPARQL_ENDPOINT_URI",
		Short:         "Apply OpenStreetMap OsmChange diffs to a SPARQL endpoint as RDF updates.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	raw := cliconfig.BindFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, code, err := cliconfig.Validate(raw, args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitCode = code
			return exitCodeError{ExitCode: code, Err: err}
		}
		exitCode = run(cmd.Context(), cfg)
		if exitCode != cliconfig.Success {
			return exitCodeError{ExitCode: exitCode, Err: fmt.Errorf("run failed")}
		}
		return nil
	}
	return cmd
}

func run(ctx context.Context, cfg *cliconfig.Config) cliconfig.ExitCode {
	if cfg.Debug {
		logging.SetLevel(logging.LevelDebug)
	}

	decoder := sparql.ResultDecoder(sparql.GenericDecoder{})
	if cfg.IsQLever {
		decoder = sparql.QLeverDecoder{}
	}

	queryURL, err := url.Parse(cfg.SparqlEndpointURI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid SPARQL endpoint URI: %v\n", err)
		return cliconfig.EndpointURIInvalid
	}
	updateURL, err := url.Parse(cfg.SparqlEndpointUpdateURI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid SPARQL update URI: %v\n", err)
		return cliconfig.EndpointUpdateURIInvalid
	}
	client := sparql.NewClient(queryURL, updateURL, cfg.AccessToken, decoder)
	writer := sparql.QueryWriter{GraphIRI: cfg.Driver.GraphIRI}

	fetcher := &fetch.Fetcher{Client: client, Writer: writer, BatchSize: cfg.Driver.BatchSize}

	var out io.Writer
	if cfg.SparqlOutputFile != "" {
		f, err := os.Create(cfg.SparqlOutputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create --sparql-output file: %v\n", err)
			return cliconfig.Failure
		}
		defer f.Close()
		out = f
	}
	pl := &planner.Planner{
		Client:    client,
		Writer:    writer,
		BatchSize: cfg.Driver.BatchSize,
		Mode:      cfg.Driver.Mode,
		Out:       out,
	}

	var rep *replication.Server
	if cfg.Driver.FileServerBaseURL != "" {
		rep = replication.NewServer(cfg.Driver.FileServerBaseURL)
	}

	st := stats.New(zap.NewNop())
	d := driver.New(cfg.Driver, rep, fetcher, pl, st)

	dx := d.Run(ctx)
	failed := false
	for _, diag := range dx.Errs() {
		if diag.Kind == diags.KindAlreadyUpToDate {
			continue
		}
		failed = true
		fmt.Fprintln(os.Stderr, diag.Error())
	}
	if failed {
		return cliconfig.Failure
	}

	if cfg.ShowStatistics {
		st.Report(os.Stdout)
	}

	return cliconfig.Success
}
