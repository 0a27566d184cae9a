// Package cliconfig parses and validates the command line flags of a run,
// turning them into a driver.Config plus the SPARQL endpoint and
// access-token values main.go needs to build the sparql.Client itself.
//
// Grounded on config::Config::fromArgs in
// original_source/src/config/Config.cpp: the same flag set, the same
// validation order, and the same one-ExitCode-per-failure convention,
// reshaped from popl's exit()-on-error style into Go's err-return style
// since this module never calls os.Exit outside of cmd/olu.
package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ad-freiburg/olu/internal/driver"
	"github.com/ad-freiburg/olu/internal/planner"
)

// DefaultBatchSize mirrors Config::DEFAULT_BATCH_SIZE.
const DefaultBatchSize = 1000

// timestampLayout is the only timestamp format --timestamp accepts.
const timestampLayout = time.RFC3339

// Config is everything parsed from the command line, split between the
// fields driver.Config understands directly and the handful main.go needs
// to build the sparql.Client (AccessToken never passes through
// driver.Config: it belongs on the client's Authorization header, not the
// driver's decision logic).
type Config struct {
	Driver driver.Config

	SparqlEndpointURI       string
	SparqlEndpointUpdateURI string
	AccessToken             string

	SparqlOutputFile string
	Debug            bool
	IsQLever         bool
	ShowStatistics   bool
}

// RawFlags holds the pflag-bound variables before validation promotes them
// into a Config.
type RawFlags struct {
	graph           string
	accessToken     string
	endpointUpdates string
	input           string
	fileServer      string
	sparqlOutput    string
	debug           bool
	timestamp       string
	sequenceNumber  int64
	batchSize       uint32
	qlever          bool
	statistics      bool
	osm2rdfBinary   string
	osmiumBinary    string
	bbox            string
	polygon         string
	workDir         string
}

// BindFlags registers every flag on fs, matching the short/long names of
// config::Config::fromArgs one for one.
func BindFlags(fs *pflag.FlagSet) *RawFlags {
	r := &RawFlags{}
	fs.StringVarP(&r.graph, "graph", "g", "", "The URI of the graph that you want to update.")
	fs.StringVarP(&r.accessToken, "access-token", "a", "", "The access token for the SPARQL endpoint.")
	fs.StringVarP(&r.endpointUpdates, "endpoint-uri-updates", "u", "", "Specify a different URI for SPARQL updates.")
	fs.StringVarP(&r.input, "input", "i", "", "The path to the directory with the OsmChange files.")
	fs.StringVarP(&r.fileServer, "file-server", "f", "", "The URI of the server with the OsmChange files.")
	fs.StringVarP(&r.sparqlOutput, "sparql-output", "o", "", "Write SPARQL updates to a file instead of sending them to the endpoint.")
	fs.BoolVarP(&r.debug, "debug", "d", false, "If set, all SPARQL queries and their responses are written to the output file.")
	fs.StringVarP(&r.timestamp, "timestamp", "t", "", "The timestamp to start the update process from, RFC3339.")
	fs.Int64VarP(&r.sequenceNumber, "sequence-number", "s", 0, "The sequence number to start the update process from.")
	fs.Uint32Var(&r.batchSize, "batch-size", DefaultBatchSize, "The number of values or triples sent in one batch to the SPARQL endpoint.")
	fs.BoolVar(&r.qlever, "qlever", false, "Specify if the SPARQL endpoint is QLever.")
	fs.BoolVar(&r.statistics, "statistics", false, "Specify if detailed statistics should be added to the output.")
	fs.StringVar(&r.osm2rdfBinary, "osm2rdf-binary", "osm2rdf", "Path to the osm2rdf binary.")
	fs.StringVar(&r.osmiumBinary, "osmium-binary", "osmium", "Path to the osmium binary, used by --bbox/--polygon.")
	fs.StringVar(&r.bbox, "bbox", "", "Restrict the update to a bounding box (minlon,minlat,maxlon,maxlat), via osmium extract.")
	fs.StringVar(&r.polygon, "polygon", "", "Restrict the update to a polygon file, via osmium extract.")
	fs.StringVar(&r.workDir, "work-dir", "", "Scratch directory for per-run intermediate files. Defaults to the OS temp directory.")
	return r
}

// Validate turns raw into a Config, applying the same validation order and
// ExitCode table as config::Config::fromArgs. args is the non-flag argument
// list; exactly one (the SPARQL endpoint URI) is required.
func Validate(raw *RawFlags, args []string) (*Config, ExitCode, error) {
	if len(args) != 1 {
		return nil, EndpointURIMissing, fmt.Errorf("no SPARQL endpoint URI specified")
	}
	endpointURI := args[0]
	if !isValidURI(endpointURI) {
		return nil, EndpointURIInvalid, fmt.Errorf("SPARQL endpoint URI is not valid: %s", endpointURI)
	}

	if (raw.input == "") == (raw.fileServer == "") {
		return nil, IncorrectArguments, fmt.Errorf("you have to EITHER provide --input (a directory of change files) or --file-server (a replication server URI)")
	}

	if raw.input != "" {
		info, err := os.Stat(raw.input)
		if err != nil {
			return nil, InputNotExists, fmt.Errorf("input does not exist: %s", raw.input)
		}
		if !info.IsDir() {
			return nil, InputIsNotDirectory, fmt.Errorf("input is not a directory: %s", raw.input)
		}
	}

	if raw.fileServer != "" && !isValidURI(raw.fileServer) {
		return nil, EndpointURIInvalid, fmt.Errorf("URI for OsmChange file server is not valid: %s", raw.fileServer)
	}

	if raw.graph != "" && !isValidURI(raw.graph) {
		return nil, GraphURIInvalid, fmt.Errorf("URI for SPARQL graph is not valid: %s", raw.graph)
	}

	updateURI := endpointURI
	if raw.endpointUpdates != "" {
		updateURI = raw.endpointUpdates
		if !isValidURI(updateURI) {
			return nil, EndpointUpdateURIInvalid, fmt.Errorf("URI for SPARQL updates is not valid: %s", updateURI)
		}
	}

	var ts time.Time
	if raw.timestamp != "" {
		parsed, err := time.Parse(timestampLayout, raw.timestamp)
		if err != nil {
			return nil, IncorrectArguments, fmt.Errorf("timestamp %q is not RFC3339: %w", raw.timestamp, err)
		}
		ts = parsed
	}

	if raw.polygon != "" {
		if _, err := os.Stat(raw.polygon); err != nil {
			return nil, PolygonFileNotExists, fmt.Errorf("polygon file does not exist: %s", raw.polygon)
		}
	}

	if raw.bbox != "" {
		if err := validateBBox(raw.bbox); err != nil {
			return nil, BBoxInvalid, err
		}
	}

	mode := planner.OutputEndpoint
	if raw.sparqlOutput != "" {
		mode = planner.OutputFile
		if raw.debug {
			mode = planner.OutputDebugFile
		}
	}

	return &Config{
		Driver: driver.Config{
			GraphIRI:          raw.graph,
			FileServerBaseURL: raw.fileServer,
			InputDir:          raw.input,
			SequenceNumber:    raw.sequenceNumber,
			Timestamp:         ts,
			BatchSize:         int(raw.batchSize),
			Mode:              mode,
			WorkDir:           raw.workDir,
			Osm2RdfBinaryPath: raw.osm2rdfBinary,
			OsmiumBinaryPath:  raw.osmiumBinary,
			BBox:              raw.bbox,
			PolygonPath:       raw.polygon,
		},
		SparqlEndpointURI:       endpointURI,
		SparqlEndpointUpdateURI: updateURI,
		AccessToken:             raw.accessToken,
		SparqlOutputFile:        raw.sparqlOutput,
		Debug:                   raw.debug,
		IsQLever:                raw.qlever,
		ShowStatistics:          raw.statistics,
	}, Success, nil
}

func isValidURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return true
}

// validateBBox checks the bbox flag is four comma-separated floats in
// minlon,minlat,maxlon,maxlat order, the shape osmium extract expects.
func validateBBox(s string) error {
	var minlon, minlat, maxlon, maxlat float64
	n, err := fmt.Sscanf(s, "%g,%g,%g,%g", &minlon, &minlat, &maxlon, &maxlat)
	if err != nil || n != 4 {
		return fmt.Errorf("bbox %q is not minlon,minlat,maxlon,maxlat", s)
	}
	if minlon >= maxlon || minlat >= maxlat {
		return fmt.Errorf("bbox %q has min >= max", s)
	}
	return nil
}
