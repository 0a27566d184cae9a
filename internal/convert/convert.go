// Package convert shells out to the external osm2rdf converter — and,
// optionally, osmium extract for a bounding-box or polygon restricted run —
// treating both as black boxes invoked over os/exec.
//
// Grounded on the external-process pattern in
// internal/encryption/keyprovider/externalcommand/provider.go: build an
// *exec.Cmd with buffered Stdout/Stderr, run it, and turn a non-zero exit
// into an error that carries the process's stderr output.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/ad-freiburg/olu/internal/diags"
)

// Osm2RdfOptions configures one osm2rdf invocation: convert InputPath (OSM
// XML) into RDF turtle at OutputPath.
type Osm2RdfOptions struct {
	// BinaryPath is the osm2rdf executable to invoke; defaults to "osm2rdf"
	// resolved against PATH.
	BinaryPath string
	InputPath  string
	OutputPath string
	// ExtraArgs is appended verbatim, for options this package doesn't
	// model directly (e.g. --cache-dir, --store-locations).
	ExtraArgs []string
}

func (o Osm2RdfOptions) binary() string {
	if o.BinaryPath != "" {
		return o.BinaryPath
	}
	return "osm2rdf"
}

// RunOsm2Rdf invokes osm2rdf, treating the converter as a black box: this
// package only shapes its command line and captures its exit status, never
// its internal behavior.
func RunOsm2Rdf(ctx context.Context, opts Osm2RdfOptions) *diags.Diagnostic {
	if opts.InputPath == "" || opts.OutputPath == "" {
		return diags.New(diags.KindConfig, "osm2rdf invocation requires both an input and output path", nil)
	}
	args := append([]string{opts.InputPath, "-o", opts.OutputPath}, opts.ExtraArgs...)
	return runCommand(ctx, opts.binary(), args)
}

// ExtractOptions configures an `osmium extract` bounding-box or polygon
// restricted pass, used when the run is scoped to a region rather than the
// whole planet.
type ExtractOptions struct {
	// BinaryPath is the osmium executable; defaults to "osmium".
	BinaryPath  string
	InputPath   string
	OutputPath  string
	// BBox is "minlon,minlat,maxlon,maxlat"; leave empty when PolygonPath
	// is set.
	BBox string
	// PolygonPath is a path to a poly-format polygon file; takes
	// precedence over BBox when both are set, matching the "smart" extract
	// strategy's polygon-over-bbox preference in
	// original_source/include/config/Config.h.
	PolygonPath string
}

func (o ExtractOptions) binary() string {
	if o.BinaryPath != "" {
		return o.BinaryPath
	}
	return "osmium"
}

// RunExtract invokes `osmium extract`. Choosing whether a run needs
// extraction at all, and which of BBox/PolygonPath to populate, is the
// driver's job; this function only requires that at least one is set.
func RunExtract(ctx context.Context, opts ExtractOptions) *diags.Diagnostic {
	if opts.InputPath == "" || opts.OutputPath == "" {
		return diags.New(diags.KindConfig, "osmium extract requires both an input and output path", nil)
	}
	args := []string{"extract", "-o", opts.OutputPath, "--overwrite"}
	switch {
	case opts.PolygonPath != "":
		args = append(args, "-p", opts.PolygonPath)
	case opts.BBox != "":
		args = append(args, "-b", opts.BBox)
	default:
		return diags.New(diags.KindConfig, "osmium extract requires either a bounding box or a polygon file", nil)
	}
	args = append(args, opts.InputPath)
	return runCommand(ctx, opts.binary(), args)
}

func runCommand(ctx context.Context, name string, args []string) *diags.Diagnostic {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return diags.New(diags.KindTransport,
				fmt.Sprintf("%s exited with status %d", name, exitErr.ExitCode()),
				fmt.Errorf("%w\nstderr:\n%s", err, stderr.String()))
		}
		return diags.New(diags.KindTransport, fmt.Sprintf("failed to run %s", name), err)
	}
	return nil
}
