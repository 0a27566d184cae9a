package changefile

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/ad-freiburg/olu/internal/diags"
)

// Source is one input to the merger: a named .osc or .osc.gz file. Grounded
// on the teacher's own plain compress/gzip use (internal/oci/compression.go)
// rather than a third-party gzip wrapper, since no pack dependency offers a
// better fit than the stdlib for single-stream gunzip.
type Source struct {
	Name string
	Path string
}

// Open returns a reader over the source's decompressed content. The caller
// must Close the returned ReadCloser.
func (s Source) Open() (io.ReadCloser, *diags.Diagnostic) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, diags.New(diags.KindTransport, "failed to open change file", err)
	}
	if !strings.HasSuffix(s.Path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, diags.New(diags.KindParse, "failed to open gzip change file", err)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

// gzipReadCloser closes both the gzip stream and the underlying file.
type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}
