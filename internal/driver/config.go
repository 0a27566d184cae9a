package driver

import (
	"time"

	"github.com/ad-freiburg/olu/internal/planner"
)

// Config is every option the driver needs to run one update, collected from
// the parsed CLI flags of spec.md §6. Exactly one of FileServerBaseURL /
// InputDir must be set; the CLI layer enforces that before constructing a
// Config.
type Config struct {
	GraphIRI string

	// FileServerBaseURL is the replication server base URI (--file-server).
	FileServerBaseURL string
	// InputDir is a local directory of already-downloaded .osc[.gz] files
	// (--input), used instead of talking to a replication server.
	InputDir string

	// SequenceNumber is the user's explicit start override
	// (--sequence-number); zero means unset.
	SequenceNumber int64
	// Timestamp is the user's start-by-time override (--timestamp); the
	// zero Time means unset.
	Timestamp time.Time

	BatchSize int

	Mode planner.OutputMode

	// WorkDir is the base scratch directory each run creates a
	// uuid-named subdirectory under, for downloaded change files and
	// synthetic/converter intermediates.
	WorkDir string

	Osm2RdfBinaryPath string
	OsmiumBinaryPath  string
	// BBox/PolygonPath request a geographic extract pass before
	// conversion; PolygonPath wins when both are set. Empty/empty means
	// no extract.
	BBox        string
	PolygonPath string
}
