package ports

import (
	"github.com/user/timelapse/pkg/pipeline"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves the raw planes of a converted frame.
	SaveFrame(index int, frame *pipeline.YUVFrame) error

	// SaveRunJSON saves the run metadata as JSON.
	SaveRunJSON(data []byte) error
}
