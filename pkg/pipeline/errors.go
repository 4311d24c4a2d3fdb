package pipeline

import "errors"

// Error kinds of a run. Stages wrap their causes with one of these so
// callers can classify failures with errors.Is.
var (
	// ErrEmptyInput means the source held no candidate images. It is not a
	// failure: the run ends without producing output.
	ErrEmptyInput = errors.New("no input images")

	// ErrDecode means an input image could not be read or decoded.
	ErrDecode = errors.New("decode error")

	// ErrDimensionMismatch means a raster reached the converter with a size
	// other than the target geometry. It indicates a programming error.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEncoder means the codec rejected its configuration or a submission.
	ErrEncoder = errors.New("encoder error")

	// ErrOutput means the container could not be created or written.
	ErrOutput = errors.New("output error")
)
