package h264encoder

import "errors"

var (
	// ErrNotOpen is returned when encoder methods are called before Open.
	ErrNotOpen = errors.New("h264encoder: encoder not open")

	// ErrEncodingFailed is returned when the ffmpeg process fails.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")

	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("h264encoder: ffmpeg not found in PATH")

	// ErrLibx264Missing is returned when ffmpeg was built without libx264.
	ErrLibx264Missing = errors.New("h264encoder: ffmpeg has no libx264 encoder")

	// ErrOddDimensions is returned for frame sizes libx264 cannot encode as 4:2:0.
	ErrOddDimensions = errors.New("h264encoder: width and height must be even")

	// ErrUnsupportedFormat is returned for configurations other than H.264 yuv420p.
	ErrUnsupportedFormat = errors.New("h264encoder: unsupported codec or pixel format")

	// ErrFlushed is returned when frames are submitted after Flush.
	ErrFlushed = errors.New("h264encoder: encoder already flushed")
)
