// Package ports defines interfaces for external dependencies.
package ports

import (
	"errors"
	"fmt"

	"github.com/user/timelapse/pkg/pipeline"
)

// Codec identifies the video codec of a run.
type Codec string

const (
	// CodecH264 is H.264/AVC.
	CodecH264 Codec = "h264"
	// CodecMJPEG is Motion JPEG, one intra-coded JPEG picture per frame.
	CodecMJPEG Codec = "mjpeg"
)

// PixelFormat names the raw picture layout handed to an encoder.
type PixelFormat string

// PixelFormatYUV420P is planar YUV with 2x2 chroma subsampling.
const PixelFormatYUV420P PixelFormat = "yuv420p"

// Rational is a fraction such as a time base.
type Rational struct {
	Num int
	Den int
}

// String returns the fraction as num/den.
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// EncoderConfig configures a video encoder before it is opened.
type EncoderConfig struct {
	Width       int
	Height      int
	PixelFormat PixelFormat
	TimeBase    Rational // duration of one PTS unit, 1/fps
	Codec       Codec

	Quality int    // CRF 0-63 (lower is higher quality), 0 = codec default
	Bitrate int    // Target bitrate in kbps, 0 = unconstrained
	Preset  string // Speed/efficiency preset, codec specific
}

// FPS returns the frame rate implied by the time base.
func (c EncoderConfig) FPS() int {
	if c.TimeBase.Num == 0 {
		return 0
	}
	return c.TimeBase.Den / c.TimeBase.Num
}

// Packet is one unit of compressed bitstream emitted by an encoder.
type Packet struct {
	Data        []byte
	PTS         int64
	DTS         int64
	Keyframe    bool
	StreamIndex int
}

var (
	// ErrAgain is returned by Receive when no packet is ready yet.
	// More input (or a flush) is needed before the next packet appears.
	ErrAgain = errors.New("encoder: no packet ready")

	// ErrEndOfStream is returned by Receive once a flushed encoder has
	// emitted its last packet.
	ErrEndOfStream = errors.New("encoder: end of stream")
)

// VideoEncoder is a handle on a stateful codec.
// Frames go in through Submit, packets come out through Receive, and the
// two are decoupled: a codec may hold several frames before emitting
// anything and may emit several packets for one frame.
type VideoEncoder interface {
	// Open configures and opens the codec.
	Open(cfg EncoderConfig) error

	// Submit hands one raw frame to the codec.
	Submit(frame *pipeline.YUVFrame) error

	// Receive returns the next ready packet, ErrAgain when none is ready,
	// or ErrEndOfStream after Flush once everything has been emitted.
	// After Flush, Receive waits for pending output instead of returning ErrAgain.
	Receive() (Packet, error)

	// Flush signals that no more frames will be submitted.
	Flush() error

	// Close releases codec resources.
	Close() error
}

// EncoderBackend creates encoders for one codec.
type EncoderBackend interface {
	// Codec returns the codec every encoder of this backend produces.
	Codec() Codec

	// Setup performs one-time, process-wide initialization. It must be
	// called before NewEncoder.
	Setup() error

	// NewEncoder creates an unopened encoder.
	NewEncoder() VideoEncoder
}
