// Package smartencoder selects an encoder backend for the requested codec,
// falling back to pure-Go Motion JPEG when H.264 is unavailable.
package smartencoder

import (
	"errors"
	"fmt"

	"github.com/user/timelapse/pkg/adapters/h264encoder"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/mjpegencoder"
	"github.com/user/timelapse/pkg/ports"
)

// Backend names the implementation behind the selected codec.
type Backend string

const (
	// BackendFFmpeg encodes H.264 through an ffmpeg/libx264 child process.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendGo encodes Motion JPEG with the standard image/jpeg package.
	BackendGo Backend = "go"
)

// Info contains information about the selected encoder.
type Info struct {
	// Codec is the actual codec being used.
	Codec ports.Codec
	// Backend is the encoding backend being used.
	Backend Backend
	// RequestedCodec is the codec that was originally requested.
	RequestedCodec ports.Codec
	// FallbackUsed indicates whether a fallback occurred.
	FallbackUsed bool
}

// Options configures backend selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// AllowFallback enables fallback to MJPEG when H.264 is not available.
	AllowFallback bool
	// Logger is used by the backends and to log fallback warnings.
	Logger ports.Logger
}

var (
	// ErrNoEncoderAvailable is returned when no encoder is available.
	ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")
	// ErrUnknownCodec is returned for codec names no backend produces.
	ErrUnknownCodec = errors.New("smartencoder: unknown codec")
)

// ParseCodec parses a codec name. An empty name selects H.264.
func ParseCodec(s string) (ports.Codec, error) {
	switch s {
	case "", string(ports.CodecH264), "avc", "x264":
		return ports.CodecH264, nil
	case string(ports.CodecMJPEG), "jpeg":
		return ports.CodecMJPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

// New returns a backend for the preferred codec.
//
// The selection flow for H.264:
//  1. Use ffmpeg if it can be found and lists libx264 among its encoders
//  2. If AllowFallback is true, fall back to MJPEG
//
// MJPEG is always available.
func New(preferred ports.Codec, opts Options) (ports.EncoderBackend, Info, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.FFmpegPath != "" {
		h264encoder.SetFFmpegPath(opts.FFmpegPath)
	}
	info := Info{RequestedCodec: preferred}

	switch preferred {
	case ports.CodecH264:
		return selectH264(opts, info)
	case ports.CodecMJPEG:
		info.Codec = ports.CodecMJPEG
		info.Backend = BackendGo
		return mjpegencoder.NewBackend(opts.Logger), info, nil
	default:
		return nil, Info{}, fmt.Errorf("%w: %q", ErrUnknownCodec, preferred)
	}
}

// NewWithoutFallback is New with fallback disabled.
// Returns an error if the requested codec is not available.
func NewWithoutFallback(preferred ports.Codec, opts Options) (ports.EncoderBackend, Info, error) {
	opts.AllowFallback = false
	return New(preferred, opts)
}

func selectH264(opts Options, info Info) (ports.EncoderBackend, Info, error) {
	backend := h264encoder.NewBackend(opts.Logger)
	err := backend.Setup()
	if err == nil {
		info.Codec = ports.CodecH264
		info.Backend = BackendFFmpeg
		return backend, info, nil
	}

	if !opts.AllowFallback {
		return nil, Info{}, fmt.Errorf("%w: %w", ErrNoEncoderAvailable, err)
	}

	opts.Logger.Warn("H.264 encoder not available (%v), falling back to MJPEG", err)
	info.Codec = ports.CodecMJPEG
	info.Backend = BackendGo
	info.FallbackUsed = true
	return mjpegencoder.NewBackend(opts.Logger), info, nil
}

// FallbackFor returns an MJPEG backend to retry a run that failed with err.
// It applies only when H.264 was selected, fallback is allowed and err is
// one MJPEG does not share, such as odd frame dimensions.
func FallbackFor(err error, info Info, opts Options) (ports.EncoderBackend, Info, bool) {
	if !opts.AllowFallback || info.Codec != ports.CodecH264 || !errors.Is(err, h264encoder.ErrOddDimensions) {
		return nil, info, false
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	opts.Logger.Warn("H.264 encoder not available (%v), falling back to MJPEG", err)
	info.Codec = ports.CodecMJPEG
	info.Backend = BackendGo
	info.FallbackUsed = true
	return mjpegencoder.NewBackend(opts.Logger), info, true
}

// IsH264Available checks if ffmpeg can be found and was built with libx264.
func IsH264Available() bool {
	return h264encoder.NewBackend(logger.NewNoop()).Setup() == nil
}
