// Package mjpegencoder provides Motion JPEG encoding in pure Go.
// Every frame becomes one intra-coded JPEG picture, so packets come out
// in submission order with no delay. Studio-range frames are stretched to
// the full range JFIF decoders assume.
package mjpegencoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"sync"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// DefaultQuality is the JPEG quality used when no quality is configured.
const DefaultQuality = 85

var (
	// ErrNotOpen is returned when encoder methods are called before Open.
	ErrNotOpen = errors.New("mjpegencoder: encoder not open")
	// ErrFlushed is returned when frames are submitted after Flush.
	ErrFlushed = errors.New("mjpegencoder: encoder already flushed")
	// ErrUnsupportedFormat is returned for configurations other than MJPEG yuv420p.
	ErrUnsupportedFormat = errors.New("mjpegencoder: unsupported codec or pixel format")
)

// Backend creates MJPEG encoders. It needs no external tools.
type Backend struct {
	logger ports.Logger
}

// NewBackend creates a backend.
func NewBackend(logger ports.Logger) *Backend {
	return &Backend{logger: logger.WithComponent("mjpegencoder")}
}

// Codec returns ports.CodecMJPEG.
func (b *Backend) Codec() ports.Codec { return ports.CodecMJPEG }

// Setup has nothing to initialize.
func (b *Backend) Setup() error { return nil }

// NewEncoder creates an unopened encoder.
func (b *Backend) NewEncoder() ports.VideoEncoder {
	return &Encoder{logger: b.logger}
}

// Encoder implements ports.VideoEncoder with image/jpeg.
type Encoder struct {
	logger ports.Logger

	mu      sync.Mutex
	open    bool
	flushed bool
	cfg     ports.EncoderConfig
	quality int
	img     *image.YCbCr
	queue   []ports.Packet
}

// Open validates the configuration and allocates the picture buffer.
func (e *Encoder) Open(cfg ports.EncoderConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cfg.Codec != ports.CodecMJPEG || (cfg.PixelFormat != "" && cfg.PixelFormat != ports.PixelFormatYUV420P) {
		return fmt.Errorf("%w: %s/%s", ErrUnsupportedFormat, cfg.Codec, cfg.PixelFormat)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("mjpegencoder: invalid frame size %dx%d", cfg.Width, cfg.Height)
	}

	e.cfg = cfg
	e.quality = jpegQuality(cfg.Quality)
	e.img = image.NewYCbCr(image.Rect(0, 0, cfg.Width, cfg.Height), image.YCbCrSubsampleRatio420)
	e.queue = nil
	e.flushed = false
	e.open = true
	e.logger.Debug("Opened MJPEG encoder %dx%d, quality %d", cfg.Width, cfg.Height, e.quality)
	return nil
}

// jpegQuality maps the 1-63 scale (lower is better) onto JPEG's 1-100.
func jpegQuality(q int) int {
	if q <= 0 || q > 63 {
		return DefaultQuality
	}
	return max(100-q*100/63, 1)
}

// Submit encodes one frame and queues its packet.
func (e *Encoder) Submit(frame *pipeline.YUVFrame) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return ErrNotOpen
	}
	if e.flushed {
		return ErrFlushed
	}
	if frame.Width != e.cfg.Width || frame.Height != e.cfg.Height {
		return fmt.Errorf("mjpegencoder: frame %s does not match %dx%d", frame.Bounds(), e.cfg.Width, e.cfg.Height)
	}

	e.load(frame)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, e.img, &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("mjpegencoder: encode frame %d: %w", frame.PTS, err)
	}
	e.queue = append(e.queue, ports.Packet{
		Data:     buf.Bytes(),
		PTS:      frame.PTS,
		DTS:      frame.PTS,
		Keyframe: true,
	})
	return nil
}

// JFIF pictures are full range; frames carry BT.601 studio range.
var lumaFull, chromaFull [256]uint8

func init() {
	for i := range 256 {
		lumaFull[i] = expand(float64(i-16)*255/219, 0)
		chromaFull[i] = expand(float64(i-128)*255/224, 128)
	}
}

func expand(v, offset float64) uint8 {
	return uint8(min(max(math.Round(v+offset), 0), 255))
}

// load copies the frame planes into the picture buffer, expanding them to
// full range. image.YCbCr keeps a chroma row for a trailing odd luma row;
// it repeats the last one.
func (e *Encoder) load(frame *pipeline.YUVFrame) {
	img := e.img
	for y := 0; y < frame.Height; y++ {
		remap(img.Y[y*img.YStride:y*img.YStride+frame.Width], frame.Y[y*frame.Strides.Y:], &lumaFull)
	}

	cw := pipeline.ChromaWidth(frame.Width)
	ch := pipeline.ChromaHeight(frame.Height)
	rows := (frame.Height + 1) / 2
	for y := 0; y < rows; y++ {
		src := min(y, ch-1)
		if src < 0 {
			// Single-row picture: no chroma was sampled.
			for x := 0; x < cw; x++ {
				img.Cb[y*img.CStride+x] = 128
				img.Cr[y*img.CStride+x] = 128
			}
			continue
		}
		remap(img.Cb[y*img.CStride:y*img.CStride+cw], frame.U[src*frame.Strides.U:], &chromaFull)
		remap(img.Cr[y*img.CStride:y*img.CStride+cw], frame.V[src*frame.Strides.V:], &chromaFull)
	}
}

func remap(dst, src []byte, table *[256]uint8) {
	for i := range dst {
		dst[i] = table[src[i]]
	}
}

// Receive returns the next queued packet.
func (e *Encoder) Receive() (ports.Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return ports.Packet{}, ErrNotOpen
	}
	if len(e.queue) > 0 {
		pkt := e.queue[0]
		e.queue[0] = ports.Packet{}
		e.queue = e.queue[1:]
		return pkt, nil
	}
	if e.flushed {
		return ports.Packet{}, ports.ErrEndOfStream
	}
	return ports.Packet{}, ports.ErrAgain
}

// Flush marks the end of input.
func (e *Encoder) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return ErrNotOpen
	}
	if e.flushed {
		return ErrFlushed
	}
	e.flushed = true
	return nil
}

// Close releases the picture buffer.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.img = nil
	e.queue = nil
	return nil
}

var (
	_ ports.VideoEncoder   = (*Encoder)(nil)
	_ ports.EncoderBackend = (*Backend)(nil)
)
