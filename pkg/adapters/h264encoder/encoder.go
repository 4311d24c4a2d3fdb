// Package h264encoder provides H.264 encoding through an ffmpeg child
// process running libx264.
//
// Raw yuv420p frames are piped to ffmpeg's stdin; a reader goroutine
// splits the Annex B stream on stdout into access units and queues them
// as packets. The queue is unbounded so a full stdout pipe never blocks
// frame submission.
package h264encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/user/timelapse/pkg/avc"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// Backend creates ffmpeg-backed H.264 encoders.
type Backend struct {
	ffmpegPath string
	logger     ports.Logger
}

// NewBackend creates a backend. Setup must succeed before NewEncoder is used.
func NewBackend(logger ports.Logger) *Backend {
	return &Backend{logger: logger.WithComponent("h264encoder")}
}

// Codec returns ports.CodecH264.
func (b *Backend) Codec() ports.Codec { return ports.CodecH264 }

// Setup locates ffmpeg and checks that it was built with libx264.
func (b *Backend) Setup() error {
	path, err := FindFFmpeg()
	if err != nil {
		return err
	}
	ok, err := hasLibx264(path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLibx264Missing, path)
	}
	b.ffmpegPath = path
	b.logger.Debug("Using ffmpeg at %s", path)
	return nil
}

// NewEncoder creates an unopened encoder.
func (b *Backend) NewEncoder() ports.VideoEncoder {
	return &Encoder{ffmpegPath: b.ffmpegPath, logger: b.logger}
}

// Encoder implements ports.VideoEncoder on top of one ffmpeg process.
type Encoder struct {
	ffmpegPath string
	logger     ports.Logger
	cfg        ports.EncoderConfig

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	row    []byte // reused packed frame buffer

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []ports.Packet
	nextPTS int64
	flushed bool
	done    bool  // reader goroutine finished and ffmpeg exited
	waitErr error // ffmpeg exit status or stdout read error
	exited  chan struct{}
}

// Open validates the configuration and starts ffmpeg.
func (e *Encoder) Open(cfg ports.EncoderConfig) error {
	if e.cmd != nil {
		return fmt.Errorf("h264encoder: already open")
	}
	if cfg.Codec != ports.CodecH264 || (cfg.PixelFormat != "" && cfg.PixelFormat != ports.PixelFormatYUV420P) {
		return fmt.Errorf("%w: %s/%s", ErrUnsupportedFormat, cfg.Codec, cfg.PixelFormat)
	}
	if cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return fmt.Errorf("%w: got %dx%d", ErrOddDimensions, cfg.Width, cfg.Height)
	}
	if cfg.FPS() <= 0 {
		return fmt.Errorf("h264encoder: invalid time base %s", cfg.TimeBase)
	}
	if e.ffmpegPath == "" {
		path, err := FindFFmpeg()
		if err != nil {
			return err
		}
		e.ffmpegPath = path
	}

	args := ffmpegArgs(cfg.Width, cfg.Height, cfg.FPS(), cfg.Quality, cfg.Bitrate, cfg.Preset)
	e.logger.Debug("Starting ffmpeg %s", strings.Join(args, " "))

	cmd := exec.Command(e.ffmpegPath, args...)
	cmd.Stderr = &e.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	e.cfg = cfg
	e.cmd = cmd
	e.stdin = stdin
	e.cond = sync.NewCond(&e.mu)
	e.exited = make(chan struct{})
	go e.readLoop(stdout)
	return nil
}

// readLoop turns ffmpeg's stdout into queued packets, then reaps the process.
func (e *Encoder) readLoop(stdout io.Reader) {
	var splitter avc.Splitter
	buf := make([]byte, 64*1024)
	var readErr error
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			e.enqueue(splitter.Write(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}
	if tail := splitter.Flush(); tail != nil {
		e.enqueue([][]byte{tail})
	}

	waitErr := e.cmd.Wait()

	e.mu.Lock()
	switch {
	case readErr != nil:
		e.waitErr = fmt.Errorf("%w: read output: %w", ErrEncodingFailed, readErr)
	case waitErr != nil:
		e.waitErr = fmt.Errorf("%w: %w: %s", ErrEncodingFailed, waitErr, strings.TrimSpace(e.stderr.String()))
	}
	e.done = true
	e.cond.Broadcast()
	e.mu.Unlock()
	close(e.exited)
}

func (e *Encoder) enqueue(aus [][]byte) {
	if len(aus) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, au := range aus {
		// No B-frames: decode order equals presentation order.
		pts := e.nextPTS
		e.nextPTS++
		e.queue = append(e.queue, ports.Packet{
			Data:     au,
			PTS:      pts,
			DTS:      pts,
			Keyframe: avc.IsKeyframe(au),
		})
	}
	e.cond.Broadcast()
}

// Submit writes one frame to ffmpeg, dropping stride padding.
func (e *Encoder) Submit(frame *pipeline.YUVFrame) error {
	if e.stdin == nil {
		if e.cmd != nil {
			return ErrFlushed
		}
		return ErrNotOpen
	}
	if frame.Width != e.cfg.Width || frame.Height != e.cfg.Height {
		return fmt.Errorf("h264encoder: frame %s does not match %dx%d", frame.Bounds(), e.cfg.Width, e.cfg.Height)
	}

	out := frame.AppendPacked(e.row[:0])
	e.row = out

	if _, err := e.stdin.Write(out); err != nil {
		return e.processError(fmt.Errorf("failed to write frame %d: %w", frame.PTS, err))
	}
	return nil
}

// Receive returns the next access unit. Before Flush it never blocks;
// after Flush it waits for ffmpeg to produce output or exit.
func (e *Encoder) Receive() (ports.Packet, error) {
	if e.cmd == nil {
		return ports.Packet{}, ErrNotOpen
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		if len(e.queue) > 0 {
			pkt := e.queue[0]
			e.queue[0] = ports.Packet{}
			e.queue = e.queue[1:]
			return pkt, nil
		}
		if e.done {
			if e.waitErr != nil {
				return ports.Packet{}, e.waitErr
			}
			if !e.flushed {
				return ports.Packet{}, fmt.Errorf("%w: ffmpeg exited before end of input", ErrEncodingFailed)
			}
			return ports.Packet{}, ports.ErrEndOfStream
		}
		if !e.flushed {
			return ports.Packet{}, ports.ErrAgain
		}
		e.cond.Wait()
	}
}

// Flush closes ffmpeg's stdin so it encodes the frames it still holds.
func (e *Encoder) Flush() error {
	if e.cmd == nil {
		return ErrNotOpen
	}
	if e.stdin == nil {
		return ErrFlushed
	}
	err := e.stdin.Close()
	e.stdin = nil

	e.mu.Lock()
	e.flushed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to close ffmpeg input: %w", err)
	}
	return nil
}

// Close stops ffmpeg if it is still running and waits for it to exit.
func (e *Encoder) Close() error {
	if e.cmd == nil {
		return nil
	}
	if e.stdin != nil {
		e.stdin.Close()
		e.stdin = nil
	}

	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if !done && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	<-e.exited
	return nil
}

// processError attaches ffmpeg's own diagnostics to a pipe failure.
func (e *Encoder) processError(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done && e.waitErr != nil {
		return fmt.Errorf("%w (%w)", err, e.waitErr)
	}
	return fmt.Errorf("%w: %w", ErrEncodingFailed, err)
}

var (
	_ ports.VideoEncoder   = (*Encoder)(nil)
	_ ports.EncoderBackend = (*Backend)(nil)
)
