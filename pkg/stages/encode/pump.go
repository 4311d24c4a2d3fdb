// Package encode drives a stateful video encoder: frames go in, packets
// are drained out, and end of stream is reached through an explicit flush.
package encode

import (
	"errors"
	"fmt"
	"iter"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// State is the lifecycle position of a Pump.
type State int

const (
	// Configured: parameters set, encoder not yet opened.
	Configured State = iota
	// Active: accepting frames.
	Active
	// Flushing: end of input signalled, remaining packets are being drained.
	Flushing
	// Closed: end of stream reached or pump closed.
	Closed
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Active:
		return "active"
	case Flushing:
		return "flushing"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrInvalidState is wrapped into errors for calls made in the wrong state.
var ErrInvalidState = errors.New("invalid pump state")

// Pump owns one encoder for the duration of a run.
// It forwards packets in exactly the order the encoder emits them.
type Pump struct {
	enc    ports.VideoEncoder
	cfg    ports.EncoderConfig
	logger ports.Logger

	state     State
	submitted int
	emitted   int
}

// NewPump creates a pump in the Configured state.
func NewPump(enc ports.VideoEncoder, cfg ports.EncoderConfig, logger ports.Logger) *Pump {
	return &Pump{
		enc:    enc,
		cfg:    cfg,
		logger: logger.WithComponent("encode"),
		state:  Configured,
	}
}

// State returns the current lifecycle state.
func (p *Pump) State() State { return p.state }

// Config returns the encoder configuration.
func (p *Pump) Config() ports.EncoderConfig { return p.cfg }

// Submitted returns the number of frames accepted so far.
func (p *Pump) Submitted() int { return p.submitted }

// Emitted returns the number of packets drained so far.
func (p *Pump) Emitted() int { return p.emitted }

// Open opens the encoder and moves the pump to Active.
func (p *Pump) Open() error {
	if p.state != Configured {
		return p.stateError("open")
	}
	if p.cfg.Width <= 0 || p.cfg.Height <= 0 {
		return fmt.Errorf("%w: invalid frame size %dx%d", pipeline.ErrEncoder, p.cfg.Width, p.cfg.Height)
	}
	if p.cfg.TimeBase.Num <= 0 || p.cfg.TimeBase.Den <= 0 {
		return fmt.Errorf("%w: invalid time base %s", pipeline.ErrEncoder, p.cfg.TimeBase)
	}
	if err := p.enc.Open(p.cfg); err != nil {
		return fmt.Errorf("%w: open %s encoder: %w", pipeline.ErrEncoder, p.cfg.Codec, err)
	}
	p.state = Active
	p.logger.Debug("Opened %s encoder %dx%d, time base %s", p.cfg.Codec, p.cfg.Width, p.cfg.Height, p.cfg.TimeBase)
	return nil
}

// Submit hands one frame to the encoder. Only valid while Active.
func (p *Pump) Submit(frame *pipeline.YUVFrame) error {
	if p.state != Active {
		return p.stateError("submit")
	}
	if frame.Width != p.cfg.Width || frame.Height != p.cfg.Height {
		return fmt.Errorf("%w: frame %d is %s, encoder expects %dx%d",
			pipeline.ErrDimensionMismatch, frame.PTS, frame.Bounds(), p.cfg.Width, p.cfg.Height)
	}
	if err := p.enc.Submit(frame); err != nil {
		return fmt.Errorf("%w: submit frame %d: %w", pipeline.ErrEncoder, frame.PTS, err)
	}
	p.submitted++
	return nil
}

// Drain yields every packet the encoder has ready.
//
// While Active a pass ends when the encoder needs more input. While
// Flushing the pass ends at end of stream and the pump becomes Closed.
// End of stream while Active, "needs more input" while Flushing, and any
// other encoder failure are yielded as ErrEncoder and end the pass.
// In Configured or Closed state Drain yields nothing.
func (p *Pump) Drain() iter.Seq2[ports.Packet, error] {
	return func(yield func(ports.Packet, error) bool) {
		if p.state != Active && p.state != Flushing {
			return
		}
		for {
			pkt, err := p.enc.Receive()
			switch {
			case err == nil:
				p.emitted++
				p.logger.Debug("Packet pts=%d size=%d key=%t", pkt.PTS, len(pkt.Data), pkt.Keyframe)
				if !yield(pkt, nil) {
					return
				}

			case errors.Is(err, ports.ErrAgain):
				if p.state == Flushing {
					yield(ports.Packet{}, fmt.Errorf("%w: encoder asked for input after flush", pipeline.ErrEncoder))
				}
				return

			case errors.Is(err, ports.ErrEndOfStream):
				if p.state == Active {
					yield(ports.Packet{}, fmt.Errorf("%w: unexpected end of stream before flush", pipeline.ErrEncoder))
					return
				}
				p.state = Closed
				p.logger.Debug("End of stream after %d packets", p.emitted)
				return

			default:
				yield(ports.Packet{}, fmt.Errorf("%w: receive packet: %w", pipeline.ErrEncoder, err))
				return
			}
		}
	}
}

// Flush signals end of input. Only valid once, while Active.
func (p *Pump) Flush() error {
	if p.state != Active {
		return p.stateError("flush")
	}
	if err := p.enc.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", pipeline.ErrEncoder, err)
	}
	p.state = Flushing
	p.logger.Debug("Flushing encoder after %d frames", p.submitted)
	return nil
}

// Close releases the encoder. It is safe to call in any state and more
// than once; packets not yet drained are discarded.
func (p *Pump) Close() error {
	if p.enc == nil {
		return nil
	}
	err := p.enc.Close()
	p.enc = nil
	p.state = Closed
	if err != nil {
		return fmt.Errorf("%w: close: %w", pipeline.ErrEncoder, err)
	}
	return nil
}

func (p *Pump) stateError(op string) error {
	return fmt.Errorf("%w: %s while %s: %w", pipeline.ErrEncoder, op, p.state, ErrInvalidState)
}
