package mocks

import (
	"fmt"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// VideoEncoder is a scripted mock implementation of ports.VideoEncoder.
// It holds Latency frames before emitting one packet per frame, the way a
// codec with lookahead does, and releases everything on Flush.
type VideoEncoder struct {
	// Latency is the number of frames held back before output starts.
	Latency int

	OpenFunc    func(cfg ports.EncoderConfig) error
	SubmitFunc  func(frame *pipeline.YUVFrame) error
	ReceiveFunc func() (ports.Packet, error)
	FlushFunc   func() error

	// Recorded calls for verification
	Config       ports.EncoderConfig
	OpenCalled   bool
	SubmittedPTS []int64
	ReceiveCalls int
	FlushCalled  bool
	CloseCalled  bool

	pending []int64
	ready   []ports.Packet
	flushed bool
}

func (m *VideoEncoder) Open(cfg ports.EncoderConfig) error {
	m.OpenCalled = true
	m.Config = cfg
	if m.OpenFunc != nil {
		return m.OpenFunc(cfg)
	}
	return nil
}

func (m *VideoEncoder) Submit(frame *pipeline.YUVFrame) error {
	m.SubmittedPTS = append(m.SubmittedPTS, frame.PTS)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(frame)
	}
	if m.flushed {
		return fmt.Errorf("mock encoder: submit after flush")
	}
	m.pending = append(m.pending, frame.PTS)
	for len(m.pending) > m.Latency {
		m.emit()
	}
	return nil
}

func (m *VideoEncoder) Receive() (ports.Packet, error) {
	m.ReceiveCalls++
	if m.ReceiveFunc != nil {
		return m.ReceiveFunc()
	}
	if len(m.ready) > 0 {
		pkt := m.ready[0]
		m.ready = m.ready[1:]
		return pkt, nil
	}
	if m.flushed {
		return ports.Packet{}, ports.ErrEndOfStream
	}
	return ports.Packet{}, ports.ErrAgain
}

func (m *VideoEncoder) Flush() error {
	m.FlushCalled = true
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	m.flushed = true
	for len(m.pending) > 0 {
		m.emit()
	}
	return nil
}

func (m *VideoEncoder) Close() error {
	m.CloseCalled = true
	return nil
}

func (m *VideoEncoder) emit() {
	pts := m.pending[0]
	m.pending = m.pending[1:]
	m.ready = append(m.ready, ports.Packet{
		Data:     []byte(fmt.Sprintf("packet-%d", pts)),
		PTS:      pts,
		DTS:      pts,
		Keyframe: pts == 0,
	})
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

// EncoderBackend is a mock implementation of ports.EncoderBackend that
// hands out a single preconfigured encoder.
type EncoderBackend struct {
	CodecValue ports.Codec
	Encoder    *VideoEncoder
	SetupFunc  func() error

	SetupCalls int
}

func (m *EncoderBackend) Codec() ports.Codec {
	if m.CodecValue == "" {
		return ports.CodecMJPEG
	}
	return m.CodecValue
}

func (m *EncoderBackend) Setup() error {
	m.SetupCalls++
	if m.SetupFunc != nil {
		return m.SetupFunc()
	}
	return nil
}

func (m *EncoderBackend) NewEncoder() ports.VideoEncoder {
	if m.Encoder == nil {
		m.Encoder = &VideoEncoder{}
	}
	return m.Encoder
}

var _ ports.EncoderBackend = (*EncoderBackend)(nil)
