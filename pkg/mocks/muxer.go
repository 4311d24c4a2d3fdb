package mocks

import (
	"github.com/user/timelapse/pkg/ports"
)

// Muxer is a mock implementation of ports.Muxer that records every call.
type Muxer struct {
	CreateFunc       func(path string) error
	WriteHeaderFunc  func(stream ports.StreamConfig) error
	WritePacketFunc  func(pkt ports.Packet) error
	WriteTrailerFunc func() error

	// Recorded calls for verification
	Calls   []string
	Path    string
	Stream  ports.StreamConfig
	Packets []ports.Packet
}

func (m *Muxer) Create(path string) error {
	m.Calls = append(m.Calls, "create")
	m.Path = path
	if m.CreateFunc != nil {
		return m.CreateFunc(path)
	}
	return nil
}

func (m *Muxer) WriteHeader(stream ports.StreamConfig) error {
	m.Calls = append(m.Calls, "header")
	m.Stream = stream
	if m.WriteHeaderFunc != nil {
		return m.WriteHeaderFunc(stream)
	}
	return nil
}

func (m *Muxer) WritePacket(pkt ports.Packet) error {
	m.Calls = append(m.Calls, "packet")
	m.Packets = append(m.Packets, pkt)
	if m.WritePacketFunc != nil {
		return m.WritePacketFunc(pkt)
	}
	return nil
}

func (m *Muxer) WriteTrailer() error {
	m.Calls = append(m.Calls, "trailer")
	if m.WriteTrailerFunc != nil {
		return m.WriteTrailerFunc()
	}
	return nil
}

func (m *Muxer) Close() error {
	m.Calls = append(m.Calls, "close")
	return nil
}

var _ ports.Muxer = (*Muxer)(nil)
