package ports

// StreamConfig describes the single video stream of an output container.
type StreamConfig struct {
	Codec    Codec
	Width    int
	Height   int
	TimeBase Rational
}

// Muxer writes encoded packets into a container file.
// Calls must follow Create, WriteHeader, WritePacket..., WriteTrailer, Close.
type Muxer interface {
	// Create opens the destination for writing.
	Create(path string) error

	// WriteHeader writes the container header for the stream.
	WriteHeader(stream StreamConfig) error

	// WritePacket appends one packet. Packets are stored in call order.
	WritePacket(pkt Packet) error

	// WriteTrailer finalizes the container.
	WriteTrailer() error

	// Close releases the destination. It does not write a trailer.
	Close() error
}
