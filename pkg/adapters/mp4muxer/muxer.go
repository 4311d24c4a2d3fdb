// Package mp4muxer writes a single video track into a progressive MP4 file.
//
// The file is laid out as ftyp, mdat, moov. Packets are appended to the
// mdat payload as they arrive; the sample tables are kept in memory and
// written as moov by WriteTrailer, which also patches the mdat size.
package mp4muxer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/timelapse/pkg/avc"
	"github.com/user/timelapse/pkg/ports"
)

// mdat header with a 64-bit largesize field: size(4)=1, type(4), largesize(8).
const mdatHeaderSize = 16

var (
	// ErrNotCreated is returned when writing before Create.
	ErrNotCreated = errors.New("mp4muxer: output not created")
	// ErrHeaderNotWritten is returned when packets arrive before WriteHeader.
	ErrHeaderNotWritten = errors.New("mp4muxer: header not written")
	// ErrHeaderWritten is returned by a second WriteHeader.
	ErrHeaderWritten = errors.New("mp4muxer: header already written")
	// ErrTrailerWritten is returned for writes after WriteTrailer.
	ErrTrailerWritten = errors.New("mp4muxer: trailer already written")
	// ErrNoSamples is returned by WriteTrailer when no packet was written.
	ErrNoSamples = errors.New("mp4muxer: no samples written")
	// ErrUnsupportedCodec is returned for streams this muxer cannot describe.
	ErrUnsupportedCodec = errors.New("mp4muxer: unsupported codec")
)

// Muxer implements ports.Muxer for MP4 files.
type Muxer struct {
	logger ports.Logger

	path   string
	file   *os.File
	w      *bufio.Writer
	stream ports.StreamConfig

	headerDone  bool
	trailerDone bool

	mdatOffset int64  // file offset of the mdat box
	payload    uint64 // bytes written into mdat after its header
	sizes      []uint32
	syncs      []uint32 // 1-based sample numbers of keyframes
	sps, pps   []byte
}

// New creates a muxer.
func New(logger ports.Logger) *Muxer {
	return &Muxer{logger: logger.WithComponent("mp4muxer")}
}

// Create opens path for writing, truncating any existing file.
// A closed muxer can be reused for another file.
func (m *Muxer) Create(path string) error {
	if m.file != nil {
		return fmt.Errorf("mp4muxer: %s already open", m.path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	*m = Muxer{
		logger: m.logger,
		path:   path,
		file:   f,
		w:      bufio.NewWriterSize(f, 1<<20),
	}
	return nil
}

// WriteHeader writes ftyp and the mdat header with a placeholder size.
func (m *Muxer) WriteHeader(stream ports.StreamConfig) error {
	if m.file == nil {
		return ErrNotCreated
	}
	if m.headerDone {
		return ErrHeaderWritten
	}
	if stream.Codec != ports.CodecH264 && stream.Codec != ports.CodecMJPEG {
		return fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}
	if stream.Width <= 0 || stream.Width > math.MaxUint16 || stream.Height <= 0 || stream.Height > math.MaxUint16 {
		return fmt.Errorf("mp4muxer: invalid size %dx%d", stream.Width, stream.Height)
	}
	if stream.TimeBase.Num <= 0 || stream.TimeBase.Den <= 0 {
		return fmt.Errorf("mp4muxer: invalid time base %s", stream.TimeBase)
	}
	m.stream = stream

	brands := []string{"isom", "iso2", "mp41"}
	if stream.Codec == ports.CodecH264 {
		brands = []string{"isom", "iso2", "avc1", "mp41"}
	}
	ftyp := mp4.NewFtyp("isom", 0x200, brands)
	if err := ftyp.Encode(m.w); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}

	m.mdatOffset = int64(ftyp.Size())
	var hdr [mdatHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], 1)
	copy(hdr[4:8], "mdat")
	if _, err := m.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write mdat header: %w", err)
	}

	m.headerDone = true
	m.logger.Debug("Wrote header for %s %dx%d, time base %s", stream.Codec, stream.Width, stream.Height, stream.TimeBase)
	return nil
}

// WritePacket appends one packet as the next sample.
// H.264 packets arrive as Annex B access units and are stored as AVCC.
func (m *Muxer) WritePacket(pkt ports.Packet) error {
	switch {
	case m.file == nil:
		return ErrNotCreated
	case !m.headerDone:
		return ErrHeaderNotWritten
	case m.trailerDone:
		return ErrTrailerWritten
	}

	data := pkt.Data
	if m.stream.Codec == ports.CodecH264 {
		if m.sps == nil && pkt.Keyframe {
			sps, pps, err := avc.ParameterSets(pkt.Data)
			if err != nil {
				return fmt.Errorf("keyframe %d: %w", pkt.PTS, err)
			}
			m.sps, m.pps = sps, pps
		}
		data = avc.ToAVCC(pkt.Data)
	}
	if pkt.PTS != pkt.DTS {
		m.logger.Warn("Packet %d has pts %d != dts %d; stored in decode order", len(m.sizes), pkt.PTS, pkt.DTS)
	}

	if _, err := m.w.Write(data); err != nil {
		return fmt.Errorf("write sample %d: %w", len(m.sizes)+1, err)
	}
	m.payload += uint64(len(data))
	m.sizes = append(m.sizes, uint32(len(data)))
	if pkt.Keyframe {
		m.syncs = append(m.syncs, uint32(len(m.sizes)))
	}
	return nil
}

// WriteTrailer patches the mdat size and appends moov.
func (m *Muxer) WriteTrailer() error {
	switch {
	case m.file == nil:
		return ErrNotCreated
	case !m.headerDone:
		return ErrHeaderNotWritten
	case m.trailerDone:
		return ErrTrailerWritten
	case len(m.sizes) == 0:
		return ErrNoSamples
	}

	if err := m.w.Flush(); err != nil {
		return fmt.Errorf("flush samples: %w", err)
	}
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], mdatHeaderSize+m.payload)
	if _, err := m.file.WriteAt(size[:], m.mdatOffset+8); err != nil {
		return fmt.Errorf("patch mdat size: %w", err)
	}

	moov, err := m.buildMoov()
	if err != nil {
		return err
	}
	if err := moov.Encode(m.w); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}
	if err := m.w.Flush(); err != nil {
		return fmt.Errorf("flush moov: %w", err)
	}

	m.trailerDone = true
	m.logger.Debug("Wrote %d samples (%d bytes) to %s", len(m.sizes), m.payload, m.path)
	return nil
}

// buildMoov creates the progressive movie box with one chunk holding every sample.
func (m *Muxer) buildMoov() (*mp4.MoovBox, error) {
	timescale := uint32(m.stream.TimeBase.Den)
	sampleDelta := uint32(m.stream.TimeBase.Num)
	n := uint32(len(m.sizes))
	duration := uint64(n) * uint64(sampleDelta)

	seg := mp4.CreateEmptyInit()
	seg.AddEmptyTrack(timescale, "video", "und")
	moov := seg.Moov
	trak := moov.Trak

	// Progressive file: drop the fragment defaults AddEmptyTrack created.
	children := moov.Children[:0]
	for _, c := range moov.Children {
		if c.Type() != "mvex" {
			children = append(children, c)
		}
	}
	moov.Children = children
	moov.Mvex = nil

	moov.Mvhd.Timescale = timescale
	moov.Mvhd.Duration = duration
	trak.Tkhd.Duration = duration
	trak.Tkhd.Width = mp4.Fixed32(m.stream.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(m.stream.Height << 16)
	trak.Mdia.Mdhd.Duration = duration

	entry, err := m.sampleEntry()
	if err != nil {
		return nil, err
	}
	stbl := trak.Mdia.Minf.Stbl
	stbl.Stsd.AddChild(entry)

	stbl.Stts.SampleCount = []uint32{n}
	stbl.Stts.SampleTimeDelta = []uint32{sampleDelta}

	stbl.Stsz.SampleNumber = n
	stbl.Stsz.SampleSize = m.sizes

	if err := stbl.Stsc.AddEntry(1, n, 1); err != nil {
		return nil, fmt.Errorf("stsc: %w", err)
	}

	dataStart := uint64(m.mdatOffset) + mdatHeaderSize
	if dataStart > math.MaxUint32 {
		return nil, fmt.Errorf("mp4muxer: chunk offset %d exceeds stco range", dataStart)
	}
	stbl.Stco.ChunkOffset = []uint32{uint32(dataStart)}

	// Without stss every sample counts as a keyframe.
	if len(m.syncs) != len(m.sizes) {
		stbl.AddChild(&mp4.StssBox{SampleNumber: m.syncs})
	}
	return moov, nil
}

func (m *Muxer) sampleEntry() (mp4.Box, error) {
	w, h := uint16(m.stream.Width), uint16(m.stream.Height)
	switch m.stream.Codec {
	case ports.CodecH264:
		if m.sps == nil {
			return nil, fmt.Errorf("mp4muxer: no keyframe with parameter sets: %w", avc.ErrNoSPS)
		}
		avcC, err := mp4.CreateAvcC([][]byte{m.sps}, [][]byte{m.pps}, true)
		if err != nil {
			return nil, fmt.Errorf("create avcC: %w", err)
		}
		return mp4.CreateVisualSampleEntryBox("avc1", w, h, avcC), nil
	case ports.CodecMJPEG:
		return mp4.CreateVisualSampleEntryBox("jpeg", w, h, nil), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, m.stream.Codec)
}

// SampleCount returns the number of samples written so far.
func (m *Muxer) SampleCount() int { return len(m.sizes) }

// Close releases the file. An unfinished file is left as is.
func (m *Muxer) Close() error {
	if m.file == nil {
		return nil
	}
	var err error
	if !m.trailerDone {
		err = m.w.Flush()
	}
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	m.file = nil
	return err
}

var _ ports.Muxer = (*Muxer)(nil)
