package codecdetect

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// TrackInfo describes the video track of a progressive MP4 file.
type TrackInfo struct {
	Codec       Codec
	SampleEntry string // sample entry box type, e.g. avc1
	Width       int
	Height      int
	Timescale   uint32
	Duration    uint64 // in Timescale units
	SampleCount int

	// SyncSamples lists 1-based keyframe sample numbers.
	// Nil means every sample is a keyframe.
	SyncSamples []uint32

	// AVC parameter sets, present for H.264 tracks.
	SPS [][]byte
	PPS [][]byte
}

// Seconds returns the track duration in seconds.
func (t *TrackInfo) Seconds() float64 {
	if t.Timescale == 0 {
		return 0
	}
	return float64(t.Duration) / float64(t.Timescale)
}

// Sample is one stored sample of the video track.
type Sample struct {
	Number     uint32 // 1-based
	DecodeTime uint64
	Duration   uint32
	Keyframe   bool
	Data       []byte
}

// ProbeFile reads the track metadata of an MP4 file.
func ProbeFile(path string) (*TrackInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, _, err := probe(f)
	return info, err
}

// ReadSamplesFile reads the track metadata and every sample of an MP4 file.
func ReadSamplesFile(path string) (*TrackInfo, []Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, stbl, err := probe(f)
	if err != nil {
		return nil, nil, err
	}

	sync := make(map[uint32]bool, len(info.SyncSamples))
	for _, nr := range info.SyncSamples {
		sync[nr] = true
	}

	samples := make([]Sample, 0, info.SampleCount)
	for nr := uint32(1); nr <= uint32(info.SampleCount); nr++ {
		data, err := sampleData(stbl, f, nr)
		if err != nil {
			return nil, nil, fmt.Errorf("sample %d: %w", nr, err)
		}
		decodeTime, dur := stbl.Stts.GetDecodeTime(nr)
		samples = append(samples, Sample{
			Number:     nr,
			DecodeTime: decodeTime,
			Duration:   dur,
			Keyframe:   info.SyncSamples == nil || sync[nr],
			Data:       data,
		})
	}
	return info, samples, nil
}

func probe(reader io.ReadSeeker) (*TrackInfo, *mp4.StblBox, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("decode mp4: %w", err)
	}
	if mp4File.IsFragmented() {
		return nil, nil, fmt.Errorf("fragmented mp4 is not supported")
	}

	trak, err := videoTrack(mp4File)
	if err != nil {
		return nil, nil, err
	}
	if trak.Mdia.Mdhd == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return nil, nil, fmt.Errorf("incomplete video track")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stts == nil || stbl.Stsc == nil {
		return nil, nil, fmt.Errorf("no sample table found")
	}

	info := &TrackInfo{
		Timescale:   trak.Mdia.Mdhd.Timescale,
		Duration:    trak.Mdia.Mdhd.Duration,
		SampleCount: int(stbl.Stsz.SampleNumber),
	}
	info.Codec, info.SampleEntry = codecFromTrack(trak)
	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}
	if stbl.Stss != nil {
		info.SyncSamples = stbl.Stss.SampleNumber
	}
	for _, child := range stbl.Stsd.Children {
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
			if vse.AvcC != nil {
				info.SPS = vse.AvcC.SPSnalus
				info.PPS = vse.AvcC.PPSnalus
			}
		}
	}
	return info, stbl, nil
}

// sampleData reads one sample from a progressive MP4 file.
func sampleData(stbl *mp4.StblBox, reader io.ReadSeeker, sampleNr uint32) ([]byte, error) {
	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(sampleNr)))
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}
