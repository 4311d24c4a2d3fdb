// Package codecdetect inspects MP4 files: which codec the video track
// carries, its geometry and timing, and the raw samples.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecMJPEG   Codec = "mjpeg"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return CodecUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an io.ReadSeeker.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	// Reset reader position for subsequent reads
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	trak, err := videoTrack(mp4File)
	if err != nil {
		return CodecUnknown, err
	}
	codec, _ := codecFromTrack(trak)
	return codec, nil
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

// videoTrack returns the first track with a video handler.
func videoTrack(mp4File *mp4.File) (*mp4.TrakBox, error) {
	var moov *mp4.MoovBox
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	} else {
		moov = mp4File.Moov
	}
	if moov == nil {
		return nil, fmt.Errorf("no moov box found")
	}

	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak, nil
		}
	}
	return nil, fmt.Errorf("no video track found")
}

// codecFromTrack maps the first sample entry to a codec and also
// returns the sample entry type.
func codecFromTrack(trak *mp4.TrakBox) (Codec, string) {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown, ""
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264, child.Type()
		case "jpeg", "mjpa", "mjpg":
			return CodecMJPEG, child.Type()
		case "av01":
			return CodecAV1, child.Type()
		default:
			return CodecUnknown, child.Type()
		}
	}
	return CodecUnknown, ""
}
