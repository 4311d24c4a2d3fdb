package codecdetect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/mp4muxer"
	"github.com/user/timelapse/pkg/ports"
)

func writeMJPEG(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	m := mp4muxer.New(logger.NewNoop())
	if err := m.Create(path); err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if err := m.WriteHeader(ports.StreamConfig{
		Codec:    ports.CodecMJPEG,
		Width:    320,
		Height:   240,
		TimeBase: ports.Rational{Num: 1, Den: 25},
	}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < frames; i++ {
		if err := m.WritePacket(ports.Packet{Data: []byte{0xFF, 0xD8, byte(i)}, PTS: int64(i), DTS: int64(i), Keyframe: true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.WriteTrailer(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectFromFile(t *testing.T) {
	path := writeMJPEG(t, 2)
	codec, err := DetectFromFile(path)
	if err != nil {
		t.Fatalf("DetectFromFile: %v", err)
	}
	if codec != CodecMJPEG {
		t.Errorf("codec = %s, want mjpeg", codec)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if codec, err := DetectFromBytes(data); err != nil || codec != CodecMJPEG {
		t.Errorf("DetectFromBytes = %s, %v", codec, err)
	}
}

func TestDetectFromBytes_Invalid(t *testing.T) {
	if _, err := DetectFromBytes([]byte("definitely not an mp4 file")); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestProbeFile(t *testing.T) {
	info, err := ProbeFile(writeMJPEG(t, 50))
	if err != nil {
		t.Fatalf("ProbeFile: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("size = %dx%d", info.Width, info.Height)
	}
	if info.SampleCount != 50 || info.Timescale != 25 {
		t.Errorf("samples=%d timescale=%d", info.SampleCount, info.Timescale)
	}
	if info.Seconds() != 2 {
		t.Errorf("Seconds = %v, want 2", info.Seconds())
	}
}

func TestProbeFile_Missing(t *testing.T) {
	if _, err := ProbeFile(filepath.Join(t.TempDir(), "none.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}
