package smartencoder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/user/timelapse/pkg/adapters/h264encoder"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/ports"
)

func TestNewMJPEG(t *testing.T) {
	backend, info, err := New(ports.CodecMJPEG, Options{Logger: logger.NewNoop()})
	if err != nil {
		t.Fatalf("failed to create MJPEG backend: %v", err)
	}
	if backend.Codec() != ports.CodecMJPEG {
		t.Errorf("backend codec = %s", backend.Codec())
	}
	if info.Backend != BackendGo || info.FallbackUsed {
		t.Errorf("info = %+v", info)
	}
}

func TestNewH264(t *testing.T) {
	backend, info, err := New(ports.CodecH264, Options{AllowFallback: true, Logger: logger.NewNoop()})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	if info.RequestedCodec != ports.CodecH264 {
		t.Errorf("expected requested codec h264, got %s", info.RequestedCodec)
	}
	if backend.Codec() != info.Codec {
		t.Errorf("backend codec %s differs from info %s", backend.Codec(), info.Codec)
	}
	if info.FallbackUsed != !IsH264Available() {
		t.Errorf("FallbackUsed = %v with H.264 available = %v", info.FallbackUsed, IsH264Available())
	}
	t.Logf("Selected encoder: codec=%s, backend=%s, fallback=%v", info.Codec, info.Backend, info.FallbackUsed)
}

func TestFallbackWhenFFmpegMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-ffmpeg")
	defer h264encoder.SetFFmpegPath("")

	backend, info, err := New(ports.CodecH264, Options{
		FFmpegPath:    missing,
		AllowFallback: true,
		Logger:        logger.NewNoop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !info.FallbackUsed || backend.Codec() != ports.CodecMJPEG {
		t.Errorf("expected MJPEG fallback, got %+v", info)
	}

	_, _, err = NewWithoutFallback(ports.CodecH264, Options{FFmpegPath: missing, Logger: logger.NewNoop()})
	if !errors.Is(err, ErrNoEncoderAvailable) {
		t.Errorf("NewWithoutFallback error = %v", err)
	}
}

// writeFFmpeg installs a shell script answering "ffmpeg -encoders" with
// the given encoder list.
func writeFFmpeg(t *testing.T, encoders string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\ncat <<'EOF'\nEncoders:\n" + encoders + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h264encoder.SetFFmpegPath("") })
	return path
}

func TestCustomFFmpegPath(t *testing.T) {
	fake := writeFFmpeg(t, " V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC")

	backend, info, err := NewWithoutFallback(ports.CodecH264, Options{FFmpegPath: fake, Logger: logger.NewNoop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if info.Backend != BackendFFmpeg || info.FallbackUsed {
		t.Errorf("info = %+v, want ffmpeg without fallback", info)
	}
	if err := backend.Setup(); err != nil {
		t.Errorf("Setup on selected backend: %v", err)
	}
}

func TestFallbackWhenLibx264Missing(t *testing.T) {
	fake := writeFFmpeg(t, " V....D mpeg4                MPEG-4 part 2")

	backend, info, err := New(ports.CodecH264, Options{
		FFmpegPath:    fake,
		AllowFallback: true,
		Logger:        logger.NewNoop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !info.FallbackUsed || info.Codec != ports.CodecMJPEG || backend.Codec() != ports.CodecMJPEG {
		t.Errorf("info = %+v, backend codec %s; want MJPEG fallback", info, backend.Codec())
	}
	if err := backend.Setup(); err != nil {
		t.Errorf("Setup on fallback backend: %v", err)
	}

	_, _, err = NewWithoutFallback(ports.CodecH264, Options{FFmpegPath: fake, Logger: logger.NewNoop()})
	if !errors.Is(err, ErrNoEncoderAvailable) || !errors.Is(err, h264encoder.ErrLibx264Missing) {
		t.Errorf("NewWithoutFallback error = %v, want ErrNoEncoderAvailable wrapping ErrLibx264Missing", err)
	}
}

func TestFallbackFor(t *testing.T) {
	h264 := Info{Codec: ports.CodecH264, Backend: BackendFFmpeg, RequestedCodec: ports.CodecH264}
	odd := fmt.Errorf("open encoder: %w", h264encoder.ErrOddDimensions)
	opts := Options{AllowFallback: true, Logger: logger.NewNoop()}

	backend, info, ok := FallbackFor(odd, h264, opts)
	if !ok || backend.Codec() != ports.CodecMJPEG || !info.FallbackUsed || info.RequestedCodec != ports.CodecH264 {
		t.Errorf("FallbackFor(odd) = %v, %+v", ok, info)
	}

	tests := []struct {
		name string
		err  error
		info Info
		opts Options
	}{
		{"fallback disabled", odd, h264, Options{}},
		{"other error", errors.New("disk full"), h264, opts},
		{"already mjpeg", odd, Info{Codec: ports.CodecMJPEG}, opts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := FallbackFor(tt.err, tt.info, tt.opts); ok {
				t.Error("expected no fallback")
			}
		})
	}
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		in      string
		want    ports.Codec
		wantErr bool
	}{
		{"", ports.CodecH264, false},
		{"h264", ports.CodecH264, false},
		{"mjpeg", ports.CodecMJPEG, false},
		{"jpeg", ports.CodecMJPEG, false},
		{"av1", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCodec(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCodec(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, _, err := New("av1", Options{Logger: logger.NewNoop()}); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("New(av1) error = %v", err)
	}
}
