package h264encoder

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/avc"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

func testConfig(w, h int) ports.EncoderConfig {
	return ports.EncoderConfig{
		Width:       w,
		Height:      h,
		PixelFormat: ports.PixelFormatYUV420P,
		TimeBase:    ports.Rational{Num: 1, Den: 10},
		Codec:       ports.CodecH264,
		Preset:      "ultrafast",
	}
}

// gradientFrame creates a frame whose content changes with the frame number.
func gradientFrame(w, h int, n int64) *pipeline.YUVFrame {
	f := pipeline.NewYUVFrame(w, h, pipeline.AlignedStrides(w, 32))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Y[y*f.Strides.Y+x] = byte(16 + (x+y+int(n)*7)%200)
		}
	}
	for i := range f.U {
		f.U[i] = 128
		f.V[i] = 128
	}
	f.PTS = n
	return f
}

func TestCRF(t *testing.T) {
	tests := []struct{ quality, want int }{
		{0, 23},
		{-1, 23},
		{64, 23},
		{63, 51},
		{30, 24},
		{1, 0},
	}
	for _, tt := range tests {
		if got := crf(tt.quality); got != tt.want {
			t.Errorf("crf(%d) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := strings.Join(ffmpegArgs(640, 480, 10, 0, 800, ""), " ")
	for _, want := range []string{
		"-f rawvideo -pix_fmt yuv420p -s 640x480 -r 10 -i pipe:0",
		"-c:v libx264 -preset fast",
		"-bf 0",
		"-x264-params aud=1",
		"-crf 23",
		"-b:v 800k",
		"-f h264 pipe:1",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ports.EncoderConfig
		want error
	}{
		{"odd width", testConfig(63, 48), ErrOddDimensions},
		{"odd height", testConfig(64, 47), ErrOddDimensions},
		{"wrong codec", func() ports.EncoderConfig {
			c := testConfig(64, 48)
			c.Codec = ports.CodecMJPEG
			return c
		}(), ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewBackend(logger.NewNoop()).NewEncoder()
			if err := enc.Open(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("Open error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncoder_NotOpen(t *testing.T) {
	enc := NewBackend(logger.NewNoop()).NewEncoder()
	if _, err := enc.Receive(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Receive error = %v", err)
	}
	if err := enc.Submit(gradientFrame(4, 4, 0)); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Submit error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
}

func setupBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsFFmpegAvailable() {
		t.Skip("ffmpeg not available")
	}
	b := NewBackend(logger.NewNoop())
	if err := b.Setup(); err != nil {
		t.Skipf("ffmpeg cannot encode H.264: %v", err)
	}
	return b
}

func TestEncoder_EncodesAllFrames(t *testing.T) {
	b := setupBackend(t)
	enc := b.NewEncoder()
	if err := enc.Open(testConfig(64, 48)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer enc.Close()

	const numFrames = 12
	var packets []ports.Packet
	receiveReady := func() {
		for {
			pkt, err := enc.Receive()
			if errors.Is(err, ports.ErrAgain) {
				return
			}
			if err != nil {
				t.Fatalf("Receive: %v", err)
			}
			packets = append(packets, pkt)
		}
	}

	for i := int64(0); i < numFrames; i++ {
		if err := enc.Submit(gradientFrame(64, 48, i)); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		receiveReady()
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for {
		pkt, err := enc.Receive()
		if errors.Is(err, ports.ErrEndOfStream) {
			break
		}
		if err != nil {
			t.Fatalf("Receive after flush: %v", err)
		}
		packets = append(packets, pkt)
	}

	if len(packets) != numFrames {
		t.Fatalf("got %d packets, want %d", len(packets), numFrames)
	}
	if !packets[0].Keyframe {
		t.Error("first packet is not a keyframe")
	}
	if _, _, err := avc.ParameterSets(packets[0].Data); err != nil {
		t.Errorf("first access unit lacks parameter sets: %v", err)
	}
	pts := make([]int64, len(packets))
	for i, p := range packets {
		pts[i] = p.PTS
	}
	if !slices.IsSorted(pts) || pts[0] != 0 || pts[len(pts)-1] != numFrames-1 {
		t.Errorf("PTS = %v", pts)
	}

	if err := enc.Submit(gradientFrame(64, 48, numFrames)); !errors.Is(err, ErrFlushed) {
		t.Errorf("Submit after flush = %v, want ErrFlushed", err)
	}
}

func TestEncoder_CloseWithoutFlush(t *testing.T) {
	b := setupBackend(t)
	enc := b.NewEncoder()
	if err := enc.Open(testConfig(32, 32)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := enc.Submit(gradientFrame(32, 32, 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// scriptedBackend returns a backend driving a shell script in place of
// ffmpeg. The script lists libx264 for "-encoders" and otherwise reads all
// of stdin before running body.
func scriptedBackend(t *testing.T, body string) *Backend {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" +
		"case \"$*\" in *-encoders*) echo ' V....D libx264 libx264 H.264'; exit 0;; esac\n" +
		"cat >/dev/null\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	SetFFmpegPath(path)
	t.Cleanup(func() { SetFFmpegPath("") })

	b := NewBackend(logger.NewNoop())
	if err := b.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return b
}

// Three access units, each opened by an AUD: one IDR, two non-IDR slices.
const cannedStream = `printf '\000\000\000\001\011\360\000\000\000\001\145\210\204\041'
printf '\000\000\000\001\011\360\000\000\000\001\101\232\044'
printf '\000\000\000\001\011\360\000\000\000\001\101\232\045'`

func TestEncoder_ScriptedStream(t *testing.T) {
	enc := scriptedBackend(t, cannedStream).NewEncoder()
	if err := enc.Open(testConfig(64, 48)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer enc.Close()

	for i := int64(0); i < 3; i++ {
		if err := enc.Submit(gradientFrame(64, 48, i)); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	// Output only appears once input ends.
	if _, err := enc.Receive(); !errors.Is(err, ports.ErrAgain) {
		t.Fatalf("Receive before flush = %v, want ErrAgain", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var packets []ports.Packet
	for {
		pkt, err := enc.Receive()
		if errors.Is(err, ports.ErrEndOfStream) {
			break
		}
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		packets = append(packets, pkt)
	}
	if len(packets) != 3 {
		t.Fatalf("got %d packets, want 3", len(packets))
	}
	for i, p := range packets {
		if p.PTS != int64(i) || p.DTS != int64(i) {
			t.Errorf("packet %d: pts=%d dts=%d", i, p.PTS, p.DTS)
		}
		if p.Keyframe != (i == 0) {
			t.Errorf("packet %d: keyframe=%v", i, p.Keyframe)
		}
		if len(avc.SplitNALUs(p.Data)) != 2 {
			t.Errorf("packet %d: %d NAL units, want AUD and slice", i, len(avc.SplitNALUs(p.Data)))
		}
	}
	if _, err := enc.Receive(); !errors.Is(err, ports.ErrEndOfStream) {
		t.Errorf("Receive after end = %v, want ErrEndOfStream", err)
	}
	if err := enc.Submit(gradientFrame(64, 48, 3)); !errors.Is(err, ErrFlushed) {
		t.Errorf("Submit after flush = %v, want ErrFlushed", err)
	}
}

func TestEncoder_ScriptedFailure(t *testing.T) {
	enc := scriptedBackend(t, "echo 'x264 [error]: broken input' >&2\nexit 3").NewEncoder()
	if err := enc.Open(testConfig(32, 32)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer enc.Close()

	if err := enc.Submit(gradientFrame(32, 32, 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	_, err := enc.Receive()
	if !errors.Is(err, ErrEncodingFailed) {
		t.Fatalf("Receive = %v, want ErrEncodingFailed", err)
	}
	if !strings.Contains(err.Error(), "broken input") {
		t.Errorf("error %q lacks ffmpeg diagnostics", err)
	}
}
