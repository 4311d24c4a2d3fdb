package mjpegencoder

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

func testConfig(w, h int) ports.EncoderConfig {
	return ports.EncoderConfig{
		Width:       w,
		Height:      h,
		PixelFormat: ports.PixelFormatYUV420P,
		TimeBase:    ports.Rational{Num: 1, Den: 10},
		Codec:       ports.CodecMJPEG,
	}
}

func solidFrame(w, h int, y, u, v byte, pts int64) *pipeline.YUVFrame {
	f := pipeline.NewYUVFrame(w, h, pipeline.AlignedStrides(w, 16))
	for i := range f.Y {
		f.Y[i] = y
	}
	for i := range f.U {
		f.U[i] = u
		f.V[i] = v
	}
	f.PTS = pts
	return f
}

func openEncoder(t *testing.T, w, h int) ports.VideoEncoder {
	t.Helper()
	b := NewBackend(logger.NewNoop())
	if err := b.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	enc := b.NewEncoder()
	if err := enc.Open(testConfig(w, h)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return enc
}

func TestEncoder_OnePacketPerFrame(t *testing.T) {
	enc := openEncoder(t, 32, 16)
	defer enc.Close()

	if _, err := enc.Receive(); !errors.Is(err, ports.ErrAgain) {
		t.Fatalf("Receive on empty encoder = %v, want ErrAgain", err)
	}

	for i := int64(0); i < 3; i++ {
		if err := enc.Submit(solidFrame(32, 16, 81, 90, 240, i)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		pkt, err := enc.Receive()
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if pkt.PTS != i || pkt.DTS != i || !pkt.Keyframe {
			t.Errorf("packet %d: pts=%d dts=%d key=%v", i, pkt.PTS, pkt.DTS, pkt.Keyframe)
		}
		img, err := jpeg.Decode(bytes.NewReader(pkt.Data))
		if err != nil {
			t.Fatalf("packet %d is not a JPEG: %v", i, err)
		}
		if img.Bounds() != image.Rect(0, 0, 32, 16) {
			t.Errorf("decoded bounds = %v", img.Bounds())
		}
		ycc, ok := img.(*image.YCbCr)
		if !ok {
			t.Fatalf("decoded %T, want *image.YCbCr", img)
		}
		// (81-16)*255/219 after range expansion.
		if d := int(ycc.Y[0]) - 76; d < -2 || d > 2 {
			t.Errorf("decoded luma = %d, want about 76", ycc.Y[0])
		}
		if _, err := enc.Receive(); !errors.Is(err, ports.ErrAgain) {
			t.Errorf("second Receive = %v, want ErrAgain", err)
		}
	}

	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := enc.Receive(); !errors.Is(err, ports.ErrEndOfStream) {
		t.Errorf("Receive after flush = %v, want ErrEndOfStream", err)
	}
	if err := enc.Submit(solidFrame(32, 16, 0, 0, 0, 3)); !errors.Is(err, ErrFlushed) {
		t.Errorf("Submit after flush = %v, want ErrFlushed", err)
	}
}

func TestEncoder_FlushReleasesQueued(t *testing.T) {
	enc := openEncoder(t, 8, 8)
	defer enc.Close()

	for i := int64(0); i < 2; i++ {
		if err := enc.Submit(solidFrame(8, 8, 128, 128, 128, i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i < 2; i++ {
		pkt, err := enc.Receive()
		if err != nil || pkt.PTS != i {
			t.Fatalf("Receive %d = (%d, %v)", i, pkt.PTS, err)
		}
	}
	if _, err := enc.Receive(); !errors.Is(err, ports.ErrEndOfStream) {
		t.Errorf("err = %v, want ErrEndOfStream", err)
	}
}

func TestEncoder_OddDimensions(t *testing.T) {
	for _, size := range [][2]int{{5, 3}, {7, 1}, {1, 1}} {
		w, h := size[0], size[1]
		enc := openEncoder(t, w, h)
		if err := enc.Submit(solidFrame(w, h, 200, 100, 150, 0)); err != nil {
			t.Fatalf("%dx%d: Submit: %v", w, h, err)
		}
		pkt, err := enc.Receive()
		if err != nil {
			t.Fatalf("%dx%d: Receive: %v", w, h, err)
		}
		img, err := jpeg.Decode(bytes.NewReader(pkt.Data))
		if err != nil {
			t.Fatalf("%dx%d: decode: %v", w, h, err)
		}
		if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
			t.Errorf("decoded %v, want %dx%d", img.Bounds(), w, h)
		}
		enc.Close()
	}
}

func TestEncoder_Errors(t *testing.T) {
	enc := NewBackend(logger.NewNoop()).NewEncoder()
	if err := enc.Submit(solidFrame(8, 8, 0, 0, 0, 0)); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Submit before Open = %v", err)
	}

	cfg := testConfig(8, 8)
	cfg.Codec = ports.CodecH264
	if err := enc.Open(cfg); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open with H.264 config = %v", err)
	}

	enc = openEncoder(t, 8, 8)
	if err := enc.Submit(solidFrame(16, 8, 0, 0, 0, 0)); err == nil {
		t.Error("expected error for mismatched frame size")
	}
}

func TestEncoder_ExpandsStudioRange(t *testing.T) {
	tests := []struct {
		name          string
		y, u, v       byte
		wantY, wantCb byte
	}{
		{"black", 16, 128, 128, 0, 128},
		{"white", 235, 128, 128, 255, 128},
		{"chroma extremes", 126, 16, 240, 128, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := openEncoder(t, 16, 16)
			defer enc.Close()
			if err := enc.Submit(solidFrame(16, 16, tt.y, tt.u, tt.v, 0)); err != nil {
				t.Fatal(err)
			}
			pkt, err := enc.Receive()
			if err != nil {
				t.Fatal(err)
			}
			img, err := jpeg.Decode(bytes.NewReader(pkt.Data))
			if err != nil {
				t.Fatal(err)
			}
			ycc := img.(*image.YCbCr)
			if d := int(ycc.Y[0]) - int(tt.wantY); d < -2 || d > 2 {
				t.Errorf("Y = %d, want about %d", ycc.Y[0], tt.wantY)
			}
			if d := int(ycc.Cb[0]) - int(tt.wantCb); d < -2 || d > 2 {
				t.Errorf("Cb = %d, want about %d", ycc.Cb[0], tt.wantCb)
			}
		})
	}

	if lumaFull[16] != 0 || lumaFull[235] != 255 || lumaFull[0] != 0 || lumaFull[255] != 255 {
		t.Errorf("luma table ends = %d %d %d %d", lumaFull[0], lumaFull[16], lumaFull[235], lumaFull[255])
	}
	if chromaFull[16] > 1 || chromaFull[128] != 128 || chromaFull[240] != 255 {
		t.Errorf("chroma table = %d %d %d", chromaFull[16], chromaFull[128], chromaFull[240])
	}
}

func TestJPEGQuality(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultQuality},
		{64, DefaultQuality},
		{1, 99},
		{63, 1},
		{30, 53},
	}
	for _, tt := range tests {
		if got := jpegQuality(tt.in); got != tt.want {
			t.Errorf("jpegQuality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
