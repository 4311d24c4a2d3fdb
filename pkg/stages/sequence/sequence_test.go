package sequence

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fogleman/gg"

	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/mocks"
	"github.com/user/timelapse/pkg/pipeline"
)

func solidPNG(t *testing.T, w, h int, r, g, b float64) []byte {
	t.Helper()
	dc := gg.NewContext(w, h)
	dc.SetRGB(r, g, b)
	dc.Clear()
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	return buf.Bytes()
}

func TestIsImagePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"a.jpeg", true},
		{"a.png", true},
		{"a.Png", true},
		{"a.gif", true},
		{"a.bmp", true},
		{"a.tif", true},
		{"a.tiff", true},
		{"a.webp", true},
		{"a.txt", false},
		{"jpg", false},
		{"a.jpg.bak", false},
		{".DS_Store", false},
	}
	for _, tt := range tests {
		if got := IsImagePath(tt.name); got != tt.want {
			t.Errorf("IsImagePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestListImages_FiltersAndSorts(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/in/b.png", []byte("x"))
	fs.AddFile("/in/a.JPG", []byte("x"))
	fs.AddFile("/in/C.png", []byte("x"))
	fs.AddFile("/in/notes.txt", []byte("x"))
	fs.AddFile("/in/sub/d.png", []byte("x"))

	got, err := ListImages(fs, "/in")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	// Byte-wise order puts upper case before lower case.
	want := []string{
		filepath.Join("/in", "C.png"),
		filepath.Join("/in", "a.JPG"),
		filepath.Join("/in", "b.png"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListImages = %v, want %v", got, want)
	}
}

func TestListImages_MissingDir(t *testing.T) {
	if _, err := ListImages(mocks.NewFileSystem(), "/nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestSequencer_Empty(t *testing.T) {
	seq := New(nil, mocks.NewFileSystem(), &mocks.ImageCodec{}, logger.NewNoop())

	if _, err := seq.Geometry(); !errors.Is(err, pipeline.ErrEmptyInput) {
		t.Errorf("Geometry error = %v, want ErrEmptyInput", err)
	}
	for _, err := range seq.Frames() {
		if !errors.Is(err, pipeline.ErrEmptyInput) {
			t.Errorf("Frames error = %v, want ErrEmptyInput", err)
		}
	}
}

func TestSequencer_GeometryFromFirstImage(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/in/0.png", solidPNG(t, 64, 48, 1, 0, 0))
	fs.AddFile("/in/1.png", solidPNG(t, 32, 32, 0, 1, 0))
	codec := &mocks.ImageCodec{}

	seq := New([]string{"/in/0.png", "/in/1.png"}, fs, codec, logger.NewNoop())
	geom, err := seq.Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if geom != (pipeline.Dimension{Width: 64, Height: 48}) {
		t.Errorf("Geometry = %s, want 64x48", geom)
	}

	// Cached: no second decode.
	if _, err := seq.Geometry(); err != nil {
		t.Fatal(err)
	}
	if codec.DecodeCalls != 1 {
		t.Errorf("DecodeCalls = %d, want 1", codec.DecodeCalls)
	}
}

func TestSequencer_FramesResizeToFirst(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/in/0.png", solidPNG(t, 64, 48, 1, 0, 0))
	fs.AddFile("/in/1.png", solidPNG(t, 32, 32, 0, 1, 0))
	fs.AddFile("/in/2.png", solidPNG(t, 64, 48, 0, 0, 1))
	codec := &mocks.ImageCodec{}

	seq := New([]string{"/in/0.png", "/in/1.png", "/in/2.png"}, fs, codec, logger.NewNoop())

	var frames []pipeline.SourceImage
	for frame, err := range seq.Frames() {
		if err != nil {
			t.Fatalf("Frames: %v", err)
		}
		frames = append(frames, frame)
	}

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Index != i {
			t.Errorf("frame %d: Index = %d", i, f.Index)
		}
		if f.Raster.Bounds() != (pipeline.Dimension{Width: 64, Height: 48}) {
			t.Errorf("frame %d: raster %s, want 64x48", i, f.Raster.Bounds())
		}
	}
	if !frames[1].Resized() || frames[0].Resized() || frames[2].Resized() {
		t.Errorf("only frame 1 should be resized")
	}
	if len(codec.ResizeCalls) != 1 {
		t.Fatalf("ResizeCalls = %d, want 1", len(codec.ResizeCalls))
	}
	rc := codec.ResizeCalls[0]
	if rc.From != image.Rect(0, 0, 32, 32) || rc.Width != 64 || rc.Height != 48 {
		t.Errorf("ResizeCall = %+v", rc)
	}
	if r, g, b := frames[1].Raster.At(10, 10); r != 0 || g != 255 || b != 0 {
		t.Errorf("resized pixel = %d,%d,%d, want green", r, g, b)
	}
	// The first image is decoded once for geometry and reused.
	if codec.DecodeCalls != 3 {
		t.Errorf("DecodeCalls = %d, want 3", codec.DecodeCalls)
	}
}

func TestSequencer_Reiterate(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/in/0.png", solidPNG(t, 8, 8, 1, 1, 1))
	fs.AddFile("/in/1.png", solidPNG(t, 8, 8, 0, 0, 0))
	seq := New([]string{"/in/0.png", "/in/1.png"}, fs, &mocks.ImageCodec{}, logger.NewNoop())

	for pass := 0; pass < 2; pass++ {
		n := 0
		for _, err := range seq.Frames() {
			if err != nil {
				t.Fatalf("pass %d: %v", pass, err)
			}
			n++
		}
		if n != 2 {
			t.Errorf("pass %d: %d frames, want 2", pass, n)
		}
	}
}

func TestSequencer_EarlyBreak(t *testing.T) {
	fs := mocks.NewFileSystem()
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = fmt.Sprintf("/in/%d.png", i)
		fs.AddFile(paths[i], solidPNG(t, 4, 4, 0, 0, 0))
	}
	seq := New(paths, fs, &mocks.ImageCodec{}, logger.NewNoop())

	for frame := range seq.Frames() {
		if frame.Index == 1 {
			break
		}
	}
	if len(fs.ReadFileCalls) != 2 {
		t.Errorf("ReadFile calls = %v, want 2 files opened", fs.ReadFileCalls)
	}
}

func TestSequencer_DecodeErrorAborts(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/in/0.png", solidPNG(t, 8, 8, 1, 1, 1))
	fs.AddFile("/in/1.png", []byte("not an image"))
	fs.AddFile("/in/2.png", solidPNG(t, 8, 8, 1, 1, 1))
	seq := New([]string{"/in/0.png", "/in/1.png", "/in/2.png"}, fs, &mocks.ImageCodec{}, logger.NewNoop())

	var got []int
	var lastErr error
	for frame, err := range seq.Frames() {
		if err != nil {
			lastErr = err
			continue
		}
		got = append(got, frame.Index)
	}

	if !errors.Is(lastErr, pipeline.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", lastErr)
	}
	if !bytes.Contains([]byte(lastErr.Error()), []byte("/in/1.png")) {
		t.Errorf("error %q should name the file", lastErr)
	}
	if !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("frames before failure = %v, want [0]", got)
	}
}

func TestSequencer_MissingFirstFile(t *testing.T) {
	seq := New([]string{"/in/gone.png"}, mocks.NewFileSystem(), &mocks.ImageCodec{}, logger.NewNoop())
	if _, err := seq.Geometry(); !errors.Is(err, pipeline.ErrDecode) {
		t.Errorf("Geometry error = %v, want ErrDecode", err)
	}
}
