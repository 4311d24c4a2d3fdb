package pipeline

import "fmt"

// =============================================================================
// Geometry
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// String returns the dimension as WxH.
func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Valid reports whether both sides are positive.
func (d Dimension) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// ChromaWidth returns the number of chroma samples per row for a luma width.
// Every even column starts a 2x2 block, so odd widths round up.
func ChromaWidth(width int) int {
	return (width + 1) / 2
}

// ChromaHeight returns the number of chroma rows for a luma height.
// A trailing odd luma row has no chroma row of its own.
func ChromaHeight(height int) int {
	return height / 2
}

// =============================================================================
// RGB Raster
// =============================================================================

// RGBRaster is a decoded image with 3 interleaved 8-bit channels per pixel.
type RGBRaster struct {
	Width  int
	Height int
	Stride int // bytes per row, at least 3*Width
	Pix    []byte
}

// NewRGBRaster allocates a tightly packed raster.
func NewRGBRaster(width, height int) RGBRaster {
	return RGBRaster{
		Width:  width,
		Height: height,
		Stride: width * 3,
		Pix:    make([]byte, width*height*3),
	}
}

// Bounds returns the raster dimensions.
func (r RGBRaster) Bounds() Dimension {
	return Dimension{Width: r.Width, Height: r.Height}
}

// At returns the RGB triple at (x, y).
func (r RGBRaster) At(x, y int) (red, green, blue uint8) {
	i := y*r.Stride + x*3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Set stores an RGB triple at (x, y).
func (r RGBRaster) Set(x, y int, red, green, blue uint8) {
	i := y*r.Stride + x*3
	r.Pix[i] = red
	r.Pix[i+1] = green
	r.Pix[i+2] = blue
}

// =============================================================================
// YUV Frame
// =============================================================================

// Strides holds the row stride of each plane of a planar YUV 4:2:0 frame.
type Strides struct {
	Y int
	U int
	V int
}

// PackedStrides returns strides without padding for the given luma width.
func PackedStrides(width int) Strides {
	c := ChromaWidth(width)
	return Strides{Y: width, U: c, V: c}
}

// AlignedStrides returns strides rounded up to a multiple of align bytes,
// the layout codec libraries usually hand out for their frame buffers.
func AlignedStrides(width, align int) Strides {
	if align <= 1 {
		return PackedStrides(width)
	}
	round := func(n int) int { return (n + align - 1) / align * align }
	c := ChromaWidth(width)
	return Strides{Y: round(width), U: round(c), V: round(c)}
}

// YUVFrame is a planar YUV 4:2:0 picture.
// Y holds Height rows, U and V hold ChromaHeight(Height) rows each.
type YUVFrame struct {
	Width   int
	Height  int
	Strides Strides
	Y       []byte
	U       []byte
	V       []byte
	PTS     int64 // presentation timestamp in time base units (frame index)
}

// NewYUVFrame allocates zeroed planes sized for the given strides.
func NewYUVFrame(width, height int, strides Strides) *YUVFrame {
	ch := ChromaHeight(height)
	return &YUVFrame{
		Width:   width,
		Height:  height,
		Strides: strides,
		Y:       make([]byte, height*strides.Y),
		U:       make([]byte, ch*strides.U),
		V:       make([]byte, ch*strides.V),
	}
}

// Bounds returns the frame dimensions.
func (f *YUVFrame) Bounds() Dimension {
	return Dimension{Width: f.Width, Height: f.Height}
}

// AppendPacked appends the Y, U and V planes to dst without stride
// padding, the layout of raw I420 files and ffmpeg's yuv420p input.
func (f *YUVFrame) AppendPacked(dst []byte) []byte {
	cw := ChromaWidth(f.Width)
	ch := ChromaHeight(f.Height)
	for r := 0; r < f.Height; r++ {
		off := r * f.Strides.Y
		dst = append(dst, f.Y[off:off+f.Width]...)
	}
	for r := 0; r < ch; r++ {
		off := r * f.Strides.U
		dst = append(dst, f.U[off:off+cw]...)
	}
	for r := 0; r < ch; r++ {
		off := r * f.Strides.V
		dst = append(dst, f.V[off:off+cw]...)
	}
	return dst
}

// =============================================================================
// Source Images
// =============================================================================

// SourceImage is one decoded input picture, already reconciled to the
// target geometry.
type SourceImage struct {
	Index  int    // position in playback order, starting at 0
	Path   string // file the raster was decoded from
	Raster RGBRaster

	// Original is the native size before resizing.
	Original Dimension
}

// Resized reports whether the image was resampled to fit the target geometry.
func (s SourceImage) Resized() bool {
	return s.Original != s.Raster.Bounds()
}

// =============================================================================
// Run
// =============================================================================

// DefaultFPS is the frame rate used when none is given.
const DefaultFPS = 10

// DefaultOutputPath is the destination used when none is given.
const DefaultOutputPath = "timelapse.mp4"
