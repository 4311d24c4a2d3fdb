// Package convert implements RGB to planar YUV 4:2:0 conversion (BT.601,
// studio range).
package convert

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/user/timelapse/pkg/pipeline"
)

// ChromaMode selects how one chroma sample is derived from its 2x2 block.
type ChromaMode int

const (
	// PointSample takes chroma from the top-left pixel of each block.
	PointSample ChromaMode = iota
	// BoxAverage takes chroma from the mean of the block's pixels.
	BoxAverage
)

// String returns the configuration name of the mode.
func (m ChromaMode) String() string {
	switch m {
	case PointSample:
		return "point"
	case BoxAverage:
		return "box"
	default:
		return "unknown"
	}
}

// ParseChromaMode parses "point" or "box".
func ParseChromaMode(s string) (ChromaMode, error) {
	switch s {
	case "", "point":
		return PointSample, nil
	case "box":
		return BoxAverage, nil
	default:
		return PointSample, fmt.Errorf("unknown chroma mode %q", s)
	}
}

// BT.601 coefficients for 8-bit studio range.
var (
	lumaCoef = [3]float32{0.257, 0.504, 0.098}
	cbCoef   = [3]float32{-0.148, -0.291, 0.439}
	crCoef   = [3]float32{0.439, -0.368, -0.071}
)

const (
	lumaOffset   = 16
	chromaOffset = 128
)

// Luma returns the Y sample for one RGB pixel.
func Luma(r, g, b uint8) uint8 {
	return toByte(weigh(lumaCoef, lumaOffset, float32(r), float32(g), float32(b)))
}

// Chroma returns the U and V samples for one RGB pixel.
func Chroma(r, g, b uint8) (u, v uint8) {
	rf, gf, bf := float32(r), float32(g), float32(b)
	return toByte(weigh(cbCoef, chromaOffset, rf, gf, bf)),
		toByte(weigh(crCoef, chromaOffset, rf, gf, bf))
}

// weigh evaluates k0*r + k1*g + k2*b + off in float32, rounding each step.
// The explicit conversions keep the compiler from fusing multiply-adds, so
// results are identical on every architecture.
func weigh(k [3]float32, off, r, g, b float32) float32 {
	s := float32(k[0] * r)
	s = float32(s + float32(k[1]*g))
	s = float32(s + float32(k[2]*b))
	return float32(s + off)
}

// toByte truncates toward zero and saturates to [0, 255].
func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Converter turns RGB rasters into YUV 4:2:0 frames.
type Converter struct {
	mode ChromaMode
}

// New creates a Converter using the given chroma mode.
func New(mode ChromaMode) *Converter {
	return &Converter{mode: mode}
}

// Mode returns the chroma mode.
func (c *Converter) Mode() ChromaMode {
	return c.mode
}

// Convert allocates a frame with the given strides and fills it from rgb.
// geom is the size the caller expects; any other raster size is rejected.
func (c *Converter) Convert(rgb pipeline.RGBRaster, geom pipeline.Dimension, strides pipeline.Strides) (*pipeline.YUVFrame, error) {
	if rgb.Bounds() != geom {
		return nil, fmt.Errorf("%w: raster is %s, expected %s", pipeline.ErrDimensionMismatch, rgb.Bounds(), geom)
	}
	dst := pipeline.NewYUVFrame(geom.Width, geom.Height, strides)
	if err := c.ConvertInto(rgb, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// ConvertInto fills caller-owned planes from rgb. Bytes between the end of a
// plane row and its stride are left untouched.
func (c *Converter) ConvertInto(rgb pipeline.RGBRaster, dst *pipeline.YUVFrame) error {
	if err := checkLayout(rgb, dst); err != nil {
		return err
	}

	w, h := dst.Width, dst.Height
	ys, us, vs := dst.Strides.Y, dst.Strides.U, dst.Strides.V

	for y := 0; y < h; y++ {
		row := rgb.Pix[y*rgb.Stride:]
		yRow := dst.Y[y*ys:]
		for x := 0; x < w; x++ {
			p := row[x*3:]
			yRow[x] = Luma(p[0], p[1], p[2])
		}
	}

	ch := pipeline.ChromaHeight(h)
	cw := pipeline.ChromaWidth(w)
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var u, v uint8
			if c.mode == BoxAverage {
				u, v = boxChroma(rgb, cx*2, cy*2)
			} else {
				u, v = Chroma(rgb.At(cx*2, cy*2))
			}
			dst.U[cy*us+cx] = u
			dst.V[cy*vs+cx] = v
		}
	}
	return nil
}

// boxChroma averages the pixels of the 2x2 block at (x0, y0) that lie
// inside the raster, then converts the mean colour.
func boxChroma(rgb pipeline.RGBRaster, x0, y0 int) (u, v uint8) {
	var sr, sg, sb, n int
	for y := y0; y < y0+2 && y < rgb.Height; y++ {
		for x := x0; x < x0+2 && x < rgb.Width; x++ {
			r, g, b := rgb.At(x, y)
			sr += int(r)
			sg += int(g)
			sb += int(b)
			n++
		}
	}
	return Chroma(uint8((sr+n/2)/n), uint8((sg+n/2)/n), uint8((sb+n/2)/n))
}

func checkLayout(rgb pipeline.RGBRaster, dst *pipeline.YUVFrame) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination frame", pipeline.ErrDimensionMismatch)
	}
	if rgb.Bounds() != dst.Bounds() {
		return fmt.Errorf("%w: raster is %s, frame is %s", pipeline.ErrDimensionMismatch, rgb.Bounds(), dst.Bounds())
	}
	if !dst.Bounds().Valid() {
		return fmt.Errorf("%w: empty geometry %s", pipeline.ErrDimensionMismatch, dst.Bounds())
	}
	if rgb.Stride < rgb.Width*3 || len(rgb.Pix) < (rgb.Height-1)*rgb.Stride+rgb.Width*3 {
		return fmt.Errorf("%w: raster buffer too small for %s", pipeline.ErrDimensionMismatch, rgb.Bounds())
	}

	cw, ch := pipeline.ChromaWidth(dst.Width), pipeline.ChromaHeight(dst.Height)
	planes := []struct {
		name            string
		buf             []byte
		stride, w, rows int
	}{
		{"Y", dst.Y, dst.Strides.Y, dst.Width, dst.Height},
		{"U", dst.U, dst.Strides.U, cw, ch},
		{"V", dst.V, dst.Strides.V, cw, ch},
	}
	for _, p := range planes {
		if p.stride < p.w {
			return fmt.Errorf("%w: %s stride %d below plane width %d", pipeline.ErrDimensionMismatch, p.name, p.stride, p.w)
		}
		if p.rows > 0 && len(p.buf) < (p.rows-1)*p.stride+p.w {
			return fmt.Errorf("%w: %s plane holds %d bytes, need %d rows of stride %d", pipeline.ErrDimensionMismatch, p.name, len(p.buf), p.rows, p.stride)
		}
	}
	return nil
}

// FromImage flattens a decoded image into an RGB raster, dropping alpha.
// Colour channels keep their straight (non-premultiplied) values.
func FromImage(img image.Image) pipeline.RGBRaster {
	b := img.Bounds()
	out := pipeline.NewRGBRaster(b.Dx(), b.Dy())

	var pix []byte
	var stride int
	switch src := img.(type) {
	case *image.NRGBA:
		pix, stride = src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], src.Stride
	default:
		if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
			// Premultiplied and straight values agree when alpha is 255.
			rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
			draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
			pix, stride = rgba.Pix, rgba.Stride
			break
		}
		nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := y*nrgba.Stride + x*4
				nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2] = c.R, c.G, c.B
			}
		}
		pix, stride = nrgba.Pix, nrgba.Stride
	}

	for y := 0; y < out.Height; y++ {
		src := pix[y*stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < out.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return out
}
