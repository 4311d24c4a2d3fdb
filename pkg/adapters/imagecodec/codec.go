// Package imagecodec decodes still images and resamples them with a
// Lanczos filter from golang.org/x/image.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Registered decoders for the accepted input formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/timelapse/pkg/ports"
)

// Lanczos3 is a Lanczos resampling kernel with three lobes.
var Lanczos3 = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		if t >= 3 || t <= -3 {
			return 0
		}
		x := math.Pi * t
		return 3 * math.Sin(x) * math.Sin(x/3) / (x * x)
	},
}

// Codec implements ports.ImageCodec.
type Codec struct {
	kernel *draw.Kernel
}

// New creates a Codec that resizes with Lanczos3.
func New() *Codec {
	return &Codec{kernel: Lanczos3}
}

// NewWithKernel creates a Codec that resizes with the given kernel,
// e.g. draw.CatmullRom.
func NewWithKernel(kernel *draw.Kernel) *Codec {
	return &Codec{kernel: kernel}
}

// Decode decodes image data, detecting the format from its header.
func (c *Codec) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, format, fmt.Errorf("decode image: empty %s image", format)
	}
	return img, format, nil
}

// Resize resamples img to exactly width x height, anchored at the origin.
// Opaque sources produce an *image.RGBA; sources with transparency produce
// an *image.NRGBA so colour channels are not darkened by alpha.
func (c *Codec) Resize(img image.Image, width, height int) image.Image {
	var dst draw.Image
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		dst = image.NewRGBA(image.Rect(0, 0, width, height))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, width, height))
	}
	c.kernel.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Ensure Codec implements ports.ImageCodec
var _ ports.ImageCodec = (*Codec)(nil)
