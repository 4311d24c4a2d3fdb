package mocks

import (
	"bytes"
	"image"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/user/timelapse/pkg/ports"
)

// ImageCodec is a mock implementation of ports.ImageCodec.
// By default it decodes PNG and resizes with nearest-neighbour sampling.
type ImageCodec struct {
	DecodeFunc func(data []byte) (image.Image, string, error)
	ResizeFunc func(img image.Image, width, height int) image.Image

	// Recorded calls for verification
	DecodeCalls int
	ResizeCalls []ResizeCall
}

// ResizeCall records a call to Resize.
type ResizeCall struct {
	From   image.Rectangle
	Width  int
	Height int
}

func (m *ImageCodec) Decode(data []byte) (image.Image, string, error) {
	m.DecodeCalls++
	if m.DecodeFunc != nil {
		return m.DecodeFunc(data)
	}
	return image.Decode(bytes.NewReader(data))
}

func (m *ImageCodec) Resize(img image.Image, width, height int) image.Image {
	m.ResizeCalls = append(m.ResizeCalls, ResizeCall{From: img.Bounds(), Width: width, Height: height})
	if m.ResizeFunc != nil {
		return m.ResizeFunc(img, width, height)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

var _ ports.ImageCodec = (*ImageCodec)(nil)
