package ports

import (
	"image"
)

// ImageCodec decodes still images and resamples them.
type ImageCodec interface {
	// Decode decodes image data and returns the image and its format name.
	Decode(data []byte) (image.Image, string, error)

	// Resize resamples an image to exactly width x height.
	Resize(img image.Image, width, height int) image.Image
}
