// Package sequence turns an ordered list of image files into a lazy stream
// of RGB rasters that all share the geometry of the first image.
package sequence

import (
	"fmt"
	"image"
	"iter"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/stages/convert"
)

// Sequencer yields decoded frames in playback order.
// Only the current image is held in memory; re-iterating Frames reopens
// the files from the start.
type Sequencer struct {
	paths  []string
	fs     ports.FileSystem
	codec  ports.ImageCodec
	logger ports.Logger

	geometry pipeline.Dimension
	first    image.Image // decoded by Geometry, handed to the first iteration
}

// New creates a sequencer over paths, which must already be in playback order.
func New(paths []string, fs ports.FileSystem, codec ports.ImageCodec, logger ports.Logger) *Sequencer {
	return &Sequencer{
		paths:  paths,
		fs:     fs,
		codec:  codec,
		logger: logger.WithComponent("sequence"),
	}
}

// Len returns the number of frames in the sequence.
func (s *Sequencer) Len() int {
	return len(s.paths)
}

// Paths returns the input files in playback order.
func (s *Sequencer) Paths() []string {
	return s.paths
}

// Geometry returns the native size of the first image, which every later
// frame is resized to. The result is cached after the first call.
func (s *Sequencer) Geometry() (pipeline.Dimension, error) {
	if s.geometry.Valid() {
		return s.geometry, nil
	}
	if len(s.paths) == 0 {
		return pipeline.Dimension{}, pipeline.ErrEmptyInput
	}

	img, err := s.load(s.paths[0])
	if err != nil {
		return pipeline.Dimension{}, err
	}
	b := img.Bounds()
	s.geometry = pipeline.Dimension{Width: b.Dx(), Height: b.Dy()}
	s.first = img
	s.logger.Info("Target geometry %s from %s", s.geometry, s.paths[0])
	return s.geometry, nil
}

// Frames yields one source image per path. The first decode error is
// yielded as ErrDecode naming the file, and iteration stops there.
func (s *Sequencer) Frames() iter.Seq2[pipeline.SourceImage, error] {
	return func(yield func(pipeline.SourceImage, error) bool) {
		geom, err := s.Geometry()
		if err != nil {
			yield(pipeline.SourceImage{}, err)
			return
		}

		for i, path := range s.paths {
			s.logger.Info("Processing %s", path)

			var img image.Image
			if i == 0 && s.first != nil {
				img, s.first = s.first, nil
			} else if img, err = s.load(path); err != nil {
				yield(pipeline.SourceImage{}, err)
				return
			}

			b := img.Bounds()
			original := pipeline.Dimension{Width: b.Dx(), Height: b.Dy()}
			if original != geom {
				s.logger.Info("Resizing from %s to %s", original, geom)
				img = s.codec.Resize(img, geom.Width, geom.Height)
			}

			frame := pipeline.SourceImage{
				Index:    i,
				Path:     path,
				Raster:   convert.FromImage(img),
				Original: original,
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

func (s *Sequencer) load(path string) (image.Image, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pipeline.ErrDecode, path, err)
	}
	img, format, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pipeline.ErrDecode, path, err)
	}
	s.logger.Debug("Decoded %s (%s, %dx%d)", path, format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}
