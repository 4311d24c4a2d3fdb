package convert

import (
	"context"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// Stage converts source images into timestamped YUV frames.
type Stage struct {
	converter *Converter
	geometry  pipeline.Dimension
	strides   pipeline.Strides
	sink      ports.DebugSink
	logger    ports.Logger
}

// NewStage creates a conversion stage for a fixed target geometry.
func NewStage(converter *Converter, geometry pipeline.Dimension, strides pipeline.Strides, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		converter: converter,
		geometry:  geometry,
		strides:   strides,
		sink:      sink,
		logger:    logger.WithComponent("convert"),
	}
}

// Execute converts one source image. The frame's PTS is the image index.
func (s *Stage) Execute(ctx context.Context, input pipeline.SourceImage) (*pipeline.YUVFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.converter.Convert(input.Raster, s.geometry, s.strides)
	if err != nil {
		return nil, err
	}
	frame.PTS = int64(input.Index)

	if s.sink.Enabled() {
		if err := s.sink.SaveFrame(input.Index, frame); err != nil {
			s.logger.Warn("Failed to save debug frame %d: %s", input.Index, err)
		}
	}
	s.logger.Debug("Converted frame %d (%s, %s chroma)", input.Index, s.geometry, s.converter.Mode())
	return frame, nil
}

var _ pipeline.Stage[pipeline.SourceImage, *pipeline.YUVFrame] = (*Stage)(nil)
