// Package orchestrator drives a timelapse run: it lists and decodes the
// source images, converts each to YUV, pumps frames through the encoder
// and writes every packet to the muxer.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/stages/convert"
	"github.com/user/timelapse/pkg/stages/encode"
	"github.com/user/timelapse/pkg/stages/sequence"
)

// DefaultStrideAlign matches the row alignment codec libraries use for
// their frame buffers.
const DefaultStrideAlign = 32

// Config contains all configuration for a run.
type Config struct {
	// Input
	SourceDir  string
	OutputPath string

	// Timing
	FPS int

	// Conversion
	Chroma      convert.ChromaMode
	StrideAlign int // plane row alignment in bytes, 0 or 1 for packed rows

	// Encoding
	Quality int
	Bitrate int
	Preset  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OutputPath:  pipeline.DefaultOutputPath,
		FPS:         pipeline.DefaultFPS,
		Chroma:      convert.PointSample,
		StrideAlign: DefaultStrideAlign,
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	fs      ports.FileSystem
	codec   ports.ImageCodec
	backend ports.EncoderBackend
	muxer   ports.Muxer
	sink    ports.DebugSink
	logger  ports.Logger
}

// New creates a new Orchestrator.
func New(
	fs ports.FileSystem,
	codec ports.ImageCodec,
	backend ports.EncoderBackend,
	muxer ports.Muxer,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		fs:      fs,
		codec:   codec,
		backend: backend,
		muxer:   muxer,
		sink:    sink,
		logger:  logger,
	}
}

// Run executes the complete pipeline.
//
// An empty source directory is not an error: the result has Empty set
// and no output file is created. Any other failure aborts the run and
// leaves whatever was already written in place.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	started := time.Now()
	if config.FPS <= 0 {
		return RunResult{}, fmt.Errorf("fps must be positive, got %d", config.FPS)
	}

	o.logger.Info("Scanning %s", config.SourceDir)
	paths, err := sequence.ListImages(o.fs, config.SourceDir)
	if err != nil {
		o.logger.Error("Failed to list images: %s", err)
		return RunResult{}, err
	}

	// 1. Target geometry from the first image
	seq := sequence.New(paths, o.fs, o.codec, o.logger)
	geom, err := seq.Geometry()
	if errors.Is(err, pipeline.ErrEmptyInput) {
		o.logger.Warn("No images found in %s", config.SourceDir)
		return RunResult{Empty: true, SourceDir: config.SourceDir}, nil
	}
	if err != nil {
		o.logger.Error("Failed to read first image: %s", err)
		return RunResult{}, err
	}
	o.logger.Info("Found %d images, output %s at %d fps", seq.Len(), geom, config.FPS)

	// 2. Encoder and container
	if err := o.backend.Setup(); err != nil {
		o.logger.Error("Failed to set up encoder: %s", err)
		return RunResult{}, fmt.Errorf("%w: setup %s backend: %w", pipeline.ErrEncoder, o.backend.Codec(), err)
	}
	timeBase := ports.Rational{Num: 1, Den: config.FPS}
	pump := encode.NewPump(o.backend.NewEncoder(), ports.EncoderConfig{
		Width:       geom.Width,
		Height:      geom.Height,
		PixelFormat: ports.PixelFormatYUV420P,
		TimeBase:    timeBase,
		Codec:       o.backend.Codec(),
		Quality:     config.Quality,
		Bitrate:     config.Bitrate,
		Preset:      config.Preset,
	}, o.logger)
	defer pump.Close()
	if err := pump.Open(); err != nil {
		o.logger.Error("Failed to encode video: %s", err)
		return RunResult{}, err
	}

	if err := o.muxer.Create(config.OutputPath); err != nil {
		o.logger.Error("Failed to write output: %s", err)
		return RunResult{}, fmt.Errorf("%w: %w", pipeline.ErrOutput, err)
	}
	muxerOpen := true
	defer func() {
		if muxerOpen {
			o.muxer.Close()
		}
	}()
	if err := o.muxer.WriteHeader(ports.StreamConfig{
		Codec:    o.backend.Codec(),
		Width:    geom.Width,
		Height:   geom.Height,
		TimeBase: timeBase,
	}); err != nil {
		o.logger.Error("Failed to write output: %s", err)
		return RunResult{}, fmt.Errorf("%w: header %s: %w", pipeline.ErrOutput, config.OutputPath, err)
	}

	result := RunResult{
		SourceDir:  config.SourceDir,
		OutputPath: config.OutputPath,
		Geometry:   geom,
		FPS:        config.FPS,
		Codec:      o.backend.Codec(),
		Chroma:     config.Chroma,
	}

	// 3. Convert, submit and drain frame by frame
	o.logger.Info("Encoding %d frames at %d fps with %s", seq.Len(), config.FPS, o.backend.Codec())
	stage := convert.NewStage(convert.New(config.Chroma), geom, pipeline.AlignedStrides(geom.Width, config.StrideAlign), o.sink, o.logger)
	for src, err := range seq.Frames() {
		if err != nil {
			o.logger.Error("Failed to decode image: %s", err)
			return RunResult{}, err
		}
		frame, err := stage.Execute(ctx, src)
		if err != nil {
			return RunResult{}, err
		}
		if err := pump.Submit(frame); err != nil {
			o.logger.Error("Failed to encode video: %s", err)
			return RunResult{}, err
		}
		if err := o.drain(pump, &result); err != nil {
			return RunResult{}, err
		}
		result.FrameCount++
		if src.Resized() {
			result.ResizedCount++
		}
	}

	// 4. Flush and drain until end of stream
	if err := pump.Flush(); err != nil {
		o.logger.Error("Failed to encode video: %s", err)
		return RunResult{}, err
	}
	for pump.State() != encode.Closed {
		if err := o.drain(pump, &result); err != nil {
			return RunResult{}, err
		}
	}

	if err := o.muxer.WriteTrailer(); err != nil {
		o.logger.Error("Failed to write output: %s", err)
		return RunResult{}, fmt.Errorf("%w: trailer %s: %w", pipeline.ErrOutput, config.OutputPath, err)
	}
	muxerOpen = false
	if err := o.muxer.Close(); err != nil {
		return RunResult{}, fmt.Errorf("%w: close %s: %w", pipeline.ErrOutput, config.OutputPath, err)
	}

	result.Duration = time.Duration(result.FrameCount) * time.Second / time.Duration(config.FPS)
	result.Elapsed = time.Since(started)
	o.logger.Info("Output saved to %s", config.OutputPath)

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			if err := o.sink.SaveRunJSON(data); err != nil {
				o.logger.Warn("Failed to save run metadata: %s", err)
			}
		}
	}
	return result, nil
}

// drain writes every packet the pump has ready.
func (o *Orchestrator) drain(pump *encode.Pump, result *RunResult) error {
	for pkt, err := range pump.Drain() {
		if err != nil {
			o.logger.Error("Failed to encode video: %s", err)
			return err
		}
		if err := o.muxer.WritePacket(pkt); err != nil {
			o.logger.Error("Failed to write output: %s", err)
			return fmt.Errorf("%w: packet %d: %w", pipeline.ErrOutput, pkt.PTS, err)
		}
		result.PacketCount++
		result.PacketBytes += int64(len(pkt.Data))
		if pkt.Keyframe {
			result.KeyframeCount++
		}
	}
	return nil
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	// Empty is set when the source directory held no images.
	// Nothing was written in that case.
	Empty bool `json:"empty,omitempty"`

	SourceDir  string             `json:"source_dir"`
	OutputPath string             `json:"output_path"`
	Geometry   pipeline.Dimension `json:"geometry"`
	FPS        int                `json:"fps"`
	Codec      ports.Codec        `json:"codec"`
	Chroma     convert.ChromaMode `json:"chroma"`

	FrameCount    int   `json:"frame_count"`
	ResizedCount  int   `json:"resized_count"`
	PacketCount   int   `json:"packet_count"`
	KeyframeCount int   `json:"keyframe_count"`
	PacketBytes   int64 `json:"packet_bytes"`

	Duration time.Duration `json:"duration"` // playback length
	Elapsed  time.Duration `json:"elapsed"`  // wall time of the run
}
