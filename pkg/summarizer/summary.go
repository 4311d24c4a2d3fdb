// Package summarizer provides summary generation for timelapse runs.
package summarizer

import "time"

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Source images
	Source SourceInfo

	// Encoding settings
	Settings Settings

	// Video output details
	Video VideoInfo

	// Wall time of the run
	Elapsed time.Duration
}

// SourceInfo describes the input directory.
type SourceInfo struct {
	Dir          string
	ImageCount   int
	ResizedCount int // images resampled to the first image's size
}

// Settings contains the encoding configuration.
type Settings struct {
	FPS     int
	Codec   string
	Chroma  string
	Quality int
	Bitrate int // kbps
	Preset  string

	// FallbackFrom is the codec that was requested but unavailable.
	FallbackFrom string
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Path          string
	Width         int
	Height        int
	FrameCount    int
	KeyframeCount int
	DurationMs    int
	PayloadBytes  int64 // compressed picture data
	FileSize      int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source directory information.
func (b *Builder) WithSource(dir string, images, resized int) *Builder {
	b.summary.Source = SourceInfo{
		Dir:          dir,
		ImageCount:   images,
		ResizedCount: resized,
	}
	return b
}

// WithSettings sets encoding settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithElapsed sets the wall time of the run.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
