// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/stages/convert"
)

// Config represents the full configuration for timelapse.
type Config struct {
	// Input/Output
	Source     string `yaml:"source"`
	OutputPath string `yaml:"output"`

	// Timing
	FPS int `yaml:"fps"`

	// Conversion
	Chroma      string `yaml:"chroma"`
	StrideAlign int    `yaml:"stride_align"`

	// Encoding
	Codec         string `yaml:"codec"`
	QualityPreset string `yaml:"quality_preset"` // used when quality is 0
	Quality       int    `yaml:"quality"`
	Bitrate       int    `yaml:"bitrate"`
	Preset        string `yaml:"preset"`
	FFmpegPath    string `yaml:"ffmpeg_path"`
	Fallback      bool   `yaml:"fallback"`

	// Output extras
	Summary  string `yaml:"summary"`
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputPath: "timelapse.mp4",

		FPS: 10,

		Chroma:      "point",
		StrideAlign: orchestrator.DefaultStrideAlign,

		Codec:    "h264",
		Fallback: true,

		LogLevel: "info",

		DebugDir: "./debug",
	}
}

// Load parses YAML on top of the defaults.
func Load(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Load(data)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output path is empty"))
	}
	if _, err := convert.ParseChromaMode(c.Chroma); err != nil {
		errs = append(errs, err)
	}
	switch c.Codec {
	case "", "h264", "avc", "x264", "mjpeg", "jpeg":
	default:
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	if _, err := ParseQualityPreset(c.QualityPreset); err != nil {
		errs = append(errs, err)
	}
	if c.Quality < 0 || c.Quality > 63 {
		errs = append(errs, fmt.Errorf("quality must be within 0-63, got %d", c.Quality))
	}
	if c.Bitrate < 0 {
		errs = append(errs, fmt.Errorf("bitrate must not be negative, got %d", c.Bitrate))
	}
	if c.StrideAlign < 0 {
		errs = append(errs, fmt.Errorf("stride_align must not be negative, got %d", c.StrideAlign))
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
// Call Validate first; an unknown chroma mode falls back to point sampling.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	chroma, _ := convert.ParseChromaMode(c.Chroma)
	quality := c.Quality
	if quality == 0 {
		quality = QualityPreset(c.QualityPreset).CRF()
	}
	return orchestrator.Config{
		SourceDir:  c.Source,
		OutputPath: c.OutputPath,

		FPS: c.FPS,

		Chroma:      chroma,
		StrideAlign: c.StrideAlign,

		Quality: quality,
		Bitrate: c.Bitrate,
		Preset:  c.Preset,
	}
}
