// Package main provides the CLI entry point for timelapse.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/timelapse/pkg/adapters/codecdetect"
	"github.com/user/timelapse/pkg/adapters/filesink"
	"github.com/user/timelapse/pkg/adapters/h264encoder"
	"github.com/user/timelapse/pkg/adapters/imagecodec"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/mp4muxer"
	"github.com/user/timelapse/pkg/adapters/nullsink"
	"github.com/user/timelapse/pkg/adapters/osfilesystem"
	"github.com/user/timelapse/pkg/adapters/smartencoder"
	"github.com/user/timelapse/pkg/config"
	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "timelapse",
		Usage:     l10n.T("Turn a directory of still images into a video"),
		UsageText: "timelapse [options] <source-dir>",
		Description: l10n.T("timelapse encodes the images of a directory, in file name order, " +
			"into one MP4 video at a fixed frame rate."),
		Version:         version,
		Writer:          stdout,
		Flags:           runFlags(),
		Action:          runAction,
		Commands:        []*cli.Command{probeCommand()},
		ArgsUsage:       "<source-dir>",
		HideHelpCommand: true,
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		// Output
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Output MP4 file path"),
			Value:    "timelapse.mp4",
			Category: l10n.T("Output"),
		},
		&cli.IntFlag{
			Name:     "fps",
			Aliases:  []string{"f"},
			Usage:    l10n.T("Frames per second (positive integer)"),
			Value:    10,
			Category: l10n.T("Output"),
		},
		&cli.PathFlag{
			Name:     "summary",
			Usage:    l10n.T("Output execution summary to file (Markdown format)"),
			Category: l10n.T("Output"),
		},
		&cli.PathFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("YAML configuration file (flags take precedence)"),
			Category: l10n.T("Output"),
		},

		// Video and Quality
		&cli.StringFlag{
			Name:     "codec",
			Usage:    l10n.T("Video codec (h264, mjpeg)"),
			Value:    "h264",
			Category: l10n.T("Video and Quality"),
		},
		&cli.StringFlag{
			Name:     "chroma",
			Usage:    l10n.T("Chroma subsampling (point, box)"),
			Value:    "point",
			Category: l10n.T("Video and Quality"),
		},
		&cli.StringFlag{
			Name:     "quality-preset",
			Aliases:  []string{"p"},
			Usage:    l10n.T("Quality preset (low, medium, high)"),
			Category: l10n.T("Video and Quality"),
		},
		&cli.IntFlag{
			Name:     "quality",
			Aliases:  []string{"q"},
			Usage:    l10n.T("Video CRF value (0-63, lower is better, 0 = codec default)"),
			Category: l10n.T("Video and Quality"),
		},
		&cli.IntFlag{
			Name:     "bitrate",
			Usage:    l10n.T("Target bitrate in kbps (0 = unconstrained)"),
			Category: l10n.T("Video and Quality"),
		},
		&cli.StringFlag{
			Name:     "preset",
			Usage:    l10n.T("Encoder speed preset (e.g. ultrafast, fast, slow)"),
			Category: l10n.T("Video and Quality"),
		},
		&cli.StringFlag{
			Name:     "ffmpeg",
			Usage:    l10n.T("Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)"),
			EnvVars:  []string{"TIMELAPSE_FFMPEG"},
			Category: l10n.T("Video and Quality"),
		},
		&cli.BoolFlag{
			Name:     "no-fallback",
			Usage:    l10n.T("Fail instead of falling back to MJPEG when H.264 is unavailable"),
			Category: l10n.T("Video and Quality"),
		},

		// Debug
		&cli.BoolFlag{
			Name:     "debug",
			Aliases:  []string{"d"},
			Usage:    l10n.T("Enable debug output"),
			Category: l10n.T("Debug"),
		},
		&cli.StringFlag{
			Name:     "debug-dir",
			Usage:    l10n.T("Directory for debug output"),
			Value:    "./debug",
			Category: l10n.T("Debug"),
		},

		// Logging
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Value:    "info",
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
	}
}

// buildConfig merges the config file, if any, with the flags set on the
// command line and the positional source directory.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.Path("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.Args().Len() > 1 {
		return cfg, errors.New(l10n.T("Only one source directory may be given"))
	}
	if c.Args().Present() {
		cfg.Source = c.Args().First()
	}
	if cfg.Source == "" {
		return cfg, errors.New(l10n.T("Source directory argument is required"))
	}

	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Int("fps")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.Path("summary")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("chroma") {
		cfg.Chroma = c.String("chroma")
	}
	if c.IsSet("quality-preset") {
		cfg.QualityPreset = c.String("quality-preset")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("bitrate") {
		cfg.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("preset") {
		cfg.Preset = c.String("preset")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.Bool("no-fallback") {
		cfg.Fallback = false
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.LogLevel = ports.LevelQuiet.String()
	}

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) ports.Logger {
	level, _ := ports.ParseLogLevel(cfg.LogLevel)
	if level == ports.LevelQuiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(level)
}

func runAction(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create adapters
	fs := osfilesystem.New()
	codec, _ := smartencoder.ParseCodec(cfg.Codec)
	encOpts := smartencoder.Options{
		FFmpegPath:    cfg.FFmpegPath,
		AllowFallback: cfg.Fallback,
		Logger:        log,
	}
	backend, info, err := smartencoder.New(codec, encOpts)
	if err != nil {
		return err
	}

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	run := func(backend ports.EncoderBackend) (orchestrator.RunResult, error) {
		orch := orchestrator.New(fs, imagecodec.New(), backend, mp4muxer.New(log), sink, log)
		return orch.Run(ctx, cfg.ToOrchestratorConfig())
	}

	log.Info(l10n.F("Encoding %s to %s (%s, %d fps)...", cfg.Source, cfg.OutputPath, info.Codec, cfg.FPS))
	result, err := run(backend)
	if err != nil {
		// Nothing has been written when the encoder refuses to open.
		if mjpeg, fallbackInfo, ok := smartencoder.FallbackFor(err, info, encOpts); ok {
			info = fallbackInfo
			result, err = run(mjpeg)
		}
	}
	if errors.Is(err, h264encoder.ErrOddDimensions) {
		return fmt.Errorf("%w (%s)", err, l10n.T("use --codec mjpeg for images with odd width or height"))
	}
	if err != nil {
		return err
	}
	if result.Empty {
		fmt.Fprintln(c.App.Writer, l10n.F("No images found in %s, nothing to do", cfg.Source))
		return nil
	}

	if cfg.Summary != "" {
		summary := buildSummary(cfg, info, result)
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := writer.Write(cfg.Summary, summary); err != nil {
			log.Warn(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", cfg.Summary))
		}
	}

	fmt.Fprintln(c.App.Writer, result.OutputPath)
	return nil
}

func buildSummary(cfg config.Config, info smartencoder.Info, result orchestrator.RunResult) *summarizer.Summary {
	settings := summarizer.Settings{
		FPS:     result.FPS,
		Codec:   string(result.Codec),
		Chroma:  result.Chroma.String(),
		Quality: cfg.ToOrchestratorConfig().Quality,
		Bitrate: cfg.Bitrate,
		Preset:  cfg.Preset,
	}
	if info.FallbackUsed {
		settings.FallbackFrom = string(info.RequestedCodec)
	}

	video := summarizer.VideoInfo{
		Path:          result.OutputPath,
		Width:         result.Geometry.Width,
		Height:        result.Geometry.Height,
		FrameCount:    result.FrameCount,
		KeyframeCount: result.KeyframeCount,
		DurationMs:    int(result.Duration.Milliseconds()),
		PayloadBytes:  result.PacketBytes,
	}
	if st, err := os.Stat(result.OutputPath); err == nil {
		video.FileSize = st.Size()
	}

	return summarizer.NewBuilder().
		WithSource(result.SourceDir, result.FrameCount, result.ResizedCount).
		WithSettings(settings).
		WithVideo(video).
		WithElapsed(result.Elapsed).
		Build()
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show codec, geometry and timing of an MP4 file"),
		ArgsUsage: "<file.mp4>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return errors.New(l10n.T("Exactly one MP4 file argument is required"))
			}
			info, err := codecdetect.ProbeFile(c.Args().First())
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintln(w, l10n.F("Codec: %s (%s)", info.Codec, info.SampleEntry))
			fmt.Fprintln(w, l10n.F("Size: %dx%d", info.Width, info.Height))
			fmt.Fprintln(w, l10n.F("Timescale: %d", info.Timescale))
			fmt.Fprintln(w, l10n.F("Frames: %d (%d keyframes)", info.SampleCount, keyframes(info)))
			fmt.Fprintln(w, l10n.F("Duration: %.3f s", info.Seconds()))
			return nil
		},
	}
}

func keyframes(info *codecdetect.TrackInfo) int {
	if info.SyncSamples == nil {
		return info.SampleCount
	}
	return len(info.SyncSamples)
}
