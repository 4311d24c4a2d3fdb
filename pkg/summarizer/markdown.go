package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Timelapse Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.header(&b)
	f.row(&b, t("Directory"), "`"+s.Source.Dir+"`")
	f.row(&b, t("Images"), fmt.Sprintf("%d", s.Source.ImageCount))
	if s.Source.ResizedCount > 0 {
		f.row(&b, t("Resized"), fmt.Sprintf("%d", s.Source.ResizedCount))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.header(&b)
	f.row(&b, t("Frame Rate"), fmt.Sprintf("%d fps", s.Settings.FPS))
	codec := s.Settings.Codec
	if s.Settings.FallbackFrom != "" {
		codec = fmt.Sprintf("%s (%s %s)", codec, t("fallback from"), s.Settings.FallbackFrom)
	}
	f.row(&b, t("Codec"), codec)
	if s.Settings.Chroma != "" {
		f.row(&b, t("Chroma"), s.Settings.Chroma)
	}
	f.row(&b, t("Quality"), orDefault(s.Settings.Quality, "", t))
	f.row(&b, t("Bitrate"), orDefault(s.Settings.Bitrate, " kbps", t))
	if s.Settings.Preset != "" {
		f.row(&b, t("Preset"), s.Settings.Preset)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Video"))
	f.header(&b)
	f.row(&b, t("Output"), "`"+s.Video.Path+"`")
	f.row(&b, t("Size"), fmt.Sprintf("%dx%d", s.Video.Width, s.Video.Height))
	f.row(&b, t("Frames"), fmt.Sprintf("%d", s.Video.FrameCount))
	f.row(&b, t("Keyframes"), fmt.Sprintf("%d", s.Video.KeyframeCount))
	f.row(&b, t("Duration"), formatMs(s.Video.DurationMs))
	if s.Video.FileSize > 0 {
		f.row(&b, t("File Size"), formatBytes(s.Video.FileSize))
	}
	if s.Video.PayloadBytes > 0 && s.Video.FrameCount > 0 {
		f.row(&b, t("Average Frame"), formatBytes(s.Video.PayloadBytes/int64(s.Video.FrameCount)))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "---\n\n%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if s.Elapsed > 0 {
		fmt.Fprintf(&b, " (%s %s)", t("took"), s.Elapsed.Round(time.Millisecond))
	}
	if f.version != "" {
		fmt.Fprintf(&b, " by timelapse %s", f.version)
	}
	b.WriteString("\n")
	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, value)
}

func orDefault(v int, unit string, t func(string) string) string {
	if v == 0 {
		return t("Default")
	}
	return fmt.Sprintf("%d%s", v, unit)
}

func formatMs(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.2f s", float64(ms)/1000)
}

// formatBytes renders a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
