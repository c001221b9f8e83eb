package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/config"
)

var (
	// Option-value level: the filter's own key=value parser.
	valueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	// Graph level: the filtergraph parser, applied over the whole argument.
	graphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// EscapeFilterValue escapes one option value for a filter's argument list.
func EscapeFilterValue(v string) string {
	return valueEscaper.Replace(v)
}

// EscapeFilterGraph escapes a filter argument string for embedding in a
// -vf/-filter_complex graph.
func EscapeFilterGraph(v string) string {
	return graphEscaper.Replace(v)
}

// ForceStyle renders the ASS override string for the subtitles filter.
func ForceStyle(style config.Style) string {
	var parts []string
	name := style.FontName
	if name == "" && style.FontFile != "" {
		name = strings.TrimSuffix(filepath.Base(style.FontFile), filepath.Ext(style.FontFile))
	}
	if name != "" {
		parts = append(parts, "FontName="+name)
	}
	if style.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("FontSize=%d", style.FontSize))
	}
	if style.PrimaryColour != "" {
		parts = append(parts, "PrimaryColour="+style.PrimaryColour)
	}
	if style.OutlineColour != "" {
		parts = append(parts, "OutlineColour="+style.OutlineColour)
	}
	if style.OutlineWidth > 0 {
		parts = append(parts, "BorderStyle=1", fmt.Sprintf("Outline=%d", style.OutlineWidth))
	}
	if style.MarginV > 0 {
		parts = append(parts, fmt.Sprintf("MarginV=%d", style.MarginV))
	}
	return strings.Join(parts, ",")
}

// SubtitlesFilter builds the escaped `subtitles=` video filter that renders
// srtPath with the given style.
func SubtitlesFilter(srtPath string, style config.Style) string {
	opts := []string{"filename=" + EscapeFilterValue(srtPath)}
	if style.FontFile != "" {
		opts = append(opts, "fontsdir="+EscapeFilterValue(filepath.Dir(style.FontFile)))
	}
	if fs := ForceStyle(style); fs != "" {
		opts = append(opts, "force_style="+EscapeFilterValue(fs))
	}
	return "subtitles=" + EscapeFilterGraph(strings.Join(opts, ":"))
}

// BurnSubtitles re-renders the clip with the subtitle document drawn into
// every frame. Audio is copied.
func (p *Processor) BurnSubtitles(ctx context.Context, src, srtPath, dst string, style config.Style, enc config.Encoding) error {
	filter := SubtitlesFilter(srtPath, style)
	stream := ffmpeg.Input(src).
		Output(dst, withContainerArgs(dst, ffmpeg.KwArgs{
			"vf":      filter,
			"c:v":     enc.VideoCodec,
			"preset":  enc.Preset,
			"crf":     enc.CRF,
			"pix_fmt": "yuv420p",
			"c:a":     "copy",
			"threads": p.threads,
		})).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput()

	p.logger.Debug("burning subtitles",
		zap.String("clip", src),
		zap.String("subtitles", srtPath),
		zap.String("filter", filter),
	)

	if err := p.execute(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to burn subtitles")
	}
	return nil
}

// MuxSubtitles adds the subtitle document as a second input and maps it to
// its own stream, copying audio and video untouched.
func (p *Processor) MuxSubtitles(ctx context.Context, src, srtPath, dst, subtitleCodec, language string) error {
	if subtitleCodec == "" {
		return errors.Errorf("container of %s cannot carry subtitle streams", filepath.Base(dst))
	}

	kwargs := ffmpeg.KwArgs{
		"c:v": "copy",
		"c:a": "copy",
		"c:s": subtitleCodec,
	}
	if language != "" {
		kwargs["metadata:s:s:0"] = "language=" + language
	}

	stream := ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(src), ffmpeg.Input(srtPath)},
		dst,
		withContainerArgs(dst, kwargs),
	).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput()

	p.logger.Debug("muxing subtitles",
		zap.String("clip", src),
		zap.String("subtitles", srtPath),
		zap.String("codec", subtitleCodec),
	)

	if err := p.execute(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to mux subtitles")
	}
	return nil
}
