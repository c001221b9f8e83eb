package ffmpeg

import (
	"context"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/geometry"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Audio parameters expected by the speech recognizer.
const (
	TranscriptionSampleRate = 16000
	TranscriptionChannels   = 1
)

// ExtractClip cuts [r.Start, r.End] from the source into dst, re-encoding
// video with the configured codec. The source frame rate and audio
// sample rate/channel layout are carried over when the probe knew them.
func (p *Processor) ExtractClip(ctx context.Context, source *types.VideoAsset, dst string, r types.TimeRange, enc config.Encoding) error {
	inputKwargs := ffmpeg.KwArgs{
		"ss": formatSeconds(r.Start),
		"t":  formatSeconds(r.Duration()),
	}

	outputKwargs := ffmpeg.KwArgs{
		"c:v":     enc.VideoCodec,
		"preset":  enc.Preset,
		"crf":     enc.CRF,
		"pix_fmt": "yuv420p",
		"threads": p.threads,
	}
	if source.FrameRate > 0 {
		outputKwargs["r"] = source.FrameRate
	}
	if source.HasAudio {
		outputKwargs["c:a"] = enc.AudioCodec
		if enc.AudioBitrate != "" {
			outputKwargs["b:a"] = enc.AudioBitrate
		}
		if source.SampleRate > 0 {
			outputKwargs["ar"] = source.SampleRate
		}
		if source.Channels > 0 {
			outputKwargs["ac"] = source.Channels
		}
	}

	stream := ffmpeg.Input(source.Path, inputKwargs).
		Output(dst, withContainerArgs(dst, outputKwargs)).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput()

	p.logger.Debug("extracting clip",
		zap.String("source", source.Path),
		zap.Float64("start", r.Start),
		zap.Float64("end", r.End),
		zap.String("destination", dst),
	)

	if err := p.execute(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to extract clip")
	}
	return nil
}

// Reframe applies the scale + center-crop transform, copying audio.
func (p *Processor) Reframe(ctx context.Context, src, dst string, spec geometry.Spec, enc config.Encoding) error {
	outputKwargs := ffmpeg.KwArgs{
		"vf":      spec.Filter(),
		"c:v":     enc.VideoCodec,
		"preset":  enc.Preset,
		"crf":     enc.CRF,
		"pix_fmt": "yuv420p",
		"c:a":     "copy",
		"threads": p.threads,
	}

	stream := ffmpeg.Input(src).
		Output(dst, withContainerArgs(dst, outputKwargs)).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput()

	p.logger.Debug("reframing clip",
		zap.String("source", src),
		zap.String("filter", spec.Filter()),
		zap.String("destination", dst),
	)

	if err := p.execute(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to reframe clip")
	}
	return nil
}

// ExtractAudio writes the clip's first audio track as 16 kHz mono PCM WAV.
func (p *Processor) ExtractAudio(ctx context.Context, src, dst string) error {
	stream := ffmpeg.Input(src).
		Output(dst, ffmpeg.KwArgs{
			"map": "0:a:0",
			"ac":  TranscriptionChannels,
			"ar":  TranscriptionSampleRate,
			"c:a": "pcm_s16le",
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput()

	if err := p.execute(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to extract audio")
	}
	return nil
}
