package processor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/ffmpeg"
	"github.com/ZacxDev/clipcaster/internal/logging"
	"github.com/ZacxDev/clipcaster/internal/subtitle"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// CompositeResult describes the deliverable of one job.
type CompositeResult struct {
	Path         string
	SubtitlePath string // set only when the sidecar is retained
	Subtitled    bool
	Segments     int
}

// Compositor attaches a clip's subtitle track and writes the deliverable.
type Compositor struct {
	enc      Encoder
	mode     types.CompositionMode
	style    config.Style
	retain   bool
	language string
	encoding config.Encoding
	logger   *zap.Logger
}

// NewCompositor configures composition from the run options. encoding is
// the container-resolved encoder set used for burned output.
func NewCompositor(enc Encoder, opts config.Options, encoding config.Encoding, logger *zap.Logger) *Compositor {
	return &Compositor{
		enc:      enc,
		mode:     opts.Subtitles.Mode,
		style:    opts.Subtitles.Style,
		retain:   opts.Subtitles.Retain,
		language: streamLanguage(opts.Transcription.Language),
		encoding: encoding,
		logger:   logging.Component(logger, "compose"),
	}
}

// streamLanguage converts a language hint to the ISO 639-2 code containers
// store in stream metadata.
func streamLanguage(hint string) string {
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.ISO3()
}

// Composite takes a Written job to Composited, writing finalPath. A track
// without printable segments yields the reframed clip unchanged. The
// reframed intermediate is consumed either way.
func (c *Compositor) Composite(ctx context.Context, job *types.ClipJob, track types.SubtitleTrack, finalPath string) (res CompositeResult, err error) {
	logger := c.logger.With(zap.Int("clip", job.Index))
	ext := filepath.Ext(job.ReframedPath)

	finalPath, err = ensureOutputPath(finalPath, ext)
	if err != nil {
		return res, types.NewStageError(types.CompositionFailure, job.Index, err)
	}
	job.FinalPath = finalPath
	res.Path = finalPath

	defer func() {
		_ = removeIfExists(job.ReframedPath)
		if err != nil {
			job.State = types.JobFailed
			_ = removeIfExists(finalPath)
		}
	}()

	res.Segments = subtitle.Count(track)
	if res.Segments == 0 {
		if err := moveFile(job.ReframedPath, finalPath); err != nil {
			return res, types.NewStageError(types.CompositionFailure, job.Index, err)
		}
		job.State = types.JobComposited
		logger.Info("no speech detected, clip delivered without subtitles", zap.String("path", finalPath))
		return res, nil
	}

	var subtitleCodec string
	if c.mode == types.CompositionSoft {
		settings, err := ffmpeg.GetCodecSettings(ext)
		if err != nil {
			return res, types.NewStageError(types.CompositionFailure, job.Index, err)
		}
		if settings.SubtitleCodec == "" {
			return res, types.Stagef(types.CompositionFailure, job.Index,
				"%s container cannot carry a subtitle stream", settings.ContainerFormat)
		}
		subtitleCodec = settings.SubtitleCodec
	}

	srtPath := strings.TrimSuffix(job.ReframedPath, ext) + subtitle.Extension
	if err := subtitle.WriteFile(srtPath, track); err != nil {
		return res, types.NewStageError(types.CompositionFailure, job.Index, err)
	}
	defer func() { _ = removeIfExists(srtPath) }()
	job.State = types.JobSubtitled

	if err := ctx.Err(); err != nil {
		return res, errors.WithStack(err)
	}

	switch c.mode {
	case types.CompositionSoft:
		err = c.enc.MuxSubtitles(ctx, job.ReframedPath, srtPath, finalPath, subtitleCodec, c.language)
	default:
		err = c.enc.BurnSubtitles(ctx, job.ReframedPath, srtPath, finalPath, c.style, c.encoding)
	}
	if err != nil {
		return res, types.NewStageError(types.CompositionFailure, job.Index, err)
	}
	if info, statErr := os.Stat(finalPath); statErr != nil || info.Size() == 0 {
		return res, types.Stagef(types.CompositionFailure, job.Index, "final clip %s was not written", filepath.Base(finalPath))
	}

	if c.retain {
		sidecar := strings.TrimSuffix(finalPath, ext) + subtitle.Extension
		if err := moveFile(srtPath, sidecar); err != nil {
			logger.Warn("failed to retain subtitle sidecar", zap.Error(err))
		} else {
			res.SubtitlePath = sidecar
		}
	}

	res.Subtitled = true
	job.State = types.JobComposited
	logger.Info("subtitles composited",
		zap.String("mode", string(c.mode)),
		zap.Int("segments", res.Segments),
		zap.String("path", finalPath),
	)
	return res, nil
}

// moveFile renames src to dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to finish %s", dst)
	}
	return os.Remove(src)
}
