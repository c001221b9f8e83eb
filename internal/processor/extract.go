package processor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/geometry"
	"github.com/ZacxDev/clipcaster/internal/logging"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Extractor moves a ClipJob from Pending to Written: cut, verify, reframe.
type Extractor struct {
	enc       Encoder
	encoding  config.Encoding
	workDir   string
	extension string
	logger    *zap.Logger
}

// NewExtractor writes intermediates into workDir with the given container
// extension (".mp4", ".mkv", ...).
func NewExtractor(enc Encoder, encoding config.Encoding, workDir, extension string, logger *zap.Logger) *Extractor {
	return &Extractor{
		enc:       enc,
		encoding:  encoding,
		workDir:   workDir,
		extension: extension,
		logger:    logging.Component(logger, "extract"),
	}
}

// Process runs the job's extraction states. On return the raw cut is gone
// whatever happened; on success job.ReframedPath holds the portrait clip.
func (e *Extractor) Process(ctx context.Context, source *types.VideoAsset, job *types.ClipJob, spec geometry.Spec) (err error) {
	logger := e.logger.With(zap.Int("clip", job.Index), zap.Stringer("range", job.Range))

	job.TempPath = filepath.Join(e.workDir, "temp_"+job.Name()+e.extension)
	job.ReframedPath = filepath.Join(e.workDir, job.Name()+e.extension)
	defer func() {
		if rmErr := removeIfExists(job.TempPath); rmErr != nil {
			logger.Warn("failed to delete temporary clip", zap.String("path", job.TempPath), zap.Error(rmErr))
		}
		if err != nil {
			job.State = types.JobFailed
			_ = removeIfExists(job.ReframedPath)
		}
	}()

	if err := e.extract(ctx, source, job); err != nil {
		return err
	}
	job.State = types.JobExtracted

	if err := e.verify(job); err != nil {
		return err
	}
	job.State = types.JobVerified
	logger.Debug("temporary clip verified", zap.String("path", job.TempPath))

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := e.enc.Reframe(ctx, job.TempPath, job.ReframedPath, spec, e.encoding); err != nil {
		return types.NewStageError(types.TransformFailure, job.Index, err)
	}
	job.State = types.JobTransformed

	info, statErr := os.Stat(job.ReframedPath)
	if statErr != nil || info.Size() == 0 {
		return types.Stagef(types.TransformFailure, job.Index, "reframed clip %s was not written", job.ReframedPath)
	}
	job.State = types.JobWritten

	logger.Info("clip written",
		zap.String("path", job.ReframedPath),
		zap.String("size", humanize.Bytes(uint64(info.Size()))),
	)
	return nil
}

func (e *Extractor) extract(ctx context.Context, source *types.VideoAsset, job *types.ClipJob) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := e.enc.ExtractClip(ctx, source, job.TempPath, job.Range, e.encoding); err != nil {
		return types.NewStageError(types.ExtractionFailure, job.Index, err)
	}
	return nil
}

// verify requires a non-empty temp file whose decoded duration is positive.
func (e *Extractor) verify(job *types.ClipJob) error {
	info, err := os.Stat(job.TempPath)
	if err != nil {
		return types.NewStageError(types.ExtractionFailure, job.Index,
			errors.Wrap(err, "temporary clip missing"))
	}
	if info.Size() == 0 {
		return types.Stagef(types.ExtractionFailure, job.Index, "temporary clip %s is empty", filepath.Base(job.TempPath))
	}

	meta, err := e.enc.GetVideoMetadata(job.TempPath)
	if err != nil {
		return types.NewStageError(types.ExtractionFailure, job.Index,
			errors.Wrap(err, "temporary clip unreadable"))
	}
	if meta.Duration <= 0 {
		return types.Stagef(types.ExtractionFailure, job.Index, "temporary clip %s has zero duration", filepath.Base(job.TempPath))
	}
	return nil
}
