// Package pipeline orchestrates a clip production run: planning jobs from
// the timestamp file and driving each through extraction, transcription
// and subtitle composition.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/ffmpeg"
	"github.com/ZacxDev/clipcaster/internal/geometry"
	"github.com/ZacxDev/clipcaster/internal/logging"
	"github.com/ZacxDev/clipcaster/internal/platform"
	"github.com/ZacxDev/clipcaster/internal/processor"
	"github.com/ZacxDev/clipcaster/internal/transcribe"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Encoder is every media operation a run needs.
type Encoder interface {
	processor.Encoder
	transcribe.AudioExtractor
}

// Orchestrator runs batches for one set of options.
type Orchestrator struct {
	opts        config.Options
	platform    platform.Platform
	enc         Encoder
	transcriber transcribe.Transcriber
	logger      *zap.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithEncoder replaces the ffmpeg-backed encoder.
func WithEncoder(enc Encoder) Option {
	return func(o *Orchestrator) { o.enc = enc }
}

// WithTranscriber replaces the whisper engine.
func WithTranscriber(t transcribe.Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

// New validates opts and builds an orchestrator. Options must already be
// normalized.
func New(opts config.Options, logger *zap.Logger, options ...Option) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	plat, err := platform.Get(opts.Output.Profile)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	o := &Orchestrator{
		opts:     opts,
		platform: plat,
		logger:   logging.Component(logger, "pipeline"),
	}
	for _, opt := range options {
		opt(o)
	}

	if o.enc == nil {
		o.enc = ffmpeg.NewProcessor(logger)
	}
	if o.transcriber == nil {
		var run ffmpeg.Runner
		if p, ok := o.enc.(*ffmpeg.Processor); ok {
			run = p.Runner()
		}
		o.transcriber = transcribe.NewWhisper(opts.Transcription, run, logger)
	}
	return o, nil
}

// Plan checks the batch preconditions and derives the job list without
// encoding anything. Errors here abort the whole batch.
func (o *Orchestrator) Plan(ctx context.Context) (*types.VideoAsset, Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, Plan{}, errors.WithStack(err)
	}

	paths := o.opts.Paths
	if info, err := os.Stat(paths.SourceVideo); err != nil || info.IsDir() {
		return nil, Plan{}, errors.Wrapf(types.ErrSourceUnavailable, "%s", paths.SourceVideo)
	}

	source, err := o.enc.GetVideoMetadata(paths.SourceVideo)
	if err != nil {
		return nil, Plan{}, errors.Wrapf(types.ErrSourceUnavailable, "%s: %v", paths.SourceVideo, err)
	}
	if source.Duration <= 0 {
		return nil, Plan{}, errors.Wrapf(types.ErrSourceUnavailable, "%s: duration is zero", paths.SourceVideo)
	}
	o.logger.Info("source loaded",
		zap.String("path", source.Path),
		zap.Float64("duration", source.Duration),
		zap.Int("width", source.Width),
		zap.Int("height", source.Height),
		zap.Float64("fps", source.FrameRate),
	)

	f, err := os.Open(paths.TimestampFile)
	if err != nil {
		return nil, Plan{}, errors.Wrapf(types.ErrTimestampsUnavailable, "%s: %v", paths.TimestampFile, err)
	}
	defer f.Close()

	plan, err := PlanJobs(f, source.Duration, o.logger)
	if err != nil {
		return nil, Plan{}, errors.Wrapf(types.ErrTimestampsUnavailable, "%s: %v", paths.TimestampFile, err)
	}
	o.logger.Info("jobs planned",
		zap.Int("jobs", len(plan.Jobs)),
		zap.Int("skipped", len(plan.Skipped)),
		zap.Int("adjusted", len(plan.Adjusted)),
	)
	return source, plan, nil
}

// Run executes a full batch. Job failures are recorded in the report; the
// returned error is reserved for batch-fatal conditions and cancellation.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Profile:   o.platform.Name(),
		Format:    o.opts.Output.Format,
		Mode:      o.opts.Subtitles.Mode,
		StartedAt: time.Now(),
	}
	logger := o.logger.With(zap.String("run", report.RunID))

	source, plan, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}
	report.Source = source
	report.Skipped = plan.Skipped
	report.Adjusted = plan.Adjusted

	width, height := o.platform.FrameSize()
	spec, cropErr := geometry.ComputeCrop(source.Width, source.Height, width, height)
	if cropErr != nil {
		logger.Error("source cannot be reframed", zap.Error(cropErr))
	} else {
		logger.Debug("crop computed", zap.String("filter", spec.Filter()))
	}

	encoding, settings, err := ffmpeg.ResolveEncoding(o.opts.Output.Format, o.opts.Encoding)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, dir := range []string{o.opts.Paths.WorkDir, o.opts.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	lock := flock.New(filepath.Join(o.opts.Paths.WorkDir, config.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock work directory")
	}
	if !locked {
		return nil, errors.Errorf("work directory %s is in use by another run", o.opts.Paths.WorkDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release work directory lock", zap.Error(err))
		}
	}()

	w := &worker{
		source:     source,
		spec:       spec,
		cropErr:    cropErr,
		outputDir:  o.opts.Paths.OutputDir,
		extension:  settings.FileExtension,
		platform:   o.platform,
		extractor:  processor.NewExtractor(o.enc, encoding, o.opts.Paths.WorkDir, settings.FileExtension, logger),
		generator:  transcribe.NewGenerator(o.enc, o.transcriber, o.opts.Transcription.Language, logger),
		compositor: processor.NewCompositor(o.enc, o.opts, encoding, logger),
		logger:     logger,
	}

	results := make([]Result, len(plan.Jobs))
	var g errgroup.Group
	g.SetLimit(o.opts.Pipeline.Workers)
	for i, job := range plan.Jobs {
		g.Go(func() error {
			results[i] = w.run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	sortResults(results)
	report.Results = results
	report.FinishedAt = time.Now()

	manifestPath, err := writeManifest(o.opts.Paths.OutputDir, report)
	if err != nil {
		logger.Error("manifest not written", zap.Error(err))
	} else {
		report.ManifestPath = manifestPath
	}

	logger.Info("run finished",
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", len(report.Failures())),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	if err := ctx.Err(); err != nil {
		return report, errors.WithStack(err)
	}
	return report, nil
}

// worker carries one job through every stage. It holds no per-job state,
// so concurrent calls only share read-only configuration.
type worker struct {
	source     *types.VideoAsset
	spec       geometry.Spec
	cropErr    error
	outputDir  string
	extension  string
	platform   platform.Platform
	extractor  *processor.Extractor
	generator  *transcribe.Generator
	compositor *processor.Compositor
	logger     *zap.Logger
}

func (w *worker) run(ctx context.Context, job *types.ClipJob) Result {
	logger := w.logger.With(zap.Int("clip", job.Index), zap.Stringer("range", job.Range))
	res := Result{Index: job.Index, Range: job.Range}
	fail := func(err error) Result {
		job.State = types.JobFailed
		res.State = job.State
		res.Err = err
		logger.Error("clip failed", zap.Error(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(errors.WithStack(err))
	}
	if w.cropErr != nil {
		return fail(types.NewStageError(types.TransformFailure, job.Index, w.cropErr))
	}
	if err := w.extractor.Process(ctx, w.source, job, w.spec); err != nil {
		return fail(err)
	}

	var track types.SubtitleTrack
	if w.source.HasAudio {
		if err := ctx.Err(); err != nil {
			_ = os.Remove(job.ReframedPath)
			return fail(errors.WithStack(err))
		}
		var err error
		track, err = w.generator.Generate(ctx, job, job.ReframedPath)
		if err != nil {
			_ = os.Remove(job.ReframedPath)
			return fail(err)
		}
		job.State = types.JobTranscribed
	} else {
		logger.Info("source has no audio, skipping transcription")
	}

	final := filepath.Join(w.outputDir, processor.OutputName(w.source.Path, job, w.extension))
	composite, err := w.compositor.Composite(ctx, job, track, final)
	if err != nil {
		return fail(err)
	}

	res.Path = composite.Path
	res.SubtitlePath = composite.SubtitlePath
	res.Subtitled = composite.Subtitled
	res.Segments = composite.Segments
	if info, err := os.Stat(composite.Path); err == nil {
		res.Size = info.Size()
	}

	w.checkPlatformLimits(logger, job, res.Size)
	res.State = job.State
	logger.Info("clip produced",
		zap.String("path", res.Path),
		zap.Bool("subtitled", res.Subtitled),
		zap.String("size", humanize.Bytes(uint64(res.Size))),
	)
	return res
}

func (w *worker) checkPlatformLimits(logger *zap.Logger, job *types.ClipJob, size int64) {
	if limit := w.platform.MaxClipSeconds(); limit > 0 && job.Range.Duration() > float64(limit) {
		logger.Warn("clip exceeds platform duration limit",
			zap.String("platform", w.platform.Name()),
			zap.Float64("duration", job.Range.Duration()),
			zap.Int("limit", limit),
		)
	}
	if limit := w.platform.MaxFileSize(); limit > 0 && size > limit {
		logger.Warn("clip exceeds platform upload size",
			zap.String("platform", w.platform.Name()),
			zap.String("size", humanize.Bytes(uint64(size))),
			zap.String("limit", humanize.Bytes(uint64(limit))),
		)
	}
}
