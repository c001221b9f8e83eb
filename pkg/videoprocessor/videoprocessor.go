// Package videoprocessor is the entry point for producing subtitled
// portrait clips from a long-form source video.
package videoprocessor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/pipeline"
	"github.com/ZacxDev/clipcaster/internal/platform"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Options is the full run configuration.
type Options = config.Options

// Report summarizes a finished run.
type Report = pipeline.Report

// Result is the outcome of one clip.
type Result = pipeline.Result

// Plan is the job list derived from a timestamp file.
type Plan = pipeline.Plan

// ProfileInfo describes one registered output target.
type ProfileInfo struct {
	Name           string
	Width          int
	Height         int
	MaxClipSeconds int
	MaxFileSize    int64
	AudioBitrate   string
	Container      string
}

// LoadOptions reads a TOML config file over the defaults. An empty path
// yields the defaults.
func LoadOptions(path string) (Options, error) {
	return config.Load(path)
}

// ProduceClips cuts, reframes, transcribes and subtitles every range in
// the timestamp file. Per-clip failures are reported in the Report; the
// error is non-nil only when the batch could not run.
func ProduceClips(ctx context.Context, opts Options, logger *zap.Logger) (*Report, error) {
	o, err := newOrchestrator(opts, logger)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx)
}

// PlanRanges probes the source and resolves the timestamp file into jobs
// without encoding anything.
func PlanRanges(ctx context.Context, opts Options, logger *zap.Logger) (*types.VideoAsset, Plan, error) {
	o, err := newOrchestrator(opts, logger)
	if err != nil {
		return nil, Plan{}, err
	}
	return o.Plan(ctx)
}

func newOrchestrator(opts Options, logger *zap.Logger) (*pipeline.Orchestrator, error) {
	if err := opts.Normalize(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return pipeline.New(opts, logger)
}

// GetSupportedPlatforms returns the registered profile names.
func GetSupportedPlatforms() []string {
	return platform.GetSupportedPlatforms()
}

// Profiles describes every registered profile in name order.
func Profiles() []ProfileInfo {
	names := platform.GetSupportedPlatforms()
	infos := make([]ProfileInfo, 0, len(names))
	for _, name := range names {
		p, err := platform.Get(name)
		if err != nil {
			continue
		}
		w, h := p.FrameSize()
		infos = append(infos, ProfileInfo{
			Name:           p.Name(),
			Width:          w,
			Height:         h,
			MaxClipSeconds: p.MaxClipSeconds(),
			MaxFileSize:    p.MaxFileSize(),
			AudioBitrate:   p.AudioBitrate(),
			Container:      p.Container(),
		})
	}
	return infos
}
