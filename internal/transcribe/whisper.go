// Package transcribe turns a clip's audio into time-aligned transcript
// segments using an external speech recognition engine.
package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/ffmpeg"
	"github.com/ZacxDev/clipcaster/internal/logging"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Transcriber produces ordered, non-overlapping segments for an audio file.
// language may be empty to let the engine detect it.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]types.TranscriptSegment, error)
}

// Whisper drives the openai-whisper command line tool.
type Whisper struct {
	cfg    config.Transcription
	run    ffmpeg.Runner
	logger *zap.Logger
}

// NewWhisper returns an engine that runs cfg.Command through run.
func NewWhisper(cfg config.Transcription, run ffmpeg.Runner, logger *zap.Logger) *Whisper {
	if run == nil {
		run = ffmpeg.ExecRunner
	}
	return &Whisper{
		cfg:    cfg,
		run:    run,
		logger: logging.Component(logger, "whisper"),
	}
}

// Model returns the configured model name for logging.
func (w *Whisper) Model() string {
	if w.cfg.Model != "" {
		return w.cfg.Model
	}
	return config.DefaultWhisperModel
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperPayload struct {
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

// Transcribe runs the engine with JSON output next to the audio file,
// reads the segments back and removes the JSON.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, language string) ([]types.TranscriptSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if audioPath == "" {
		return nil, errors.New("audio path required")
	}

	outputDir := filepath.Dir(audioPath)
	args := w.buildArgs(audioPath, outputDir, language)
	w.logger.Debug("running whisper",
		zap.String("command", w.cfg.Command),
		zap.Strings("args", args),
	)

	out, err := w.run(w.cfg.Command, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s failed: %s", w.cfg.Command, strings.TrimSpace(string(out)))
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))+".json")
	defer os.Remove(jsonPath)

	payload, err := loadPayload(jsonPath)
	if err != nil {
		return nil, err
	}

	segments := make([]types.TranscriptSegment, 0, len(payload.Segments))
	for _, s := range payload.Segments {
		segments = append(segments, types.TranscriptSegment{
			ID:           s.ID,
			StartSeconds: s.Start,
			EndSeconds:   s.End,
			Text:         s.Text,
		})
	}
	return segments, nil
}

func (w *Whisper) buildArgs(audioPath, outputDir, language string) []string {
	args := make([]string, 0, 16+len(w.cfg.ExtraArgs))
	args = append(args,
		audioPath,
		"--model", w.Model(),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	)
	if language != "" {
		args = append(args, "--language", language)
	}
	if w.cfg.Device != "" {
		args = append(args, "--device", w.cfg.Device)
		if w.cfg.Device == config.DefaultWhisperDevice {
			// half precision is unsupported on CPU and only produces a warning
			args = append(args, "--fp16", "False")
		}
	}
	return append(args, w.cfg.ExtraArgs...)
}

func loadPayload(path string) (whisperPayload, error) {
	var payload whisperPayload
	data, err := os.ReadFile(path)
	if err != nil {
		return payload, errors.Wrap(err, "whisper output missing")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Wrap(err, "failed to parse whisper output")
	}
	return payload, nil
}
