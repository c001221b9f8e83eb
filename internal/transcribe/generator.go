package transcribe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/logging"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// AudioExtractor writes a clip's audio track to a standalone file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, src, dst string) error
}

// Generator produces the subtitle track for one clip: audio extraction,
// recognition, then cleanup of the intermediate audio.
type Generator struct {
	audio    AudioExtractor
	engine   Transcriber
	language string
	logger   *zap.Logger
}

// NewGenerator wires an audio extractor and an engine together.
func NewGenerator(audio AudioExtractor, engine Transcriber, language string, logger *zap.Logger) *Generator {
	return &Generator{
		audio:    audio,
		engine:   engine,
		language: language,
		logger:   logging.Component(logger, "transcribe"),
	}
}

// AudioPath is where the intermediate audio for clipPath is written.
func AudioPath(clipPath string) string {
	return strings.TrimSuffix(clipPath, filepath.Ext(clipPath)) + ".wav"
}

// Generate transcribes the clip at clipPath. Every failure is a
// TranscriptionFailure for job; the audio artifact never outlives the call.
func (g *Generator) Generate(ctx context.Context, job *types.ClipJob, clipPath string) (types.SubtitleTrack, error) {
	logger := g.logger.With(zap.Int("clip", job.Index))
	audioPath := AudioPath(clipPath)
	defer os.Remove(audioPath)

	if err := g.audio.ExtractAudio(ctx, clipPath, audioPath); err != nil {
		return types.SubtitleTrack{}, types.NewStageError(types.TranscriptionFailure, job.Index,
			errors.Wrap(err, "audio extraction failed"))
	}

	raw, err := g.engine.Transcribe(ctx, audioPath, g.language)
	if err != nil {
		return types.SubtitleTrack{}, types.NewStageError(types.TranscriptionFailure, job.Index,
			errors.Wrap(err, "speech recognition failed"))
	}

	track := types.SubtitleTrack{Segments: Sanitize(raw, logger)}
	if track.Empty() {
		logger.Info("transcript has no usable segments", zap.Int("raw", len(raw)))
	}
	logger.Debug("transcribed clip",
		zap.Int("segments", len(track.Segments)),
		zap.Int("dropped", len(raw)-len(track.Segments)),
	)
	return track, nil
}

// Sanitize trims segment text and drops segments whose times violate
// 0 <= start < end. Order is preserved.
func Sanitize(segments []types.TranscriptSegment, logger *zap.Logger) []types.TranscriptSegment {
	out := make([]types.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		if !validTiming(seg.StartSeconds, seg.EndSeconds) {
			if logger != nil {
				logger.Warn("dropping transcript segment with invalid timing",
					zap.Int("segment", seg.ID),
					zap.Float64("start", seg.StartSeconds),
					zap.Float64("end", seg.EndSeconds),
				)
			}
			continue
		}
		seg.Text = strings.TrimSpace(seg.Text)
		out = append(out, seg)
	}
	return out
}

func validTiming(start, end float64) bool {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return false
	}
	return start >= 0 && start < end
}
