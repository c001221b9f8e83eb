// Package processor runs the per-clip encoding stages: cutting and
// reframing a ClipJob, and compositing its subtitles into the deliverable.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/geometry"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Encoder is the media surface the stages drive. *ffmpeg.Processor
// implements it.
type Encoder interface {
	GetVideoMetadata(path string) (*types.VideoAsset, error)
	ExtractClip(ctx context.Context, source *types.VideoAsset, dst string, r types.TimeRange, enc config.Encoding) error
	Reframe(ctx context.Context, src, dst string, spec geometry.Spec, enc config.Encoding) error
	BurnSubtitles(ctx context.Context, src, srtPath, dst string, style config.Style, enc config.Encoding) error
	MuxSubtitles(ctx context.Context, src, srtPath, dst, subtitleCodec, language string) error
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	underscores = regexp.MustCompile(`_+`)
)

// sanitizeFilename reduces a source file name to a safe artifact prefix.
func sanitizeFilename(filename string) string {
	sanitized := strings.TrimSuffix(filename, filepath.Ext(filename))
	sanitized = unsafeChars.ReplaceAllString(sanitized, "_")
	sanitized = underscores.ReplaceAllString(sanitized, "_")
	return strings.Trim(sanitized, "_")
}

// ensureOutputPath creates the parent directory of path and forces the
// container extension.
func ensureOutputPath(path, extension string) (string, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	if !strings.EqualFold(filepath.Ext(path), extension) {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + extension
	}
	return path, nil
}

// OutputName is the deliverable file name for a job cut from sourcePath.
func OutputName(sourcePath string, job *types.ClipJob, extension string) string {
	prefix := sanitizeFilename(filepath.Base(sourcePath))
	if prefix == "" {
		return job.Name() + extension
	}
	return fmt.Sprintf("%s_%s%s", prefix, job.Name(), extension)
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
