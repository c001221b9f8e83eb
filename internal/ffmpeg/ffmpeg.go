package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/internal/logging"
)

// Binary names resolved from PATH by the default runner.
const (
	FFmpegCommand = "ffmpeg"
)

// Runner executes an external program and returns its combined output.
// The process is never killed mid-flight; callers check cancellation
// between stages.
type Runner func(name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// ProbeFunc returns ffprobe's JSON description of a media file.
type ProbeFunc func(path string) (string, error)

func defaultProbe(path string) (string, error) {
	return ffmpeg.Probe(path)
}

// CodecSettings describes what a container accepts and the default
// encoders used when the configured ones cannot go into it.
type CodecSettings struct {
	VideoCodec      string
	AudioCodec      string
	SubtitleCodec   string // empty when the container cannot carry SRT-derived text
	ContainerFormat string
	FileExtension   string
	// VideoCodecs/AudioCodecs restrict the encoders for this container;
	// nil accepts anything.
	VideoCodecs []string
	AudioCodecs []string
	// OutputArgs are appended to every command writing this container.
	OutputArgs ffmpeg.KwArgs
}

var codecPresets = map[string]CodecSettings{
	"webm": {
		VideoCodec:      "libvpx-vp9",
		AudioCodec:      "libopus",
		ContainerFormat: "webm",
		FileExtension:   ".webm",
		VideoCodecs:     []string{"libvpx-vp9", "libvpx", "libaom-av1", "libsvtav1", "copy"},
		AudioCodecs:     []string{"libopus", "libvorbis", "copy"},
		OutputArgs: ffmpeg.KwArgs{
			"deadline": "good",
			"cpu-used": 2,
			"row-mt":   1,
		},
	},
	"mp4": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		SubtitleCodec:   "mov_text",
		ContainerFormat: "mp4",
		FileExtension:   ".mp4",
		OutputArgs: ffmpeg.KwArgs{
			"movflags": "+faststart",
		},
	},
	"mov": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		SubtitleCodec:   "mov_text",
		ContainerFormat: "mov",
		FileExtension:   ".mov",
	},
	"mkv": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		SubtitleCodec:   "srt",
		ContainerFormat: "matroska",
		FileExtension:   ".mkv",
	},
}

// GetCodecSettings returns the preset for a container format.
func GetCodecSettings(outputFormat string) (CodecSettings, error) {
	settings, ok := codecPresets[strings.ToLower(strings.TrimPrefix(outputFormat, "."))]
	if !ok {
		return CodecSettings{}, errors.Errorf("unsupported output format: %s", outputFormat)
	}
	return settings, nil
}

// ResolveEncoding swaps in the container's default encoders where the
// configured ones are missing or not accepted by the container.
func ResolveEncoding(outputFormat string, enc config.Encoding) (config.Encoding, CodecSettings, error) {
	settings, err := GetCodecSettings(outputFormat)
	if err != nil {
		return enc, settings, err
	}
	if enc.VideoCodec == "" || (settings.VideoCodecs != nil && !slices.Contains(settings.VideoCodecs, enc.VideoCodec)) {
		enc.VideoCodec = settings.VideoCodec
	}
	if enc.AudioCodec == "" || (settings.AudioCodecs != nil && !slices.Contains(settings.AudioCodecs, enc.AudioCodec)) {
		enc.AudioCodec = settings.AudioCodec
	}
	return enc, settings, nil
}

// withContainerArgs merges the destination container's OutputArgs into
// kwargs without overriding keys already set.
func withContainerArgs(dst string, kwargs ffmpeg.KwArgs) ffmpeg.KwArgs {
	settings, err := GetCodecSettings(filepath.Ext(dst))
	if err != nil {
		return kwargs
	}
	for k, v := range settings.OutputArgs {
		if _, ok := kwargs[k]; !ok {
			kwargs[k] = v
		}
	}
	return kwargs
}

// Processor wraps FFmpeg functionality
type Processor struct {
	logger  *zap.Logger
	run     Runner
	probe   ProbeFunc
	threads int
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(logger *zap.Logger) *Processor {
	return &Processor{
		logger:  logging.Component(logger, "ffmpeg"),
		run:     ExecRunner,
		probe:   defaultProbe,
		threads: GetOptimalThreadCount(),
	}
}

// WithRunner swaps the process runner, mainly for tests.
func (p *Processor) WithRunner(r Runner) *Processor {
	if r != nil {
		p.run = r
	}
	return p
}

// WithProbe swaps the ffprobe implementation, mainly for tests.
func (p *Processor) WithProbe(f ProbeFunc) *Processor {
	if f != nil {
		p.probe = f
	}
	return p
}

// Runner exposes the configured runner so sibling stages (the transcriber)
// spawn processes the same way.
func (p *Processor) Runner() Runner {
	return p.run
}

// execute compiles the ffmpeg-go graph to argv and runs it. A non-zero
// exit or fatal diagnostics in the captured output are both failures.
func (p *Processor) execute(ctx context.Context, stream *ffmpeg.Stream) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	args := stream.GetArgs()
	p.logger.Debug("executing ffmpeg", zap.Strings("args", args))

	out, err := p.run(FFmpegCommand, args...)
	if err != nil {
		return errors.Wrapf(err, "ffmpeg exited with error: %s", lastLines(out, 5))
	}
	if diag := fatalDiagnostic(out); diag != "" {
		return errors.Errorf("ffmpeg reported failure: %s", diag)
	}
	return nil
}

// Markers ffmpeg prints for failures that do not always set an exit code
// (notably filter initialisation inside long graphs).
var fatalMarkers = []string{
	"Conversion failed!",
	"Error initializing filter",
	"Error opening input",
	"Error opening output",
	"Unable to open",
	"Invalid data found when processing input",
	"Could not write header",
	"No such file or directory",
}

func fatalDiagnostic(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		for _, marker := range fatalMarkers {
			if strings.Contains(line, marker) {
				return strings.TrimSpace(line)
			}
		}
	}
	return ""
}

func lastLines(out []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
