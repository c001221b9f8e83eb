package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/text/language"

	"github.com/ZacxDev/clipcaster/internal/platform"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

var supportedFormats = []string{"mp4", "mkv", "mov", "webm"}

// Load reads a TOML file over the defaults. An empty path returns Default().
func Load(path string) (Options, error) {
	opts := Default()
	if strings.TrimSpace(path) == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return Options{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return opts, nil
}

// Normalize cleans user input in place: trims strings, lowercases enums,
// fills profile-derived defaults, makes paths absolute and canonicalizes
// the language tag.
func (o *Options) Normalize() error {
	o.Output.Profile = strings.ToLower(strings.TrimSpace(o.Output.Profile))
	o.Output.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(o.Output.Format), "."))
	o.Subtitles.Mode = types.CompositionMode(strings.ToLower(strings.TrimSpace(string(o.Subtitles.Mode))))
	o.Encoding.AudioBitrate = strings.TrimSpace(o.Encoding.AudioBitrate)

	if p, err := platform.Get(o.Output.Profile); err == nil {
		if o.Output.Format == "" {
			o.Output.Format = p.Container()
		}
		if o.Encoding.AudioBitrate == "" {
			o.Encoding.AudioBitrate = p.AudioBitrate()
		}
	}

	for _, p := range []*string{
		&o.Paths.SourceVideo,
		&o.Paths.TimestampFile,
		&o.Paths.WorkDir,
		&o.Paths.OutputDir,
		&o.Subtitles.Style.FontFile,
	} {
		*p = strings.TrimSpace(*p)
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve path %s", *p)
		}
		*p = abs
	}

	lang := strings.TrimSpace(o.Transcription.Language)
	if lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return errors.Wrapf(err, "invalid transcription language %q", lang)
		}
		base, _ := tag.Base()
		lang = base.String()
	}
	o.Transcription.Language = lang
	return nil
}

// Validate reports the first configuration problem found.
func (o *Options) Validate() error {
	if o.Paths.SourceVideo == "" {
		return errors.New("source video path is required")
	}
	if o.Paths.TimestampFile == "" {
		return errors.New("timestamp file path is required")
	}
	if o.Paths.WorkDir == "" {
		return errors.New("work directory is required")
	}
	if o.Paths.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if filepath.Clean(o.Paths.WorkDir) == filepath.Clean(o.Paths.OutputDir) {
		return errors.New("work directory and output directory must differ")
	}
	if _, err := platform.Get(o.Output.Profile); err != nil {
		return errors.WithStack(err)
	}
	if !slices.Contains(supportedFormats, o.Output.Format) {
		return errors.Errorf("unsupported output format: %s (supported: %s)",
			o.Output.Format, strings.Join(supportedFormats, ", "))
	}
	switch o.Subtitles.Mode {
	case types.CompositionBurn, types.CompositionSoft:
	default:
		return errors.Errorf("unsupported subtitle mode: %q (supported: burn, soft)", o.Subtitles.Mode)
	}
	if o.Encoding.CRF < 0 || o.Encoding.CRF > 51 {
		return errors.Errorf("crf %d out of range 0-51", o.Encoding.CRF)
	}
	if o.Pipeline.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", o.Pipeline.Workers)
	}
	if strings.TrimSpace(o.Transcription.Command) == "" {
		return errors.New("transcription command is required")
	}
	if o.Subtitles.Style.FontFile != "" {
		if _, err := os.Stat(o.Subtitles.Style.FontFile); err != nil {
			return errors.Wrap(err, "font file not accessible")
		}
	}
	return nil
}

// SupportedFormats lists the accepted container formats.
func SupportedFormats() []string {
	return slices.Clone(supportedFormats)
}
