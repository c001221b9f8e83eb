package config

import "github.com/ZacxDev/clipcaster/pkg/types"

// PathsConfig locates every file a run reads or writes. Nothing is derived
// from the process working directory.
type PathsConfig struct {
	SourceVideo   string `toml:"source_video"`
	TimestampFile string `toml:"timestamp_file"`
	WorkDir       string `toml:"work_dir"`
	OutputDir     string `toml:"output_dir"`
}

// Output selects the target profile and container.
type Output struct {
	Profile string `toml:"profile"`
	Format  string `toml:"format"` // "mp4", "mkv", "mov" or "webm"; empty uses the profile's container
}

// Encoding holds the re-encode parameters shared by every ffmpeg stage.
type Encoding struct {
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioBitrate string `toml:"audio_bitrate"` // empty uses the profile's bitrate
}

// Transcription configures the speech recognition engine.
type Transcription struct {
	Command   string   `toml:"command"`
	Model     string   `toml:"model"`
	Language  string   `toml:"language"` // BCP 47 tag; empty lets the engine detect it
	Device    string   `toml:"device"`
	ExtraArgs []string `toml:"extra_args"`
}

// Style is the look of burned-in subtitles. Colours use the ASS &HAABBGGRR
// notation understood by libass.
type Style struct {
	FontFile      string `toml:"font_file"`
	FontName      string `toml:"font_name"`
	FontSize      int    `toml:"font_size"`
	PrimaryColour string `toml:"primary_colour"`
	OutlineColour string `toml:"outline_colour"`
	OutlineWidth  int    `toml:"outline_width"`
	MarginV       int    `toml:"margin_v"`
}

// Subtitles selects the composition strategy.
type Subtitles struct {
	Mode   types.CompositionMode `toml:"mode"`
	Retain bool                  `toml:"retain"` // keep the .srt next to the final clip
	Style  Style                 `toml:"style"`
}

// Pipeline tunes batch execution.
type Pipeline struct {
	Workers int `toml:"workers"`
}

// Options is the full configuration of one run.
type Options struct {
	Paths         PathsConfig   `toml:"paths"`
	Output        Output        `toml:"output"`
	Encoding      Encoding      `toml:"encoding"`
	Transcription Transcription `toml:"transcription"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Verbose       bool          `toml:"-"`
}

const (
	// Output resolution (1080x1920 portrait)
	OutputWidth  = 1080
	OutputHeight = 1920

	DefaultProfile = "tiktok"

	// Encoder defaults
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultPreset     = "fast"
	DefaultCRF        = 22

	// Transcription defaults
	DefaultWhisperCommand = "whisper"
	DefaultWhisperModel   = "small"
	DefaultWhisperDevice  = "cpu"

	// Subtitle style defaults
	DefaultFontName      = "Arial"
	DefaultFontSize      = 18
	DefaultPrimaryColour = "&H00FFFFFF" // white
	DefaultOutlineColour = "&H00000000" // black
	DefaultOutlineWidth  = 2
	DefaultMarginV       = 40

	// Lock file created inside WorkDir for the duration of a run
	LockFileName = ".clipcaster.lock"
)

// Default returns Options populated with every default.
func Default() Options {
	return Options{
		Output: Output{
			Profile: DefaultProfile,
		},
		Encoding: Encoding{
			VideoCodec: DefaultVideoCodec,
			AudioCodec: DefaultAudioCodec,
			Preset:     DefaultPreset,
			CRF:        DefaultCRF,
		},
		Transcription: Transcription{
			Command: DefaultWhisperCommand,
			Model:   DefaultWhisperModel,
			Device:  DefaultWhisperDevice,
		},
		Subtitles: Subtitles{
			Mode: types.CompositionBurn,
			Style: Style{
				FontName:      DefaultFontName,
				FontSize:      DefaultFontSize,
				PrimaryColour: DefaultPrimaryColour,
				OutlineColour: DefaultOutlineColour,
				OutlineWidth:  DefaultOutlineWidth,
				MarginV:       DefaultMarginV,
			},
		},
		Pipeline: Pipeline{
			Workers: 1,
		},
	}
}
