package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

// ManifestName is written into the output directory after every run.
const ManifestName = "manifest.yaml"

type manifestSource struct {
	Path      string  `yaml:"path"`
	Duration  float64 `yaml:"duration"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	FrameRate float64 `yaml:"frame_rate,omitempty"`
}

type manifestClip struct {
	Index     int     `yaml:"index"`
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
	File      string  `yaml:"file"`
	Subtitles string  `yaml:"subtitles,omitempty"`
	Subtitled bool    `yaml:"subtitled"`
	Segments  int     `yaml:"segments"`
	Size      int64   `yaml:"size"`
}

type manifestFailure struct {
	Index int     `yaml:"index,omitempty"`
	Line  int     `yaml:"line,omitempty"`
	Start float64 `yaml:"start,omitempty"`
	End   float64 `yaml:"end,omitempty"`
	Text  string  `yaml:"text,omitempty"`
	Kind  string  `yaml:"kind"`
	Error string  `yaml:"error"`
}

type manifest struct {
	RunID      string            `yaml:"run_id"`
	Profile    string            `yaml:"profile"`
	Format     string            `yaml:"format"`
	Mode       string            `yaml:"mode"`
	StartedAt  time.Time         `yaml:"started_at"`
	FinishedAt time.Time         `yaml:"finished_at"`
	Source     manifestSource    `yaml:"source"`
	Clips      []manifestClip    `yaml:"clips"`
	Failed     []manifestFailure `yaml:"failed,omitempty"`
	Skipped    []manifestFailure `yaml:"skipped,omitempty"`
}

func kindName(err error) string {
	if kind, ok := types.KindOf(err); ok {
		return string(kind)
	}
	return "Error"
}

func buildManifest(r *Report) manifest {
	m := manifest{
		RunID:      r.RunID,
		Profile:    r.Profile,
		Format:     r.Format,
		Mode:       string(r.Mode),
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Clips:      []manifestClip{},
	}
	if r.Source != nil {
		m.Source = manifestSource{
			Path:      r.Source.Path,
			Duration:  r.Source.Duration,
			Width:     r.Source.Width,
			Height:    r.Source.Height,
			FrameRate: r.Source.FrameRate,
		}
	}

	for _, res := range r.Results {
		if res.Failed() {
			msg := "failed"
			if res.Err != nil {
				msg = res.Err.Error()
			}
			m.Failed = append(m.Failed, manifestFailure{
				Index: res.Index,
				Start: res.Range.Start,
				End:   res.Range.End,
				Kind:  kindName(res.Err),
				Error: msg,
			})
			continue
		}
		clip := manifestClip{
			Index:     res.Index,
			Start:     res.Range.Start,
			End:       res.Range.End,
			File:      filepath.Base(res.Path),
			Subtitled: res.Subtitled,
			Segments:  res.Segments,
			Size:      res.Size,
		}
		if res.SubtitlePath != "" {
			clip.Subtitles = filepath.Base(res.SubtitlePath)
		}
		m.Clips = append(m.Clips, clip)
	}

	for _, s := range r.Skipped {
		m.Skipped = append(m.Skipped, manifestFailure{
			Line:  s.Line,
			Text:  s.Text,
			Kind:  kindName(s.Err),
			Error: s.Err.Error(),
		})
	}
	return m
}

// writeManifest serializes the report to dir/manifest.yaml.
func writeManifest(dir string, r *Report) (string, error) {
	data, err := yaml.Marshal(buildManifest(r))
	if err != nil {
		return "", errors.Wrap(err, "failed to encode manifest")
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write manifest")
	}
	return path, nil
}
