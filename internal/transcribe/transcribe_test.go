package transcribe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"

	"github.com/ZacxDev/clipcaster/internal/config"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

const sampleWhisperJSON = `{
  "text": " namaste doston",
  "language": "hi",
  "segments": [
    {"id": 0, "seek": 0, "start": 0.0, "end": 1.2, "text": " namaste"},
    {"id": 1, "seek": 0, "start": 1.2, "end": 2.64, "text": " doston "}
  ]
}`

// whisperStub emulates the CLI by writing <stem>.json into --output_dir.
func whisperStub(t *testing.T, payload string, calls *[][]string) func(string, ...string) ([]byte, error) {
	t.Helper()
	return func(name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		audio := args[0]
		var outDir string
		for i := 0; i+1 < len(args); i++ {
			if args[i] == "--output_dir" {
				outDir = args[i+1]
			}
		}
		stem := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
		if err := os.WriteFile(filepath.Join(outDir, stem+".json"), []byte(payload), 0o644); err != nil {
			t.Fatalf("stub write: %v", err)
		}
		return nil, nil
	}
}

func TestWhisperTranscribe(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip_001.wav")

	var calls [][]string
	cfg := config.Default().Transcription
	cfg.ExtraArgs = []string{"--beam_size", "5"}
	w := NewWhisper(cfg, whisperStub(t, sampleWhisperJSON, &calls), zaptest.NewLogger(t))

	segments, err := w.Transcribe(context.Background(), audio, "hi")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[1].StartSeconds != 1.2 || segments[1].EndSeconds != 2.64 || segments[1].ID != 1 {
		t.Errorf("segment = %+v", segments[1])
	}

	cmd := strings.Join(calls[0], " ")
	for _, want := range []string{
		"whisper " + audio,
		"--model small",
		"--output_format json",
		"--output_dir " + dir,
		"--language hi",
		"--device cpu",
		"--fp16 False",
		"--beam_size 5",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "clip_001.json")); !os.IsNotExist(err) {
		t.Error("whisper JSON output should be removed")
	}
}

func TestWhisperOmitsEmptyLanguage(t *testing.T) {
	var calls [][]string
	w := NewWhisper(config.Default().Transcription, whisperStub(t, `{"segments":[]}`, &calls), zaptest.NewLogger(t))
	segments, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 0 {
		t.Errorf("segments = %v", segments)
	}
	for _, arg := range calls[0] {
		if arg == "--language" {
			t.Error("--language passed without a hint")
		}
	}
}

func TestWhisperFailures(t *testing.T) {
	dir := t.TempDir()

	failing := func(string, ...string) ([]byte, error) {
		return []byte("RuntimeError: model not found"), errors.New("exit status 1")
	}
	w := NewWhisper(config.Default().Transcription, failing, zaptest.NewLogger(t))
	_, err := w.Transcribe(context.Background(), filepath.Join(dir, "a.wav"), "hi")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("err = %v", err)
	}

	silent := func(string, ...string) ([]byte, error) { return nil, nil }
	w = NewWhisper(config.Default().Transcription, silent, zaptest.NewLogger(t))
	if _, err := w.Transcribe(context.Background(), filepath.Join(dir, "b.wav"), "hi"); err == nil {
		t.Error("expected error when no JSON is produced")
	}

	var calls [][]string
	w = NewWhisper(config.Default().Transcription, whisperStub(t, "{not json", &calls), zaptest.NewLogger(t))
	if _, err := w.Transcribe(context.Background(), filepath.Join(dir, "c.wav"), "hi"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

type fakeAudio struct {
	err     error
	written string
}

func (f *fakeAudio) ExtractAudio(_ context.Context, _, dst string) error {
	if f.err != nil {
		return f.err
	}
	f.written = dst
	return os.WriteFile(dst, []byte("RIFF"), 0o644)
}

type fakeEngine struct {
	segments []types.TranscriptSegment
	err      error
	sawAudio bool
}

func (f *fakeEngine) Transcribe(_ context.Context, audioPath, _ string) ([]types.TranscriptSegment, error) {
	_, statErr := os.Stat(audioPath)
	f.sawAudio = statErr == nil
	return f.segments, f.err
}

func TestGeneratorGenerate(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip_002_reframed.mp4")
	audio := &fakeAudio{}
	engine := &fakeEngine{segments: []types.TranscriptSegment{
		{ID: 0, StartSeconds: 0, EndSeconds: 1, Text: "  hello  "},
		{ID: 1, StartSeconds: 2, EndSeconds: 1, Text: "backwards"},
		{ID: 2, StartSeconds: -1, EndSeconds: 1, Text: "negative"},
		{ID: 3, StartSeconds: math.NaN(), EndSeconds: 4, Text: "nan"},
		{ID: 4, StartSeconds: 3, EndSeconds: 4, Text: "world"},
	}}

	g := NewGenerator(audio, engine, "hi", zaptest.NewLogger(t))
	track, err := g.Generate(context.Background(), &types.ClipJob{Index: 2}, clip)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !engine.sawAudio {
		t.Error("engine did not receive an existing audio file")
	}
	if len(track.Segments) != 2 || track.Segments[0].Text != "hello" || track.Segments[1].Text != "world" {
		t.Errorf("track = %+v", track.Segments)
	}
	if audio.written != AudioPath(clip) {
		t.Errorf("audio path = %q", audio.written)
	}
	if _, err := os.Stat(AudioPath(clip)); !os.IsNotExist(err) {
		t.Error("audio artifact should be deleted")
	}
}

func TestGeneratorAllSegmentsDropped(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip_001.mp4")
	engine := &fakeEngine{segments: []types.TranscriptSegment{
		{ID: 0, StartSeconds: 5, EndSeconds: 5, Text: "zero length"},
	}}

	g := NewGenerator(&fakeAudio{}, engine, "", zaptest.NewLogger(t))
	track, err := g.Generate(context.Background(), &types.ClipJob{Index: 1}, clip)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !track.Empty() {
		t.Errorf("track = %+v, want empty", track.Segments)
	}
}

func TestGeneratorFailuresAreTranscriptionFailures(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip_003.mp4")

	tests := []struct {
		name   string
		audio  *fakeAudio
		engine *fakeEngine
	}{
		{"audio extraction", &fakeAudio{err: errors.New("no audio stream")}, &fakeEngine{}},
		{"recognition", &fakeAudio{}, &fakeEngine{err: errors.New("whisper crashed")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.audio, tt.engine, "", zaptest.NewLogger(t))
			_, err := g.Generate(context.Background(), &types.ClipJob{Index: 3}, clip)
			if !types.IsKind(err, types.TranscriptionFailure) {
				t.Fatalf("err = %v, want TranscriptionFailure", err)
			}
			if _, statErr := os.Stat(AudioPath(clip)); !os.IsNotExist(statErr) {
				t.Error("audio artifact left behind")
			}
		})
	}
}

func TestAudioPath(t *testing.T) {
	if got := AudioPath("/work/clip_001.mp4"); got != "/work/clip_001.wav" {
		t.Errorf("AudioPath = %q", got)
	}
}
