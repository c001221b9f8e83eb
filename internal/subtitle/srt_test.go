package subtitle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.2, "00:00:01,200"},
		{61.0006, "00:01:01,001"},
		{3599.9994, "00:59:59,999"},
		{3599.9996, "01:00:00,000"},
		{3723.5, "01:02:03,500"},
		{-0.4, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := Timestamp(tt.seconds); got != tt.want {
			t.Errorf("Timestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	track := types.SubtitleTrack{Segments: []types.TranscriptSegment{
		{ID: 7, StartSeconds: 0, EndSeconds: 1.2, Text: "  namaste  "},
		{ID: 8, StartSeconds: 1.2, EndSeconds: 2.5, Text: "   "},
		{ID: 9, StartSeconds: 2.5, EndSeconds: 4.25, Text: "first line\n\nsecond line"},
	}}

	want := "1\n00:00:00,000 --> 00:00:01,200\nnamaste\n\n" +
		"2\n00:00:02,500 --> 00:00:04,250\nfirst line\nsecond line\n\n"
	if got := Format(track); got != want {
		t.Errorf("Format mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := Count(track); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestFormatEmptyTrack(t *testing.T) {
	if got := Format(types.SubtitleTrack{}); got != "" {
		t.Errorf("Format(empty) = %q", got)
	}
}

func TestFormatDeterministic(t *testing.T) {
	track := types.SubtitleTrack{Segments: []types.TranscriptSegment{
		{StartSeconds: 0.333, EndSeconds: 0.999, Text: "a"},
		{StartSeconds: 1, EndSeconds: 2, Text: "b"},
	}}
	if Format(track) != Format(track) {
		t.Error("Format is not deterministic")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip_001.srt")
	track := types.SubtitleTrack{Segments: []types.TranscriptSegment{
		{StartSeconds: 0, EndSeconds: 1, Text: "hello"},
	}}
	if err := WriteFile(path, track); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != Format(track) {
		t.Errorf("file content = %q", data)
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.srt"), track); err == nil {
		t.Error("expected error for missing directory")
	}
}
