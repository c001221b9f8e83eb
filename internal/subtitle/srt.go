// Package subtitle renders transcript tracks as SubRip (.srt) documents.
package subtitle

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Extension of the documents written by WriteFile.
const Extension = ".srt"

// Format serializes a track. Blocks are numbered from 1 in track order;
// segments whose text is empty after trimming are left out and do not
// consume a number.
func Format(track types.SubtitleTrack) string {
	var b strings.Builder
	n := 0
	for _, seg := range track.Segments {
		text := cleanText(seg.Text)
		if text == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			n, Timestamp(seg.StartSeconds), Timestamp(seg.EndSeconds), text)
	}
	return b.String()
}

// Timestamp renders seconds as HH:MM:SS,mmm, rounded to the nearest
// millisecond. Negative input clamps to zero.
func Timestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// cleanText trims the segment and drops blank lines inside it, which
// would otherwise terminate the block early.
func cleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Count returns the number of blocks Format would emit.
func Count(track types.SubtitleTrack) int {
	n := 0
	for _, seg := range track.Segments {
		if cleanText(seg.Text) != "" {
			n++
		}
	}
	return n
}

// WriteFile formats the track and writes it to path as UTF-8.
func WriteFile(path string, track types.SubtitleTrack) error {
	if err := os.WriteFile(path, []byte(Format(track)), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write subtitles %s", path)
	}
	return nil
}
