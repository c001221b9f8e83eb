package timestamp

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Separator splits the start and end of a range line.
const Separator = "-"

// RawRange is one unparsed "<start>-<end>" line.
type RawRange struct {
	Line  int
	Start string
	End   string
}

// SkippedLine is a non-blank input line that carried no separator.
type SkippedLine struct {
	Line int
	Text string
}

// ReadRanges returns one RawRange per line containing Separator, in input
// order. Blank lines are ignored; other lines without a separator are
// returned as skipped rather than failing the read.
func ReadRanges(r io.Reader) ([]RawRange, []SkippedLine, error) {
	var (
		ranges  []RawRange
		skipped []SkippedLine
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		start, end, ok := strings.Cut(line, Separator)
		if !ok {
			skipped = append(skipped, SkippedLine{Line: lineNo, Text: line})
			continue
		}
		ranges = append(ranges, RawRange{
			Line:  lineNo,
			Start: strings.TrimSpace(start),
			End:   strings.TrimSpace(end),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read timestamp lines")
	}

	return ranges, skipped, nil
}

// ParseRange converts a raw line into a TimeRange. Out-of-order or empty
// ranges are rejected as InvalidFormat.
func ParseRange(raw RawRange) (types.TimeRange, error) {
	start, err := Parse(raw.Start)
	if err != nil {
		return types.TimeRange{}, errors.Wrapf(err, "line %d", raw.Line)
	}
	end, err := Parse(raw.End)
	if err != nil {
		return types.TimeRange{}, errors.Wrapf(err, "line %d", raw.Line)
	}
	if start >= end {
		return types.TimeRange{}, types.Stagef(types.InvalidFormat, 0,
			"line %d: start %s is not before end %s", raw.Line, raw.Start, raw.End)
	}
	return types.TimeRange{Start: float64(start), End: float64(end)}, nil
}

// ClampToDuration fits r inside [0, duration]. A range starting at or past
// the end of the source is dropped with an OutOfRange error; an end past the
// source is truncated to duration and adjusted is true.
func ClampToDuration(r types.TimeRange, duration float64) (clamped types.TimeRange, adjusted bool, err error) {
	if r.Start >= duration {
		return types.TimeRange{}, false, types.Stagef(types.OutOfRange, 0,
			"start %.3fs is at or beyond source duration %.3fs", r.Start, duration)
	}
	if r.End > duration {
		return types.TimeRange{Start: r.Start, End: duration}, true, nil
	}
	return r, false, nil
}
