package timestamp

import (
	"strings"
	"testing"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"00:05", 5, false},
		{"01:30", 90, false},
		{"90:00", 5400, false},
		{"01:02:03", 3723, false},
		{" 00:10 ", 10, false},
		{"10", 0, true},
		{"1:2:3:4", 0, true},
		{"", 0, true},
		{"aa:bb", 0, true},
		{"-1:30", 0, true},
		{"+1:30", 0, true},
		{"00:60", 0, true},
		{"01:60:00", 0, true},
		{"00::10", 0, true},
		{"00:1.5", 0, true},
		{"35791394:07", 2147483647, false},
		{"35791394:08", 0, true},
		{"596523:14:07", 2147483647, false},
		{"596523:14:08", 0, true},
		{"153722867280912931:00", 0, true},
		{"99999999999999999999:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %d, want error", tt.input, got)
				}
				if !types.IsKind(err, types.InvalidFormat) {
					t.Errorf("Parse(%q) error kind = %v, want InvalidFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	inputs := []string{"00:00", "00:59", "59:59", "01:00:00", "02:03:04", "75:10", "100:00:00"}
	for _, in := range inputs {
		first, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		second, err := Parse(Format(first))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) = %q: %v", first, Format(first), err)
		}
		if first != second {
			t.Errorf("round trip of %q: %d != %d", in, first, second)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		30:   "00:30",
		3599: "59:59",
		3600: "01:00:00",
		3723: "01:02:03",
	}
	for in, want := range cases {
		if got := Format(in); got != want {
			t.Errorf("Format(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestReadRanges(t *testing.T) {
	input := "00:00-00:05\n\nnot a range\n 00:10 - 00:20 \n"
	ranges, skipped, err := ReadRanges(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRanges: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	if ranges[0].Start != "00:00" || ranges[0].End != "00:05" || ranges[0].Line != 1 {
		t.Errorf("first range = %+v", ranges[0])
	}
	if ranges[1].Start != "00:10" || ranges[1].End != "00:20" || ranges[1].Line != 4 {
		t.Errorf("second range = %+v", ranges[1])
	}
	if len(skipped) != 1 || skipped[0].Line != 3 || skipped[0].Text != "not a range" {
		t.Errorf("skipped = %+v", skipped)
	}
}

func TestParseRangeRejectsOutOfOrder(t *testing.T) {
	_, err := ParseRange(RawRange{Line: 1, Start: "00:20", End: "00:10"})
	if !types.IsKind(err, types.InvalidFormat) {
		t.Fatalf("expected InvalidFormat, got %v", err)
	}
	_, err = ParseRange(RawRange{Line: 2, Start: "00:10", End: "00:10"})
	if !types.IsKind(err, types.InvalidFormat) {
		t.Fatalf("expected InvalidFormat for empty range, got %v", err)
	}
	_, err = ParseRange(RawRange{Line: 3, Start: "00:10", End: "00:20-00:30"})
	if !types.IsKind(err, types.InvalidFormat) {
		t.Fatalf("expected InvalidFormat for extra separator, got %v", err)
	}
	_, err = ParseRange(RawRange{Line: 4, Start: "153722867280912931:00", End: "00:05"})
	if !types.IsKind(err, types.InvalidFormat) {
		t.Fatalf("expected InvalidFormat for oversized start, got %v", err)
	}
}

func TestClampToDuration(t *testing.T) {
	const duration = 30.0

	t.Run("inside", func(t *testing.T) {
		r := types.TimeRange{Start: 10, End: 20}
		got, adjusted, err := ClampToDuration(r, duration)
		if err != nil || adjusted || got != r {
			t.Errorf("got %+v adjusted=%v err=%v", got, adjusted, err)
		}
	})

	t.Run("end truncated", func(t *testing.T) {
		start, _ := Parse("00:10")
		end, _ := Parse("00:40")
		got, adjusted, err := ClampToDuration(types.TimeRange{Start: float64(start), End: float64(end)}, duration)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !adjusted {
			t.Error("expected adjusted")
		}
		if got.Start != 10 || got.End != duration {
			t.Errorf("got %+v, want (10, 30)", got)
		}
	})

	t.Run("end truncated for every overrun", func(t *testing.T) {
		for _, end := range []float64{30.001, 31, 45, 3600} {
			got, _, err := ClampToDuration(types.TimeRange{Start: 5, End: end}, duration)
			if err != nil {
				t.Fatalf("end %v: %v", end, err)
			}
			if got.End != duration || got.Start != 5 {
				t.Errorf("end %v: got %+v", end, got)
			}
		}
	})

	t.Run("start at or beyond duration dropped", func(t *testing.T) {
		for _, start := range []float64{30, 31, 120} {
			_, _, err := ClampToDuration(types.TimeRange{Start: start, End: start + 5}, duration)
			if !types.IsKind(err, types.OutOfRange) {
				t.Errorf("start %v: expected OutOfRange, got %v", start, err)
			}
		}
	})
}
