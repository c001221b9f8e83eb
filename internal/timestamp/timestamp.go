// Package timestamp parses the human-entered clip ranges that drive a run.
package timestamp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

// MaxSeconds is the largest timestamp Parse accepts.
const MaxSeconds = math.MaxInt32

// Parse converts MM:SS or HH:MM:SS into whole seconds. Any other shape is
// rejected with an InvalidFormat error.
func Parse(text string) (int, error) {
	text = strings.TrimSpace(text)
	fields := strings.Split(text, ":")
	if len(fields) != 2 && len(fields) != 3 {
		return 0, types.Stagef(types.InvalidFormat, 0, "timestamp %q: want MM:SS or HH:MM:SS", text)
	}

	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := parseField(f)
		if err != nil {
			return 0, types.Stagef(types.InvalidFormat, 0, "timestamp %q: %v", text, err)
		}
		values[i] = v
	}

	if values[len(values)-1] >= 60 {
		return 0, types.Stagef(types.InvalidFormat, 0, "timestamp %q: seconds field must be below 60", text)
	}

	if len(values) == 2 {
		if values[0] > (MaxSeconds-values[1])/60 {
			return 0, tooLarge(text)
		}
		return values[0]*60 + values[1], nil
	}
	if values[1] >= 60 {
		return 0, types.Stagef(types.InvalidFormat, 0, "timestamp %q: minutes field must be below 60", text)
	}
	if values[0] > (MaxSeconds-values[1]*60-values[2])/3600 {
		return 0, tooLarge(text)
	}
	return values[0]*3600 + values[1]*60 + values[2], nil
}

func tooLarge(text string) error {
	return types.Stagef(types.InvalidFormat, 0, "timestamp %q: exceeds %d seconds", text, MaxSeconds)
}

// parseField accepts ASCII digits only; signs, spaces and empty fields fail.
func parseField(f string) (int, error) {
	if f == "" {
		return 0, fmt.Errorf("empty field")
	}
	for _, r := range f {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("field %q is not a non-negative integer", f)
		}
	}
	v, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("field %q is out of range", f)
	}
	return v, nil
}

// Format renders whole seconds as MM:SS below one hour and HH:MM:SS above.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatSeconds renders a fractional duration, truncated to whole seconds.
func FormatSeconds(seconds float64) string {
	return Format(int(seconds))
}
