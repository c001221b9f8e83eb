package pipeline

import (
	"io"

	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/timestamp"
	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Skipped is a timestamp entry that did not become a job.
type Skipped struct {
	Line int
	Text string
	Err  error
}

// Plan is the ordered job list derived from a timestamp file.
type Plan struct {
	Jobs     []*types.ClipJob
	Skipped  []Skipped
	Adjusted []int // indices of jobs whose end was truncated
}

// PlanJobs parses every range line and fits it to the source duration.
// Malformed lines and ranges starting past the end of the source are
// reported in Skipped; the rest become Pending jobs numbered from 1.
func PlanJobs(r io.Reader, duration float64, logger *zap.Logger) (Plan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	raws, noSeparator, err := timestamp.ReadRanges(r)
	if err != nil {
		return Plan{}, err
	}

	var plan Plan
	for _, line := range noSeparator {
		err := types.Stagef(types.InvalidFormat, 0, "line %d: missing %q separator", line.Line, timestamp.Separator)
		logger.Warn("skipping timestamp line", zap.Int("line", line.Line), zap.String("text", line.Text), zap.Error(err))
		plan.Skipped = append(plan.Skipped, Skipped{Line: line.Line, Text: line.Text, Err: err})
	}

	for _, raw := range raws {
		text := raw.Start + timestamp.Separator + raw.End

		rng, err := timestamp.ParseRange(raw)
		if err != nil {
			logger.Warn("skipping timestamp line", zap.Int("line", raw.Line), zap.String("text", text), zap.Error(err))
			plan.Skipped = append(plan.Skipped, Skipped{Line: raw.Line, Text: text, Err: err})
			continue
		}

		clamped, adjusted, err := timestamp.ClampToDuration(rng, duration)
		if err != nil {
			logger.Warn("dropping range beyond source", zap.Int("line", raw.Line), zap.String("text", text), zap.Error(err))
			plan.Skipped = append(plan.Skipped, Skipped{Line: raw.Line, Text: text, Err: err})
			continue
		}

		job := &types.ClipJob{
			Index: len(plan.Jobs) + 1,
			Range: clamped,
			State: types.JobPending,
		}
		if adjusted {
			logger.Warn("truncating range to source duration",
				zap.Int("line", raw.Line),
				zap.String("requested", text),
				zap.String("end", timestamp.FormatSeconds(clamped.End)),
			)
			plan.Adjusted = append(plan.Adjusted, job.Index)
		}
		plan.Jobs = append(plan.Jobs, job)
	}

	sortSkipped(plan.Skipped)
	return plan, nil
}
