package pipeline

import (
	"time"

	"golang.org/x/exp/slices"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

// Result is the outcome of one ClipJob.
type Result struct {
	Index        int
	Range        types.TimeRange
	State        types.JobState
	Path         string // deliverable, empty when nothing was written
	SubtitlePath string
	Subtitled    bool
	Segments     int
	Size         int64
	Err          error
}

// Failed reports whether the job ended in the Failed state.
func (r Result) Failed() bool {
	return r.Err != nil || r.State == types.JobFailed
}

// Report summarizes a run.
type Report struct {
	RunID        string
	Source       *types.VideoAsset
	Profile      string
	Format       string
	Mode         types.CompositionMode
	Results      []Result // ordered by job index
	Skipped      []Skipped
	Adjusted     []int
	StartedAt    time.Time
	FinishedAt   time.Time
	ManifestPath string
}

// Succeeded counts jobs that produced a deliverable without error.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if !res.Failed() {
			n++
		}
	}
	return n
}

// Failures returns the failed results in job order.
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// OK is true when at least one clip was produced and no job failed.
func (r *Report) OK() bool {
	return r.Succeeded() > 0 && len(r.Failures()) == 0
}

func sortResults(results []Result) {
	slices.SortFunc(results, func(a, b Result) int {
		return a.Index - b.Index
	})
}

func sortSkipped(skipped []Skipped) {
	slices.SortFunc(skipped, func(a, b Skipped) int {
		return a.Line - b.Line
	})
}
