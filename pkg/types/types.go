package types

import "fmt"

// TimeRange is a validated [Start, End) window in seconds, 0 <= Start < End.
type TimeRange struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%.3fs-%.3fs", r.Start, r.End)
}

// JobState tracks a ClipJob through the pipeline.
type JobState string

const (
	JobPending     JobState = "pending"
	JobExtracted   JobState = "extracted"
	JobVerified    JobState = "verified"
	JobTransformed JobState = "transformed"
	JobWritten     JobState = "written"
	JobTranscribed JobState = "transcribed"
	JobSubtitled   JobState = "subtitled"
	JobComposited  JobState = "composited"
	JobFailed      JobState = "failed"
)

// ClipJob is one unit of work: a single range cut from the source and
// carried through every stage. It is owned by exactly one pipeline worker.
type ClipJob struct {
	Index        int
	Range        TimeRange
	TempPath     string // raw cut, removed once the job is Written or Failed
	ReframedPath string // portrait clip in the work directory
	FinalPath    string // deliverable in the output directory
	State        JobState
}

// Name returns a stable label for logs and artifact names.
func (j *ClipJob) Name() string {
	return fmt.Sprintf("clip_%03d", j.Index)
}

// TranscriptSegment is one time-aligned unit of recognized speech.
type TranscriptSegment struct {
	ID           int
	StartSeconds float64
	EndSeconds   float64
	Text         string
}

// SubtitleTrack is the ordered transcript of a single clip.
type SubtitleTrack struct {
	Segments []TranscriptSegment
}

// Empty reports whether the track has no segments.
func (t SubtitleTrack) Empty() bool {
	return len(t.Segments) == 0
}

// VideoAsset is the read-only metadata of an opened media file.
type VideoAsset struct {
	Path       string
	Duration   float64
	FrameRate  float64
	Width      int
	Height     int
	Codec      string
	SampleRate int
	Channels   int
	HasAudio   bool
}

// CompositionMode selects how subtitles reach the final clip.
type CompositionMode string

const (
	// CompositionBurn renders subtitle text into the video frames.
	CompositionBurn CompositionMode = "burn"
	// CompositionSoft muxes the subtitle document as its own stream.
	CompositionSoft CompositionMode = "soft"
)
