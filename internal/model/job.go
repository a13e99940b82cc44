package model

import "time"

// SynthesisJob converts one chapter text into one audio artifact at Dest.
type SynthesisJob struct {
	Index    int
	Text     string
	Voice    string
	Language string
	Speed    float32
	Dest     string
}

// JobStatus is the terminal state of a scheduled chapter.
type JobStatus string

const (
	StatusCompleted JobStatus = "completed"
	StatusSkipped   JobStatus = "skipped"
	StatusFailed    JobStatus = "failed"
)

// Outcome is the per-chapter record collected by the scheduler.
type Outcome struct {
	Index       int
	Path        string
	Status      JobStatus
	Chars       int
	Duration    time.Duration
	CharsPerSec float64
	Err         error
}

// OK reports whether the chapter's artifact is available.
func (o Outcome) OK() bool {
	return o.Status == StatusCompleted || o.Status == StatusSkipped
}
