package history

import "time"

// Status describes the outcome of a run or clip.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusPartial marks a run where some clips failed.
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	// StatusRejected marks a clip whose bounds or media were unusable.
	StatusRejected Status = "rejected"
)

// Run is one invocation of the processing pipeline against a source video.
type Run struct {
	ID             string
	SourcePath     string
	Title          string
	Style          string
	Status         Status
	ClipsRequested int
	ClipsSucceeded int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Clip is one output clip attempted within a run.
type Clip struct {
	ID           int64
	RunID        string
	Index        int
	Title        string
	Score        int
	HookType     string
	Start        float64
	End          float64
	Cropped      bool
	CropLeft     int
	CropWidth    int
	CenterX      int
	Detections   int
	CaptionWords int
	OutputPath   string
	SizeBytes    int64
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
}
