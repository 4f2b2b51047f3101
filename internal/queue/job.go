package queue

// Job states. A job moves queued -> active -> completed|failed; the
// reaper can move it back from active to queued when a lease expires.
const (
	StateQueued    = "queued"
	StateActive    = "active"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// JobName identifies the only job kind this queue carries.
const JobName = "process-video"

// JobData is the payload enqueued for one dubbing run. Pointer fields are
// tri-state: nil defers to the server's environment defaults.
type JobData struct {
	// FilePath is the absolute path of the uploaded source video.
	FilePath string `json:"filePath"`

	// OriginalName is the client-supplied file name, kept for display.
	OriginalName string `json:"originalName"`

	// TargetLang overrides the default translation target.
	TargetLang *string `json:"targetLang,omitempty"`

	// MergeMode overrides the default merge mode ("replace" or "mix").
	MergeMode *string `json:"mergeMode,omitempty"`

	// Enhance overrides the default audio enhancement toggle.
	Enhance *bool `json:"enhance,omitempty"`

	// BurnSubtitles overrides the default subtitle burning toggle.
	BurnSubtitles *bool `json:"burnSubtitles,omitempty"`
}

// Result is the artifact manifest a finished job returns.
type Result struct {
	// Message summarizes the outcome for display.
	Message string `json:"message"`

	// Artifacts maps artifact kind ("audio", "transcript", "dub",
	// "subtitles", "merged", ...) to a file name under the upload
	// directory.
	Artifacts map[string]string `json:"artifacts"`

	// Warnings lists tolerated stage failures, one line each.
	Warnings []string `json:"warnings,omitempty"`
}

// Record is the durable job state stored in Redis as one JSON value.
// Timestamps are Unix milliseconds; zero means not yet reached.
type Record struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Data         JobData `json:"data"`
	State        string  `json:"state"`
	Progress     int     `json:"progress"`
	ReturnValue  *Result `json:"returnvalue,omitempty"`
	FailedReason string  `json:"failedReason,omitempty"`
	CreatedAt    int64   `json:"createdAt"`
	ProcessedAt  int64   `json:"processedAt,omitempty"`
	FinishedAt   int64   `json:"finishedAt,omitempty"`
}
