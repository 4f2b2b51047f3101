package pipeline

import "errors"

// ErrSourceMissing indicates the job's source file is absent or unreadable.
// This is the only precondition failure; it fails the job.
var ErrSourceMissing = errors.New("source file missing")
