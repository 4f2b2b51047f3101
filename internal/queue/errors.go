package queue

import "errors"

// ErrJobNotFound indicates no job record exists for the given ID.
var ErrJobNotFound = errors.New("job not found")

// ErrNoJob indicates the wait list was empty for the whole blocking window.
var ErrNoJob = errors.New("no job available")

// ErrLeaseLost indicates the worker's lease on a job expired or was taken
// over. The holder must stop processing the job.
var ErrLeaseLost = errors.New("job lease lost")
