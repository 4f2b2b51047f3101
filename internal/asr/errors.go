package asr

import "errors"

// Sentinel errors for speech recognition failures. Wrap with context using
// fmt.Errorf and %w; check with errors.Is.
var (
	// ErrAuthFailed indicates an invalid or missing API key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimit indicates the provider rejected the request for rate
	// limiting. Transient.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the account quota is exhausted. Requires
	// user action, unlike ErrRateLimit.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates the request timed out or the provider returned
	// a transient server error.
	ErrTimeout = errors.New("request timeout")

	// ErrBadRequest indicates the request itself was rejected.
	ErrBadRequest = errors.New("bad request")
)
