package translate

import "errors"

// ErrEmptyResult indicates the provider returned no translation for a
// non-empty input.
var ErrEmptyResult = errors.New("translation returned empty result")

// ErrAuthFailed indicates an invalid or missing API key.
var ErrAuthFailed = errors.New("authentication failed")
