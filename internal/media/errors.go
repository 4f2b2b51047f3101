package media

import "errors"

// ErrFFmpegNotFound indicates the ffmpeg binary is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// ErrFFprobeNotFound indicates the ffprobe binary is not on PATH.
var ErrFFprobeNotFound = errors.New("ffprobe not found")

// ErrNoVideoStream indicates the probed input carries no video stream.
var ErrNoVideoStream = errors.New("input has no video stream")

// ErrEmptyOutput indicates a media operation produced no usable file.
var ErrEmptyOutput = errors.New("media operation produced empty output")
