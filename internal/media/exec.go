package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runFn runs a command and captures combined diagnostic output.
// ffmpeg writes most of its output to stderr, even on success.
type runFn func(ctx context.Context, path string, args []string) (string, error)

// lineFn receives one key=value line from ffmpeg's -progress stream.
type lineFn func(key, value string)

// runProgressFn runs a command while streaming -progress output lines.
type runProgressFn func(ctx context.Context, path string, args []string, onLine lineFn) error

// defaultRun is the production runner. The stderr output is returned even
// when the command fails, since it carries the diagnostic detail.
func defaultRun(ctx context.Context, path string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("%s: %w\nOutput: %s", path, err, stderr.String())
	}
	return stderr.String(), nil
}

// defaultRunStdout captures stdout instead; ffprobe writes its JSON there.
func defaultRunStdout(ctx context.Context, path string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w\nOutput: %s", path, err, stderr.String())
	}
	return stdout.String(), nil
}

// defaultRunProgress runs ffmpeg with "-progress pipe:1" style output and
// feeds each key=value stdout line to onLine as it arrives.
func defaultRunProgress(ctx context.Context, path string, args []string, onLine lineFn) error {
	cmd := exec.CommandContext(ctx, path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if ok && onLine != nil {
			onLine(key, value)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w\nOutput: %s", path, err, stderr.String())
	}
	return nil
}

// parseOutTime converts an ffmpeg -progress time value to seconds.
// Accepts out_time_us/out_time_ms microsecond counters and the
// HH:MM:SS.micros form of out_time.
func parseOutTime(key, value string) (float64, bool) {
	switch key {
	case "out_time_us", "out_time_ms":
		// Both fields are microseconds in practice.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		return float64(us) / 1e6, true
	case "out_time":
		parts := strings.Split(value, ":")
		if len(parts) != 3 {
			return 0, false
		}
		h, err1 := strconv.ParseFloat(parts[0], 64)
		m, err2 := strconv.ParseFloat(parts[1], 64)
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, false
		}
		return h*3600 + m*60 + s, true
	}
	return 0, false
}
