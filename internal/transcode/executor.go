package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
)

// Executor runs the external prober and encoder.
type Executor interface {
	// Output runs binary and returns its standard output.
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
	// Stream runs binary and hands every diagnostic line to onLine as it
	// arrives. Carriage returns end a line too.
	Stream(ctx context.Context, binary string, args []string, onLine func(string)) error
}

type commandExecutor struct {
	limiter cpuLimiter
	logger  logger.Logger
}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, processError(binary, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (c commandExecutor) Stream(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &SpawnError{Binary: binary, Err: err}
	}
	if c.limiter != nil {
		if err := c.limiter.Add(cmd.Process.Pid); err != nil && c.logger != nil {
			c.logger.Warnf("failed to add %s to cgroup: %v", binary, err)
		}
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLines)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			onLine(line)
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		_, _ = io.Copy(io.Discard, stderr)
	}

	if err := cmd.Wait(); err != nil {
		return processError(binary, err, "")
	}
	if scanErr != nil {
		return fmt.Errorf("read %s output: %w", binary, scanErr)
	}
	return nil
}

func processError(binary string, err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Binary: binary, Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return &SpawnError{Binary: binary, Err: err}
}

// scanLines splits on \n and on the bare \r ffmpeg uses to redraw its
// status line.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
