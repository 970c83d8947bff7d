package transcode

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/episode-transcoder/internal/models"
)

// Probe reads the first video stream's size and the container duration of
// src with two ffprobe calls.
func Probe(ctx context.Context, ex Executor, ffprobe, src string) (models.ProbeResult, error) {
	var res models.ProbeResult

	out, err := ex.Output(ctx, ffprobe, []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		src,
	})
	if err != nil {
		return res, fmt.Errorf("%w: resolution: %w", ErrProbe, err)
	}
	res.Width, res.Height, err = parseResolution(string(out))
	if err != nil {
		return res, err
	}

	out, err = ex.Output(ctx, ffprobe, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	})
	if err != nil {
		return res, fmt.Errorf("%w: duration: %w", ErrProbe, err)
	}
	res.DurationSeconds, err = parseDuration(string(out))
	if err != nil {
		return res, err
	}
	return res, nil
}

func parseResolution(out string) (int, int, error) {
	line := firstLine(out)
	parts := strings.Split(strings.TrimRight(line, "x"), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected ffprobe output %q", ErrProbe, line)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid width %q", ErrProbe, parts[0])
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid height %q", ErrProbe, parts[1])
	}
	return width, height, nil
}

func parseDuration(out string) (float64, error) {
	line := firstLine(out)
	d, err := strconv.ParseFloat(line, 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrProbe, line)
	}
	return d, nil
}

func firstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
