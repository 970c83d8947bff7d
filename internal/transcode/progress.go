package transcode

import (
	"math"
	"regexp"
	"strconv"
)

var (
	durationRe = regexp.MustCompile(`Duration: (\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	timeRe     = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// progressTracker turns ffmpeg diagnostic lines into whole percentages.
// Only the stream reader goroutine touches it.
type progressTracker struct {
	total    float64
	last     int
	onChange func(int)
}

func (t *progressTracker) observe(line string) {
	if t.total <= 0 {
		if m := durationRe.FindStringSubmatch(line); m != nil {
			t.total = clockSeconds(m)
		}
	}
	m := timeRe.FindStringSubmatch(line)
	if m == nil || t.total <= 0 {
		return
	}
	pct := int(math.Floor(100 * clockSeconds(m) / t.total))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct == t.last {
		return
	}
	t.last = pct
	if t.onChange != nil {
		t.onChange(pct)
	}
}

func clockSeconds(m []string) float64 {
	h, _ := strconv.ParseFloat(m[1], 64)
	mins, _ := strconv.ParseFloat(m[2], 64)
	sec, _ := strconv.ParseFloat(m[3], 64)
	return h*3600 + mins*60 + sec
}
