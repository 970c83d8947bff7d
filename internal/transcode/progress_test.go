package transcode

import (
	"bufio"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(lines ...string) []int {
	var got []int
	tr := &progressTracker{onChange: func(p int) { got = append(got, p) }}
	for _, l := range lines {
		tr.observe(l)
	}
	return got
}

func TestProgressDeduplicates(t *testing.T) {
	got := collect(
		"  Duration: 00:00:10.00, start: 0.000000",
		"time=00:00:01.00",
		"time=00:00:01.05",
		"time=00:00:01.09",
		"time=00:00:02.50",
		"time=00:00:02.59",
		"time=00:00:10.00",
	)
	assert.Equal(t, []int{10, 25, 100}, got)
}

func TestProgressNonDecreasingForMonotonicTimes(t *testing.T) {
	lines := []string{"Duration: 01:00:00.00"}
	for s := 0; s <= 3600; s += 7 {
		lines = append(lines, fmt.Sprintf("frame=1 time=00:%02d:%02d.00 bitrate=1", s/60, s%60))
	}
	got := collect(lines...)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
	assert.LessOrEqual(t, got[len(got)-1], 100)
}

func TestProgressFirstDurationWins(t *testing.T) {
	got := collect(
		"Duration: 00:00:20.00",
		"Duration: 00:00:10.00",
		"time=00:00:10.00",
	)
	assert.Equal(t, []int{50}, got)
}

func TestProgressClampsAndIgnoresUnknownTotal(t *testing.T) {
	assert.Empty(t, collect("time=00:00:05.00"), "no duration seen yet")
	assert.Equal(t, []int{100}, collect("Duration: 00:00:04.00", "time=00:00:09.00", "time=00:00:12.00"))
	assert.Empty(t, collect("Duration: 00:00:04.00", "time=-00:00:00.02", "time=N/A"))
}

func TestScanLinesSplitsCarriageReturns(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("a\rb\r\nc\nd"))
	sc.Split(scanLines)
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	assert.Equal(t, []string{"a", "b", "", "c", "d"}, got)
}
