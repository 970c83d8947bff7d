package utils

import (
	"errors"
	"time"

	"github.com/shirou/gopsutil/cpu"
)

var errNoCPUStats = errors.New("no cpu stats reported")

// CPUUsage returns host-wide CPU utilisation in percent, averaged over
// sample. A zero sample compares against the previous call.
func CPUUsage(sample time.Duration) (float64, error) {
	usage, err := cpu.Percent(sample, false)
	if err != nil {
		return 0, err
	}
	if len(usage) == 0 {
		return 0, errNoCPUStats
	}
	return usage[0], nil
}

// CheckCPUUsage reports whether the host is at or below maxCPUUsage. A failed
// reading counts as busy.
func CheckCPUUsage(maxCPUUsage float64) (bool, float64) {
	usage, err := CPUUsage(0)
	if err != nil {
		return false, 0
	}
	return usage <= maxCPUUsage, usage
}
