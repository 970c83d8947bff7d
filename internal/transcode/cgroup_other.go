//go:build !linux

package transcode

import "errors"

func newCPULimiter(string, uint64) (cpuLimiter, error) {
	return nil, errors.New("cgroup CPU limits are only supported on linux")
}
