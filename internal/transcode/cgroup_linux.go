//go:build linux

package transcode

import (
	"github.com/containerd/cgroups"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

type cgroupLimiter struct {
	cgroup cgroups.Cgroup
}

// newCPULimiter creates a v1 cgroup at path with the given cpu.shares
// (1024 is one full share).
func newCPULimiter(path string, shares uint64) (cpuLimiter, error) {
	if shares < 2 {
		shares = 2
	}
	control, err := cgroups.New(
		cgroups.V1,
		cgroups.StaticPath(path),
		&specs.LinuxResources{
			CPU: &specs.LinuxCPU{
				Shares: &shares,
			},
		},
	)
	if err != nil {
		return nil, err
	}
	return &cgroupLimiter{cgroup: control}, nil
}

func (c *cgroupLimiter) Add(pid int) error {
	return c.cgroup.Add(cgroups.Process{Pid: pid})
}

func (c *cgroupLimiter) Delete() error {
	return c.cgroup.Delete()
}
