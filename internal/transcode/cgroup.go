package transcode

// cpuLimiter confines encoder processes to a CPU share.
type cpuLimiter interface {
	Add(pid int) error
	Delete() error
}
