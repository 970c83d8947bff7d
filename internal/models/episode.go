package models

type EpisodeStatus string

const (
	EpisodeStatusProcessing EpisodeStatus = "processing"
	EpisodeStatusSuccess    EpisodeStatus = "success"
	EpisodeStatusFailed     EpisodeStatus = "failed"
)

func (s EpisodeStatus) Terminal() bool {
	return s == EpisodeStatusSuccess || s == EpisodeStatusFailed
}
