package transcode

import (
	"path/filepath"
	"strconv"

	"github.com/amankumarsingh77/episode-transcoder/internal/models"
)

// SelectRenditions keeps, in ladder order, the renditions the source can
// fill without upscaling.
func SelectRenditions(ladder []models.Rendition, probe models.ProbeResult, aspect float64) []models.Rendition {
	eligible := make([]models.Rendition, 0, len(ladder))
	for _, r := range ladder {
		if r.Fits(probe, aspect) {
			eligible = append(eligible, r)
		}
	}
	return eligible
}

var (
	staticParams = []string{
		"-c:a", "aac",
		"-ar", "48000",
		"-c:v", "h264",
		"-profile:v", "main",
		"-crf", "20",
		"-sc_threshold", "0",
	}
	miscParams = []string{"-hide_banner", "-y"}
)

// BuildArgs lays out one ffmpeg invocation that reads src once and writes an
// HLS variant per rendition into dest.
func BuildArgs(src, dest string, renditions []models.Rendition, aspect float64, segmentSeconds int) []string {
	args := append([]string{}, miscParams...)
	args = append(args, "-i", src)
	for _, r := range renditions {
		w := strconv.Itoa(r.Width(aspect))
		h := strconv.Itoa(r.Height)
		maxRate := int(float64(r.BitrateKbps) * 1.07)
		bufSize := int(float64(r.BitrateKbps) * 1.5)

		args = append(args, staticParams...)
		args = append(args,
			"-vf", "scale="+w+":"+h+":force_original_aspect_ratio=increase,crop="+w+":"+h,
			"-b:v", strconv.Itoa(r.BitrateKbps)+"k",
			"-maxrate", strconv.Itoa(maxRate)+"k",
			"-bufsize", strconv.Itoa(bufSize)+"k",
			"-b:a", strconv.Itoa(r.AudiorateKbps)+"k",
			"-hls_time", strconv.Itoa(segmentSeconds),
			"-hls_playlist_type", "vod",
			"-hls_segment_filename", filepath.Join(dest, r.Name()+"_%03d.ts"),
			filepath.Join(dest, r.Name()+".m3u8"),
		)
	}
	return args
}
