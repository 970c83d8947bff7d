package transcode

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/amankumarsingh77/episode-transcoder/internal/models"
	"github.com/stretchr/testify/assert"
)

const sixteenNine = 16.0 / 9.0

func TestSelectRenditions(t *testing.T) {
	ladder := models.DefaultRenditions()
	tests := []struct {
		name  string
		probe models.ProbeResult
		want  []int
	}{
		{"full hd", models.ProbeResult{Width: 1920, Height: 1080}, []int{144, 240, 360, 480, 720, 1080}},
		{"boundary 360p", models.ProbeResult{Width: 640, Height: 360}, []int{144, 240, 360}},
		{"one pixel short", models.ProbeResult{Width: 639, Height: 360}, []int{144, 240}},
		{"portrait", models.ProbeResult{Width: 1080, Height: 1920}, []int{144, 240, 360, 480}},
		{"4k", models.ProbeResult{Width: 3840, Height: 2160}, []int{144, 240, 360, 480, 720, 1080}},
		{"tiny", models.ProbeResult{Width: 100, Height: 100}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, heights(SelectRenditions(ladder, tt.probe, sixteenNine)))
		})
	}
}

func TestSelectRenditionsKeepsLadderOrder(t *testing.T) {
	ladder := []models.Rendition{
		{Height: 720, BitrateKbps: 2800, AudiorateKbps: 128},
		{Height: 144, BitrateKbps: 200, AudiorateKbps: 64},
	}
	got := SelectRenditions(ladder, models.ProbeResult{Width: 1920, Height: 1080}, sixteenNine)
	assert.Equal(t, []int{720, 144}, heights(got))
}

func TestBuildArgs(t *testing.T) {
	dest := filepath.Join("work", "ep-1", "output")
	args := BuildArgs("in.mp4", dest, []models.Rendition{{Height: 720, BitrateKbps: 2800, AudiorateKbps: 128}}, sixteenNine, 5)

	assert.Equal(t, []string{
		"-hide_banner", "-y", "-i", "in.mp4",
		"-c:a", "aac", "-ar", "48000", "-c:v", "h264", "-profile:v", "main", "-crf", "20", "-sc_threshold", "0",
		"-vf", "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720",
		"-b:v", "2800k", "-maxrate", "2996k", "-bufsize", "4200k", "-b:a", "128k",
		"-hls_time", "5", "-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(dest, "720p_%03d.ts"),
		filepath.Join(dest, "720p.m3u8"),
	}, args)
}

func TestBuildArgsOneInputManyOutputs(t *testing.T) {
	args := BuildArgs("in.mp4", "out", models.DefaultRenditions(), sixteenNine, 6)

	inputs, playlists := 0, 0
	for i, a := range args {
		if a == "-i" {
			inputs++
		}
		if a == "-hls_time" {
			assert.Equal(t, "6", args[i+1])
		}
		if filepath.Ext(a) == ".m3u8" {
			playlists++
		}
	}
	assert.Equal(t, 1, inputs)
	assert.Equal(t, 6, playlists)
	assert.Contains(t, args, "scale=854:480:force_original_aspect_ratio=increase,crop=854:480")
	assert.Contains(t, args, "5350k")
	assert.Contains(t, args, "7500k")
}

func TestManifestDeterministic(t *testing.T) {
	ladder := models.DefaultRenditions()
	first := Manifest(ladder, sixteenNine)
	assert.Equal(t, first, Manifest(ladder, sixteenNine))

	want := "#EXTM3U\n#EXT-X-VERSION:3\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=200000,RESOLUTION=256x144,NAME=\"144p\"\n144p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=400000,RESOLUTION=426x240,NAME=\"240p\"\n240p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360,NAME=\"360p\"\n360p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1400000,RESOLUTION=854x480,NAME=\"480p\"\n480p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=2800000,RESOLUTION=1280x720,NAME=\"720p\"\n720p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,NAME=\"1080p\"\n1080p.m3u8\n"
	assert.Equal(t, want, string(first))
}

func TestManifestResolutionMatchesEncodedWidth(t *testing.T) {
	ladder := []models.Rendition{{Height: 240, BitrateKbps: 400, AudiorateKbps: 64}}
	args := strings.Join(BuildArgs("in.mp4", "out", ladder, sixteenNine, 5), " ")
	assert.Contains(t, args, "scale=426:240:")
	assert.Contains(t, string(Manifest(ladder, sixteenNine)), "RESOLUTION=426x240,")
}
