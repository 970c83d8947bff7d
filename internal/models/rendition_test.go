package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenditionWidthIsEven(t *testing.T) {
	want := map[int]int{144: 256, 240: 426, 360: 640, 480: 854, 720: 1280, 1080: 1920}
	for _, r := range DefaultRenditions() {
		w := r.Width(16.0 / 9.0)
		assert.Equal(t, want[r.Height], w, r.Name())
		assert.Zero(t, w%2, r.Name())
	}
	assert.Equal(t, 640, Rendition{Height: 480}.Width(4.0/3.0))
}

func TestRenditionFitsBoundary(t *testing.T) {
	r := Rendition{Height: 360}
	aspect := 16.0 / 9.0
	assert.True(t, r.Fits(ProbeResult{Width: 640, Height: 360}, aspect))
	assert.False(t, r.Fits(ProbeResult{Width: 639, Height: 360}, aspect))
	assert.False(t, r.Fits(ProbeResult{Width: 640, Height: 359}, aspect))
}

func TestEpisodeStatusTerminal(t *testing.T) {
	assert.False(t, EpisodeStatusProcessing.Terminal())
	assert.True(t, EpisodeStatusSuccess.Terminal())
	assert.True(t, EpisodeStatusFailed.Terminal())
}
