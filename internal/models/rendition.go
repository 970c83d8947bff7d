package models

import (
	"math"
	"strconv"
)

// Rendition is one rung of the output ladder.
type Rendition struct {
	Height        int `json:"height" mapstructure:"height" validate:"required,gt=0"`
	BitrateKbps   int `json:"bitrate_kbps" mapstructure:"bitrateKbps" validate:"required,gt=0"`
	AudiorateKbps int `json:"audiorate_kbps" mapstructure:"audiorateKbps" validate:"required,gt=0"`
}

func DefaultRenditions() []Rendition {
	return []Rendition{
		{Height: 144, BitrateKbps: 200, AudiorateKbps: 64},
		{Height: 240, BitrateKbps: 400, AudiorateKbps: 64},
		{Height: 360, BitrateKbps: 800, AudiorateKbps: 96},
		{Height: 480, BitrateKbps: 1400, AudiorateKbps: 128},
		{Height: 720, BitrateKbps: 2800, AudiorateKbps: 128},
		{Height: 1080, BitrateKbps: 5000, AudiorateKbps: 192},
	}
}

// Name is the rendition label used for playlist and segment file names.
func (r Rendition) Name() string {
	return strconv.Itoa(r.Height) + "p"
}

// Width returns the encoded frame width for aspect, rounded to the nearest
// even number so 4:2:0 encoders accept it.
func (r Rendition) Width(aspect float64) int {
	return int(math.Round(float64(r.Height)*aspect/2)) * 2
}

// Fits reports whether the source resolution can carry this rendition
// without upscaling.
func (r Rendition) Fits(probe ProbeResult, aspect float64) bool {
	return float64(probe.Width) >= float64(r.Height)*aspect && probe.Height >= r.Height
}

// ProbeResult is what ffprobe tells us about a source file.
type ProbeResult struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
}
