package transcode

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amankumarsingh77/episode-transcoder/internal/models"
)

// ManifestName is the master playlist written next to the variants.
const ManifestName = "playlist.m3u8"

// Manifest renders the HLS master playlist for renditions, in order.
// RESOLUTION carries the even width the encoder scales to, so 240p at 16:9 is
// 426x240 rather than the 427 a plain rounding gives.
func Manifest(renditions []models.Rendition, aspect float64) []byte {
	var b bytes.Buffer
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n")
	for _, r := range renditions {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d,NAME=\"%s\"\n%s.m3u8\n",
			r.BitrateKbps*1000, r.Width(aspect), r.Height, r.Name(), r.Name())
	}
	return b.Bytes()
}

func writeManifest(dest string, renditions []models.Rendition, aspect float64) (string, error) {
	path := filepath.Join(dest, ManifestName)
	if err := os.WriteFile(path, Manifest(renditions, aspect), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
