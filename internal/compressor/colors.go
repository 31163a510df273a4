package compressor

import (
	"encoding/json"
	"image"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
)

const paletteSize = 4

// ExtractColors returns the dominant colors of img as JSON, keyed by rank.
func ExtractColors(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, 256, 256, imaging.Box)

	colors := make(map[int][4]uint8)
	for i, c := range dominantcolor.FindN(thumb, paletteSize) {
		colors[i] = [4]uint8{c.R, c.G, c.B, c.A}
	}
	return json.Marshal(colors)
}
