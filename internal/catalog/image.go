// internal/catalog/image.go
//
// Image naming for panorama tiles:
//
//	{panoId}~d{YYYY-MM}~h{heading}~p{pitch}~z{zoom}.jpg
//	{panoId}~d{YYYY-MM}~h{heading}~p{pitch}~z{zoom}~thumb.jpg
//
// Heading and pitch are rounded to two decimals with trailing zeros
// stripped; zoom is truncated to an integer.

package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultPanoDate is used for panoramas without a capture date.
const DefaultPanoDate = "2024-01"

// ImageName returns the full-size image file name for a panorama view.
func ImageName(panoID, date string, heading, pitch, zoom float64) string {
	return fmt.Sprintf("%s~d%s~h%s~p%s~z%d.jpg", panoID, date, roundNumber(heading), roundNumber(pitch), int(zoom))
}

// ThumbName derives the thumbnail name from a full-size image name.
func ThumbName(image string) string {
	return strings.TrimSuffix(image, ".jpg") + "~thumb.jpg"
}

func roundNumber(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
