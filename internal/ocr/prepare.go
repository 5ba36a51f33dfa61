package ocr

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Prepare crops r out of img, converts it to a single-channel image and
// scales it by scale (values at or below 1 leave the size unchanged). The crop
// is clipped to the frame; an empty intersection yields an empty image.
func Prepare(img image.Image, r image.Rectangle, scale float64) *image.Gray {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	crop := imaging.Grayscale(imaging.Crop(img, r))
	if scale > 1 {
		w := int(math.Round(float64(r.Dx()) * scale))
		h := int(math.Round(float64(r.Dy()) * scale))
		crop = imaging.Resize(crop, w, h, imaging.Lanczos)
	}

	gray := image.NewGray(crop.Bounds())
	draw.Draw(gray, gray.Bounds(), crop, crop.Bounds().Min, draw.Src)
	return gray
}
