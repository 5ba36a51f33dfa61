package analyzer

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanColor is the average of each channel over a region, on a 0-255 scale.
type MeanColor struct {
	R, G, B float64
}

// AverageColor computes the per-channel mean of the pixels inside rect.
// The rectangle is clipped to the image; an empty intersection yields zeros.
func AverageColor(img image.Image, rect Rect) MeanColor {
	area := rect.Rectangle().Intersect(img.Bounds())
	if area.Empty() {
		return MeanColor{}
	}

	n := area.Dx() * area.Dy()
	rs := make([]float64, 0, n)
	gs := make([]float64, 0, n)
	bs := make([]float64, 0, n)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := area.Min.Y; y < area.Max.Y; y++ {
			for x := area.Min.X; x < area.Max.X; x++ {
				i := rgba.PixOffset(x, y)
				rs = append(rs, float64(rgba.Pix[i]))
				gs = append(gs, float64(rgba.Pix[i+1]))
				bs = append(bs, float64(rgba.Pix[i+2]))
			}
		}
	} else {
		for y := area.Min.Y; y < area.Max.Y; y++ {
			for x := area.Min.X; x < area.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				rs = append(rs, float64(r>>8))
				gs = append(gs, float64(g>>8))
				bs = append(bs, float64(b>>8))
			}
		}
	}

	return MeanColor{
		R: stat.Mean(rs, nil),
		G: stat.Mean(gs, nil),
		B: stat.Mean(bs, nil),
	}
}

// BlueGate reports whether the chyron banner is on screen in rect: the mean
// blue channel, truncated to an integer reading, must be strictly greater
// than threshold.
func BlueGate(img image.Image, rect Rect, threshold float64) bool {
	return math.Floor(AverageColor(img, rect).B) > threshold
}
