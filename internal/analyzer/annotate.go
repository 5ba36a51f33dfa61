package analyzer

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Annotate returns a copy of img with every rect outlined in green. labels,
// when present, are drawn above the matching rect.
func Annotate(img image.Image, rects []Rect, labels []string) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(2)

	for i, r := range rects {
		dc.SetRGB(0, 1, 0)
		dc.DrawRectangle(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
		dc.Stroke()

		if i < len(labels) && labels[i] != "" {
			y := float64(r.Y) - 4
			if y < 12 {
				y = float64(r.Y+r.H) + 14
			}
			dc.SetRGB(1, 1, 0)
			dc.DrawString(labels[i], float64(r.X), y)
		}
	}

	return dc.Image()
}

// SaveAnnotated writes the annotated frame as JPEG or PNG depending on the
// output extension.
func SaveAnnotated(path string, img image.Image, rects []Rect, labels []string) error {
	out := Annotate(img, rects, labels)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return gg.SavePNG(path, out)
	case ".jpg", ".jpeg":
		return gg.SaveJPG(path, out, 90)
	default:
		return fmt.Errorf("unsupported annotation format: %s", path)
	}
}
