//go:build gocv

package analyzer

import (
	"image"

	"gocv.io/x/gocv"
)

func init() {
	Register("opencv", func(opts Options) (Detector, error) {
		return &OpenCVDetector{Range: opts.Range, MinWidth: opts.MinWidth, MinHeight: opts.MinHeight}, nil
	})
}

// OpenCVDetector is the ColorDetector contract on top of OpenCV:
// inRange on an HSV copy, external contours, bounding rectangles.
type OpenCVDetector struct {
	Range     HSVRange
	MinWidth  int
	MinHeight int
}

func (d *OpenCVDetector) Detect(img image.Image) ([]Rect, error) {
	if img == nil {
		return nil, errNilImage
	}

	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, err
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	lower := gocv.NewScalar(float64(d.Range.Lower.H), float64(d.Range.Lower.S), float64(d.Range.Lower.V), 0)
	upper := gocv.NewScalar(float64(d.Range.Upper.H), float64(d.Range.Upper.S), float64(d.Range.Upper.V), 0)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	rects := []Rect{}
	for i := 0; i < contours.Size(); i++ {
		r := FromRectangle(gocv.BoundingRect(contours.At(i)))
		if r.W >= d.MinWidth && r.H >= d.MinHeight {
			rects = append(rects, r)
		}
	}

	return rects, nil
}
