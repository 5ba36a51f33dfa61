package analyzer

import (
	"fmt"
	"image"
)

// Rect is an axis-aligned box in pixel coordinates, origin top-left.
type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// FromRectangle converts a half-open image.Rectangle.
func FromRectangle(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Valid reports whether the box has a positive area and a non-negative origin.
func (r Rect) Valid() bool {
	return r.W > 0 && r.H > 0 && r.X >= 0 && r.Y >= 0
}

// Inset moves the origin by (dx, dy) and shrinks the size by the same amounts.
func (r Rect) Inset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - dx, H: r.H - dy}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X, r.Y, r.W, r.H)
}

// Detector is the interface for chyron region detection strategies
type Detector interface {
	Detect(img image.Image) ([]Rect, error)
}
