package analyzer

import (
	"errors"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/richmondsunlight/chyrons/internal/system"
)

// HSV is a colour bound on the OpenCV 8-bit scale: H in [0,180], S and V in [0,255].
type HSV struct {
	H, S, V int
}

// HSVRange is an inclusive box in HSV space.
type HSVRange struct {
	Lower, Upper HSV
}

func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// ChyronBlue is the banner colour used by the legislature's broadcast graphics.
var ChyronBlue = HSVRange{
	Lower: HSV{H: 100, S: 150, V: 50},
	Upper: HSV{H: 140, S: 255, V: 255},
}

var errNilImage = errors.New("nil image")

// ColorDetector finds boxes of a single colour: threshold in HSV, take the
// external connected components of the mask, keep bounding boxes that are at
// least MinWidth x MinHeight.
type ColorDetector struct {
	Range     HSVRange
	MinWidth  int
	MinHeight int
}

// NewColorDetector creates a detector tuned for the blue chyron banners
func NewColorDetector() *ColorDetector {
	return &ColorDetector{
		Range:     ChyronBlue,
		MinWidth:  200,
		MinHeight: 18,
	}
}

// Detect returns the surviving boxes in raster discovery order.
func (d *ColorDetector) Detect(img image.Image) ([]Rect, error) {
	if img == nil {
		return nil, errNilImage
	}

	rgba, release := system.AcquireRGBA(img)
	defer release()

	mask := d.mask(rgba)
	components := findExternalContours(mask)

	rects := []Rect{}
	for _, c := range components {
		r := FromRectangle(c)
		if r.W >= d.MinWidth && r.H >= d.MinHeight {
			rects = append(rects, r)
		}
	}

	return rects, nil
}

// binaryMask is a row-major foreground map with its own origin at (0,0).
type binaryMask struct {
	w, h   int
	origin image.Point
	pix    []bool
}

func (m *binaryMask) at(x, y int) bool {
	return m.pix[y*m.w+x]
}

func (d *ColorDetector) mask(img *image.RGBA) *binaryMask {
	bounds := img.Bounds()
	m := &binaryMask{
		w:      bounds.Dx(),
		h:      bounds.Dy(),
		origin: bounds.Min,
		pix:    make([]bool, bounds.Dx()*bounds.Dy()),
	}

	for y := 0; y < m.h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.w*4]
		for x := 0; x < m.w; x++ {
			p := row[x*4 : x*4+3]
			m.pix[y*m.w+x] = d.Range.Contains(toHSV(p[0], p[1], p[2]))
		}
	}

	return m
}

// toHSV converts 8-bit RGB to HSV on the OpenCV scale.
func toHSV(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	return HSV{
		H: int(math.Round(h / 2)),
		S: int(math.Round(s * 255)),
		V: int(math.Round(v * 255)),
	}
}

// findExternalContours labels 8-connected foreground components and returns
// the bounding rectangle of every component that is not enclosed by a hole
// of another component.
func findExternalContours(m *binaryMask) []image.Rectangle {
	if len(m.pix) == 0 {
		return nil
	}
	outside := markOutside(m)
	visited := make([]bool, len(m.pix))

	contours := []image.Rectangle{}

	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.at(x, y) || visited[y*m.w+x] {
				continue
			}
			rect, external := floodFill(m, visited, outside, x, y)
			if external {
				contours = append(contours, rect.Add(m.origin))
			}
		}
	}

	return contours
}

// markOutside flags background pixels 4-connected to the image border.
func markOutside(m *binaryMask) []bool {
	outside := make([]bool, len(m.pix))
	stack := []image.Point{}

	push := func(x, y int) {
		i := y*m.w + x
		if m.pix[i] || outside[i] {
			return
		}
		outside[i] = true
		stack = append(stack, image.Point{X: x, Y: y})
	}

	for x := 0; x < m.w; x++ {
		push(x, 0)
		push(x, m.h-1)
	}
	for y := 0; y < m.h; y++ {
		push(0, y)
		push(m.w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X > 0 {
			push(p.X-1, p.Y)
		}
		if p.X < m.w-1 {
			push(p.X+1, p.Y)
		}
		if p.Y > 0 {
			push(p.X, p.Y-1)
		}
		if p.Y < m.h-1 {
			push(p.X, p.Y+1)
		}
	}

	return outside
}

// floodFill walks one 8-connected component and returns its bounding
// rectangle and whether it borders the outside background or the frame edge.
func floodFill(m *binaryMask, visited, outside []bool, startX, startY int) (image.Rectangle, bool) {
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	external := false

	visited[startY*m.w+startX] = true
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := p.X, p.Y

		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}

		if x == 0 || y == 0 || x == m.w-1 || y == m.h-1 {
			external = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
					continue
				}
				i := ny*m.w + nx
				if m.pix[i] {
					if !visited[i] {
						visited[i] = true
						stack = append(stack, image.Point{X: nx, Y: ny})
					}
				} else if (dx == 0 || dy == 0) && outside[i] {
					external = true
				}
			}
		}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), external
}
