package calibration

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"reflect"
	"testing"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
	"github.com/richmondsunlight/chyrons/internal/source"
)

// stubDetector returns canned boxes keyed by the frame's width, which the
// stub loader sets to the frame's second.
type stubDetector struct {
	boxes map[int][]analyzer.Rect
}

func (d *stubDetector) Detect(img image.Image) ([]analyzer.Rect, error) {
	return d.boxes[img.Bounds().Dx()], nil
}

func stubLoad(frame source.Frame) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, frame.Second, 1)), nil
}

func framesN(n int) []source.Frame {
	frames := make([]source.Frame, n)
	for i := range frames {
		frames[i] = source.Frame{Second: i + 1, Path: fmt.Sprintf("%d.jpg", i+1)}
	}
	return frames
}

func TestClusterIsSeedRelative(t *testing.T) {
	a := analyzer.Rect{X: 0, Y: 0, W: 100, H: 20}
	b := analyzer.Rect{X: 8, Y: 0, W: 100, H: 20}  // within 10 of a
	c := analyzer.Rect{X: 16, Y: 0, W: 100, H: 20} // within 10 of b, not a

	groups := Cluster([]analyzer.Rect{a, b, c}, 10)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}
	if groups[0].Size() != 2 || groups[0].Seed() != a {
		t.Errorf("expected {a, b} seeded by a, got %+v", groups[0])
	}
	if groups[1].Size() != 1 || groups[1].Seed() != c {
		t.Errorf("expected {c}, got %+v", groups[1])
	}

	// Reversed input: b seeds and claims both neighbours.
	groups = Cluster([]analyzer.Rect{b, a, c}, 10)
	if len(groups) != 1 || groups[0].Size() != 3 {
		t.Errorf("expected one group of 3 when b comes first, got %+v", groups)
	}
}

func TestSimilarBoundary(t *testing.T) {
	a := analyzer.Rect{X: 10, Y: 10, W: 10, H: 10}
	if !Similar(a, analyzer.Rect{X: 20, Y: 0, W: 20, H: 0}, 10) {
		t.Error("differences of exactly the tolerance should be similar")
	}
	if Similar(a, analyzer.Rect{X: 21, Y: 10, W: 10, H: 10}, 10) {
		t.Error("difference above the tolerance should not be similar")
	}
}

func TestSelectDominantFirst(t *testing.T) {
	groups := []Group{
		{Members: make([]analyzer.Rect, 2)},
		{Members: make([]analyzer.Rect, 5)},
		{Members: make([]analyzer.Rect, 1)},
	}
	groups[0].Members[0] = analyzer.Rect{X: 1}
	groups[1].Members[0] = analyzer.Rect{X: 2}
	groups[2].Members[0] = analyzer.Rect{X: 3}

	selected := Select(groups, 2)
	if len(selected) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(selected))
	}
	if selected[0].Seed().X != 2 || selected[1].Seed().X != 1 {
		t.Errorf("unexpected order: %+v", selected)
	}

	// input is not reordered
	if groups[0].Seed().X != 1 {
		t.Error("Select modified its input")
	}
}

func TestSelectTiesKeepDiscoveryOrder(t *testing.T) {
	groups := []Group{
		{Members: []analyzer.Rect{{X: 1}, {X: 1}}},
		{Members: []analyzer.Rect{{X: 2}, {X: 2}}},
		{Members: []analyzer.Rect{{X: 3}, {X: 3}}},
	}

	selected := Select(groups, 2)
	if selected[0].Seed().X != 1 || selected[1].Seed().X != 2 {
		t.Errorf("equal groups should keep discovery order, got %+v", selected)
	}
	if got := Select(groups, 10); len(got) != 3 {
		t.Errorf("k above the group count should return every group, got %d", len(got))
	}
}

func TestAggregateRoundsHalfToEven(t *testing.T) {
	tests := []struct {
		members []analyzer.Rect
		want    analyzer.Rect
	}{
		{
			[]analyzer.Rect{{X: 0, Y: 0, W: 10, H: 10}, {X: 2, Y: 2, W: 12, H: 12}},
			analyzer.Rect{X: 1, Y: 1, W: 11, H: 11},
		},
		{
			// means of 0.5, 1.5, 2.5, 3.5
			[]analyzer.Rect{{X: 0, Y: 1, W: 2, H: 3}, {X: 1, Y: 2, W: 3, H: 4}},
			analyzer.Rect{X: 0, Y: 2, W: 2, H: 4},
		},
		{
			[]analyzer.Rect{{X: 5, Y: 5, W: 5, H: 5}},
			analyzer.Rect{X: 5, Y: 5, W: 5, H: 5},
		},
	}

	for i, tt := range tests {
		if got := Aggregate(Group{Members: tt.members}); got != tt.want {
			t.Errorf("case %d: Aggregate = %v, want %v", i, got, tt.want)
		}
	}
}

func TestCalibrateTwoRegions(t *testing.T) {
	legislator := analyzer.Rect{X: 100, Y: 600, W: 800, H: 60}
	bill := analyzer.Rect{X: 700, Y: 50, W: 250, H: 40}

	boxes := map[int][]analyzer.Rect{}
	for s := 1; s <= 20; s++ {
		var rs []analyzer.Rect
		if s <= 12 {
			rs = append(rs, analyzer.Rect{X: legislator.X + s%3, Y: legislator.Y, W: legislator.W, H: legislator.H})
		}
		if s > 12 {
			rs = append(rs, bill)
		}
		if s == 20 {
			rs = append(rs, analyzer.Rect{X: 0, Y: 0, W: 300, H: 300}) // noise
		}
		boxes[s] = rs
	}

	c := NewCalibrator(&stubDetector{boxes: boxes})
	c.SampleSize = 20
	c.Rand = rand.New(rand.NewSource(1))

	res, err := c.Calibrate(context.Background(), framesN(20), stubLoad)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	if len(res.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %v", res.Regions)
	}
	if res.Groups[0].Size() != 12 || res.Groups[1].Size() != 8 {
		t.Errorf("unexpected group sizes %d, %d", res.Groups[0].Size(), res.Groups[1].Size())
	}
	if res.Regions[1] != bill {
		t.Errorf("expected bill region %v, got %v", bill, res.Regions[1])
	}
	if d := res.Regions[0].X - legislator.X; d < 0 || d > 2 || res.Regions[0].Y != legislator.Y {
		t.Errorf("legislator region off: %v", res.Regions[0])
	}
	if res.Candidates != 21 {
		t.Errorf("expected 21 candidates, got %d", res.Candidates)
	}
}

func TestCalibrateInsufficientSamples(t *testing.T) {
	called := false
	load := func(source.Frame) (image.Image, error) {
		called = true
		return nil, nil
	}

	c := NewCalibrator(&stubDetector{})
	res, err := c.Calibrate(context.Background(), framesN(199), load)
	if !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples, got %v", err)
	}
	if res != nil {
		t.Error("expected no result")
	}
	if called {
		t.Error("no frame should be loaded when the sample cannot be drawn")
	}
}

func TestCalibrateNoDetections(t *testing.T) {
	c := NewCalibrator(&stubDetector{})
	c.SampleSize = 10

	res, err := c.Calibrate(context.Background(), framesN(10), stubLoad)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if len(res.Regions) != 0 {
		t.Errorf("expected no regions, got %v", res.Regions)
	}
}

func TestCalibrateSampleWithoutReplacement(t *testing.T) {
	c := NewCalibrator(&stubDetector{})
	c.SampleSize = 50
	c.Rand = rand.New(rand.NewSource(7))

	res, err := c.Calibrate(context.Background(), framesN(60), stubLoad)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	seen := map[int]bool{}
	for _, f := range res.Sample {
		if seen[f.Second] {
			t.Fatalf("frame %d sampled twice", f.Second)
		}
		seen[f.Second] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 distinct frames, got %d", len(seen))
	}
}

func TestCalibrateParallelMatchesSequential(t *testing.T) {
	boxes := map[int][]analyzer.Rect{}
	for s := 1; s <= 40; s++ {
		boxes[s] = []analyzer.Rect{{X: s % 25, Y: 10 * (s % 4), W: 200, H: 30}}
	}

	run := func(workers int) *Result {
		c := NewCalibrator(&stubDetector{boxes: boxes})
		c.SampleSize = 30
		c.Workers = workers
		c.Keep = 4
		c.Rand = rand.New(rand.NewSource(42))
		res, err := c.Calibrate(context.Background(), framesN(40), stubLoad)
		if err != nil {
			t.Fatalf("Calibrate(workers=%d) failed: %v", workers, err)
		}
		return res
	}

	seq, par := run(1), run(8)
	if !reflect.DeepEqual(seq.Regions, par.Regions) {
		t.Errorf("parallel regions %v differ from sequential %v", par.Regions, seq.Regions)
	}
	if !reflect.DeepEqual(seq.Groups, par.Groups) {
		t.Error("parallel groups differ from sequential")
	}
}

func TestCalibrateLoadError(t *testing.T) {
	c := NewCalibrator(&stubDetector{})
	c.SampleSize = 5
	c.Workers = 2

	load := func(f source.Frame) (image.Image, error) {
		return nil, errors.New("corrupt")
	}
	if _, err := c.Calibrate(context.Background(), framesN(5), load); err == nil {
		t.Error("expected load error to propagate")
	}
}
