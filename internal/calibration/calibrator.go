package calibration

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
	"github.com/richmondsunlight/chyrons/internal/source"
)

// ErrInsufficientSamples means the video has fewer frames than the sample
// size. Calibration never shrinks the sample.
var ErrInsufficientSamples = errors.New("insufficient frames for calibration sample")

// Loader decodes one frame.
type Loader func(frame source.Frame) (image.Image, error)

// Calibrator derives the canonical chyron regions of one video from a
// random sample of its frames.
type Calibrator struct {
	Detector   analyzer.Detector
	SampleSize int // frames drawn without replacement
	Tolerance  int // max per-coordinate difference from a group seed
	Keep       int // number of regions to return
	Workers    int
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// NewCalibrator creates a calibrator with the defaults the broadcast
// graphics were tuned for.
func NewCalibrator(d analyzer.Detector) *Calibrator {
	return &Calibrator{
		Detector:   d,
		SampleSize: 200,
		Tolerance:  10,
		Keep:       2,
		Workers:    1,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:     slog.Default(),
	}
}

// Result holds the canonical regions plus what produced them.
type Result struct {
	Regions    []analyzer.Rect // largest group first, at most Keep
	Groups     []Group         // the selected groups, same order as Regions
	Candidates int             // boxes detected across the sample
	Sample     []source.Frame
}

// Calibrate samples frames, detects candidate boxes on each, clusters them
// and returns the rounded mean box of the largest groups. A video with no
// detections yields an empty Regions slice.
func (c *Calibrator) Calibrate(ctx context.Context, frames []source.Frame, load Loader) (*Result, error) {
	sample, err := c.sample(frames)
	if err != nil {
		return nil, err
	}

	candidates, err := c.detect(ctx, sample, load)
	if err != nil {
		return nil, err
	}

	groups := Cluster(candidates, c.Tolerance)
	selected := Select(groups, c.Keep)

	regions := make([]analyzer.Rect, 0, len(selected))
	for _, g := range selected {
		regions = append(regions, Aggregate(g))
	}

	c.logger().Info("calibrated chyron regions",
		slog.Int("sampled", len(sample)),
		slog.Int("candidates", len(candidates)),
		slog.Int("groups", len(groups)),
		slog.Any("regions", regions),
	)

	return &Result{
		Regions:    regions,
		Groups:     selected,
		Candidates: len(candidates),
		Sample:     sample,
	}, nil
}

func (c *Calibrator) sample(frames []source.Frame) ([]source.Frame, error) {
	if c.SampleSize <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", c.SampleSize)
	}
	if len(frames) < c.SampleSize {
		return nil, fmt.Errorf("%w: have %d frames, need %d", ErrInsufficientSamples, len(frames), c.SampleSize)
	}

	r := c.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	perm := r.Perm(len(frames))[:c.SampleSize]
	sample := make([]source.Frame, len(perm))
	for i, idx := range perm {
		sample[i] = frames[idx]
	}
	return sample, nil
}

// detect runs the detector over the sample. Workers may finish in any
// order, but candidates are concatenated in sample order so clustering sees
// the same sequence as a single-threaded pass.
func (c *Calibrator) detect(ctx context.Context, sample []source.Frame, load Loader) ([]analyzer.Rect, error) {
	detected := make([][]analyzer.Rect, len(sample))

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, frame := range sample {
		i, frame := i, frame
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := load(frame)
			if err != nil {
				return fmt.Errorf("load frame %d: %w", frame.Second, err)
			}
			rects, err := c.Detector.Detect(img)
			if err != nil {
				return fmt.Errorf("detect frame %d: %w", frame.Second, err)
			}
			detected[i] = rects
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := []analyzer.Rect{}
	for _, rects := range detected {
		candidates = append(candidates, rects...)
	}
	return candidates, nil
}

func (c *Calibrator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
