package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
	"github.com/richmondsunlight/chyrons/internal/calibration"
	"github.com/richmondsunlight/chyrons/internal/chyron"
	"github.com/richmondsunlight/chyrons/internal/config"
	"github.com/richmondsunlight/chyrons/internal/metrics"
	"github.com/richmondsunlight/chyrons/internal/ocr"
	"github.com/richmondsunlight/chyrons/internal/source"
	"github.com/richmondsunlight/chyrons/internal/system"
	"github.com/richmondsunlight/chyrons/internal/video"
)

// Project processes one video: extract, calibrate, then gate, recognize
// and store every frame in order.
type Project struct {
	Config    *config.Config
	Extractor video.Extractor
	Detector  analyzer.Detector
	OCR       ocr.Engine
	Store     Store
	Logger    *slog.Logger
	Out       io.Writer // run report, when Config.ShowStats is set
}

func NewProject(cfg *config.Config, ex video.Extractor, d analyzer.Detector, engine ocr.Engine, st Store, logger *slog.Logger) *Project {
	return &Project{
		Config:    cfg,
		Extractor: ex,
		Detector:  d,
		OCR:       engine,
		Store:     st,
		Logger:    logger,
		Out:       os.Stdout,
	}
}

func (p *Project) Run(ctx context.Context) (rep *Report, err error) {
	start := time.Now()
	cfg := p.Config
	log := p.logger().With(slog.Int64("video_id", cfg.VideoID))
	rep = &Report{VideoID: cfg.VideoID, Cutoff: cfg.ClassifyCutoff}

	if cfg.DebugDir != "" {
		if err := os.MkdirAll(cfg.DebugDir, 0755); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
	}

	if video.HasFrames(cfg.VideoDir) {
		log.Info("frames already extracted, skipping ffmpeg", slog.String("dir", cfg.VideoDir))
	} else {
		n, err := p.Extractor.Extract(ctx, cfg.VideoFile, cfg.VideoDir)
		if err != nil {
			return nil, err
		}
		rep.Extracted = n
	}

	set, err := source.FrameDir(cfg.VideoDir)
	if err != nil {
		return nil, err
	}
	for _, path := range set.Skipped {
		log.Debug("skipping frame without a second offset", slog.String("path", path))
	}
	rep.Frames = len(set.Frames)
	rep.Skipped = len(set.Skipped)
	if len(set.Frames) > 0 {
		if w, h, err := source.Dimensions(set.Frames[0]); err == nil {
			log.Info("frames listed", slog.Int("frames", rep.Frames), slog.Int("width", w), slog.Int("height", h))
		}
	}

	regions, err := p.regions(ctx, set.Frames, log)
	if err != nil {
		return nil, err
	}
	rep.Regions = regions
	if len(regions) == 0 {
		log.Warn("no chyron regions found")
	}

	if cfg.Video.Chamber != "" {
		v, err := videoFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		if err := p.Store.UpsertVideo(ctx, v); err != nil {
			return nil, err
		}
	}

	batch, err := p.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, batch.Rollback(context.Background()))
			rep = nil
		}
	}()

	for _, frame := range set.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.processFrame(ctx, frame, regions, batch, rep); err != nil {
			metrics.FramesProcessedTotal.WithLabelValues(metrics.StatusFailed).Inc()
			return nil, err
		}
		metrics.FramesProcessedTotal.WithLabelValues(metrics.StatusProcessed).Inc()
	}

	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	rep.Elapsed = time.Since(start)
	if rss, err := system.ProcessRSS(); err == nil {
		rep.RSS = rss
	}

	log.Info("video processed",
		slog.Int("frames", rep.Frames),
		slog.Int("records", rep.Records),
		slog.Int("empty", rep.Empty),
		slog.Duration("elapsed", rep.Elapsed),
	)
	if cfg.ShowStats && p.Out != nil {
		rep.Render(p.Out)
	}
	return rep, nil
}

// regions returns the configured fixed regions, or calibrates.
func (p *Project) regions(ctx context.Context, frames []source.Frame, log *slog.Logger) ([]analyzer.Rect, error) {
	cfg := p.Config
	if len(cfg.Regions) > 0 {
		regions := make([]analyzer.Rect, len(cfg.Regions))
		for i, r := range cfg.Regions {
			regions[i] = analyzer.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
		}
		log.Info("using configured chyron regions", slog.Any("regions", regions))
		return regions, nil
	}

	c := calibration.NewCalibrator(p.Detector)
	c.SampleSize = cfg.SampleSize
	c.Tolerance = cfg.SimilarityTolerance
	c.Keep = cfg.KeepRegions
	c.Workers = cfg.Workers
	c.Logger = log
	if cfg.Seed != 0 {
		c.Rand = rand.New(rand.NewSource(cfg.Seed))
	}

	res, err := c.Calibrate(ctx, frames, source.Load)
	if err != nil {
		return nil, err
	}
	metrics.CalibrationCandidates.Set(float64(res.Candidates))

	if cfg.DebugDir != "" && len(res.Sample) > 0 {
		p.saveCalibration(res, log)
	}
	return res.Regions, nil
}

func (p *Project) processFrame(ctx context.Context, frame source.Frame, regions []analyzer.Rect, batch Batch, rep *Report) error {
	cfg := p.Config

	img, err := source.Load(frame)
	if err != nil {
		return err
	}
	rgba, release := system.AcquireRGBA(img)
	defer release()

	var found []analyzer.Rect
	var labels []string

	for _, r := range regions {
		if !analyzer.BlueGate(rgba, r, cfg.BlueGateThreshold) {
			continue
		}

		crop := r
		if r.Y > cfg.InsetCutoff {
			if in := r.Inset(cfg.BottomRegionInset.X, cfg.BottomRegionInset.Y); in.Valid() {
				crop = in
			}
		}

		t0 := time.Now()
		text, err := p.OCR.Recognize(ocr.Prepare(rgba, crop.Rectangle(), cfg.OCR.Scale))
		metrics.OCRDuration.Observe(time.Since(t0).Seconds())
		if err != nil {
			return fmt.Errorf("ocr frame %d region %v: %w", frame.Second, r, err)
		}

		typ := chyron.Classify(r.Y, cfg.ClassifyCutoff)
		rec := chyron.Record{
			VideoID:    cfg.VideoID,
			Timestamp:  frame.Second,
			Type:       typ,
			Text:       text,
			Normalized: chyron.Normalize(typ, text),
		}
		if err := batch.Save(ctx, rec); err != nil {
			return err
		}

		metrics.RecordsWrittenTotal.WithLabelValues(string(typ)).Inc()
		rep.Records++
		if text == "" {
			rep.Empty++
		}
		found = append(found, crop)
		labels = append(labels, fmt.Sprintf("%s: %s", typ, text))
	}

	if cfg.DebugDir != "" && len(found) > 0 {
		path := filepath.Join(cfg.DebugDir, fmt.Sprintf("%d.jpg", frame.Second))
		if err := analyzer.SaveAnnotated(path, rgba, found, labels); err != nil {
			p.logger().Warn("could not save debug frame", slog.String("path", path), slog.Any("err", err))
		}
	}
	return nil
}

func (p *Project) saveCalibration(res *calibration.Result, log *slog.Logger) {
	img, err := source.Load(res.Sample[0])
	if err != nil {
		log.Warn("could not load calibration frame", slog.Any("err", err))
		return
	}

	labels := make([]string, len(res.Regions))
	for i, g := range res.Groups {
		labels[i] = fmt.Sprintf("%s (%d)", chyron.Classify(res.Regions[i].Y, p.Config.ClassifyCutoff), g.Size())
	}

	path := filepath.Join(p.Config.DebugDir, "calibration.jpg")
	if err := analyzer.SaveAnnotated(path, img, res.Regions, labels); err != nil {
		log.Warn("could not save calibration frame", slog.String("path", path), slog.Any("err", err))
	}
}

func (p *Project) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func videoFromConfig(cfg *config.Config) (chyron.Video, error) {
	v := chyron.Video{
		ID:        cfg.VideoID,
		Chamber:   chyron.Chamber(cfg.Video.Chamber),
		Committee: cfg.Video.Committee,
	}
	if cfg.Video.Date != "" {
		d, err := time.Parse(time.DateOnly, cfg.Video.Date)
		if err != nil {
			return chyron.Video{}, fmt.Errorf("video.date: %w", err)
		}
		v.Date = d
	}
	return v, v.Validate()
}
