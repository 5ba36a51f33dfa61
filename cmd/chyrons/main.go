package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
	"github.com/richmondsunlight/chyrons/internal/config"
	"github.com/richmondsunlight/chyrons/internal/metrics"
	"github.com/richmondsunlight/chyrons/internal/ocr"
	"github.com/richmondsunlight/chyrons/internal/pipeline"
	"github.com/richmondsunlight/chyrons/internal/store"
	"github.com/richmondsunlight/chyrons/internal/system"
	"github.com/richmondsunlight/chyrons/internal/video"
)

func main() {
	app := &cli.App{
		Name:        "chyrons",
		Usage:       "extract bill and legislator chyrons from a legislative video",
		UsageText:   "chyrons <video_id> <video_dir> <video_file>",
		Description: "Settings are read from the YAML file named by CHYRONS_CONFIG and from CHYRONS_* environment variables.",
		HideHelp:    true,
		HideVersion: true,
		Writer:      os.Stdout,
		Action:      run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 3 {
		cli.ShowAppHelp(c)
		return cli.Exit("", 1)
	}

	videoID, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil || videoID <= 0 {
		cli.ShowAppHelp(c)
		return cli.Exit(fmt.Sprintf("video_id must be a positive integer, got %q", c.Args().Get(0)), 1)
	}

	cfg, err := config.Load(os.Getenv("CHYRONS_CONFIG"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	cfg.VideoID = videoID
	cfg.VideoDir = c.Args().Get(1)
	cfg.VideoFile = c.Args().Get(2)

	logger := newLogger(cfg.LogLevel).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := process(ctx, cfg, logger); err != nil {
		logger.Error("run failed", slog.Any("err", err))
		return cli.Exit("", 1)
	}
	return nil
}

func process(ctx context.Context, cfg *config.Config, logger *slog.Logger) (err error) {
	if !video.HasFrames(cfg.VideoDir) {
		if _, err := system.RequireBinary("ffmpeg"); err != nil {
			return err
		}
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.StartServer(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	detector, err := analyzer.NewDetector(cfg.Detector, detectorOptions(cfg))
	if err != nil {
		return err
	}

	engine, err := ocr.NewTesseract(ocr.Options{
		Language:    cfg.OCR.Language,
		PageSegMode: cfg.OCR.PageSegMode,
		Whitelist:   cfg.OCR.Whitelist,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, engine.Close()) }()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close(context.Background())) }()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	project := pipeline.NewProject(cfg, video.NewFFmpegExtractor(logger), detector, engine, pipeline.Postgres(st), logger)
	_, err = project.Run(ctx)
	return err
}

func detectorOptions(cfg *config.Config) analyzer.Options {
	return analyzer.Options{
		Range: analyzer.HSVRange{
			Lower: analyzer.HSV(cfg.ColorRange.Lower),
			Upper: analyzer.HSV(cfg.ColorRange.Upper),
		},
		MinWidth:  cfg.MinRegionSize.Width,
		MinHeight: cfg.MinRegionSize.Height,
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
	}))
}
