package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrUnreadableVideo is returned when the source video is missing or ffmpeg
// cannot decode it. It is fatal for a run.
var ErrUnreadableVideo = errors.New("unreadable video")

// FramePattern names extracted stills by their second offset.
const FramePattern = "%d.jpg"

// Extractor turns a video file into one still per second.
type Extractor interface {
	Extract(ctx context.Context, videoPath, outDir string) (int, error)
}

// FFmpegExtractor shells out to ffmpeg through ffmpeg-go.
type FFmpegExtractor struct {
	Quality int // mjpeg qscale, 2 is near-lossless
	Logger  *slog.Logger
}

func NewFFmpegExtractor(logger *slog.Logger) *FFmpegExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegExtractor{Quality: 2, Logger: logger}
}

// Stream builds the ffmpeg invocation without running it.
func (e *FFmpegExtractor) Stream(videoPath, outDir string) *ffmpeg.Stream {
	return ffmpeg.Input(videoPath).
		Output(filepath.Join(outDir, FramePattern), ffmpeg.KwArgs{
			"vf":           "fps=1",
			"start_number": 0,
			"q:v":          e.Quality,
		}).
		OverWriteOutput()
}

// Extract writes <N>.jpg for every second of videoPath into outDir and
// returns the number of frames on disk afterwards.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, outDir string) (int, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUnreadableVideo, videoPath, err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("create frame directory '%s': %w", outDir, err)
	}

	attrs := []any{slog.String("video", videoPath), slog.String("dir", outDir)}
	if info, err := Probe(videoPath); err == nil {
		attrs = append(attrs, slog.Float64("duration", info.Duration), slog.Float64("fps", info.FPS))
	}
	e.Logger.Info("extracting frames", attrs...)

	var stderr bytes.Buffer
	stream := e.Stream(videoPath, outDir).WithErrorOutput(&stderr)
	stream.Context = ctx

	if err := stream.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: ffmpeg: %v: %s", ErrUnreadableVideo, err, lastLine(stderr.String()))
	}

	n, err := CountFrames(outDir)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no frames decoded from %s", ErrUnreadableVideo, videoPath)
	}
	return n, nil
}

// CountFrames counts extracted stills in dir.
func CountFrames(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, entry := range entries {
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			if !entry.IsDir() {
				n++
			}
		}
	}
	return n, nil
}

// HasFrames reports whether dir already holds extracted stills, in which
// case extraction can be skipped.
func HasFrames(dir string) bool {
	n, err := CountFrames(dir)
	return err == nil && n > 0
}

// Info is the subset of ffprobe output the pipeline reports on.
type Info struct {
	Duration float64
	FPS      float64
	Width    int
	Height   int
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe on videoPath.
func Probe(videoPath string) (*Info, error) {
	out, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ErrUnreadableVideo, videoPath, err)
	}
	return parseProbe([]byte(out))
}

func parseProbe(data []byte) (*Info, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &Info{}
	if p.Format.Duration != "" {
		d, err := strconv.ParseFloat(p.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", p.Format.Duration, err)
		}
		info.Duration = d
	}

	for _, s := range p.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width, info.Height = s.Width, s.Height
		info.FPS = parseRate(s.AvgFrameRate)
		break
	}
	return info, nil
}

// parseRate reads ffprobe's "num/den" rational.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
