package video

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStreamArgs(t *testing.T) {
	e := NewFFmpegExtractor(nil)
	args := strings.Join(e.Stream("/videos/session.mp4", "/tmp/frames").GetArgs(), " ")

	for _, want := range []string{
		"-i /videos/session.mp4",
		"-vf fps=1",
		"-start_number 0",
		"/tmp/frames/%d.jpg",
		"-y",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in ffmpeg args: %s", want, args)
		}
	}
}

func TestExtractMissingVideo(t *testing.T) {
	e := NewFFmpegExtractor(nil)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), t.TempDir())
	if !errors.Is(err, ErrUnreadableVideo) {
		t.Errorf("expected ErrUnreadableVideo, got %v", err)
	}
}

func TestHasFrames(t *testing.T) {
	dir := t.TempDir()
	if HasFrames(dir) {
		t.Error("empty directory should have no frames")
	}
	if HasFrames(filepath.Join(dir, "nope")) {
		t.Error("missing directory should have no frames")
	}

	os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644)
	if HasFrames(dir) {
		t.Error("non-jpg files should not count")
	}

	os.WriteFile(filepath.Join(dir, "0.jpg"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "1.JPG"), nil, 0644)
	if n, _ := CountFrames(dir); n != 2 {
		t.Errorf("expected 2 frames, got %d", n)
	}
	if !HasFrames(dir) {
		t.Error("expected frames")
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "audio", "avg_frame_rate": "0/0"},
			{"codec_type": "video", "width": 1280, "height": 720, "avg_frame_rate": "30000/1001"}
		],
		"format": {"duration": "3605.120000"}
	}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Errorf("unexpected size %dx%d", info.Width, info.Height)
	}
	if math.Abs(info.FPS-29.97) > 0.01 {
		t.Errorf("unexpected fps %f", info.FPS)
	}
	if info.Duration != 3605.12 {
		t.Errorf("unexpected duration %f", info.Duration)
	}

	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected error for invalid output")
	}
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"25/1": 25,
		"0/0":  0,
		"30":   30,
		"":     0,
	}
	for in, want := range tests {
		if got := parseRate(in); got != want {
			t.Errorf("parseRate(%q) = %f, want %f", in, got, want)
		}
	}
}
