package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Frame is one still extracted from the video, identified by its offset in
// whole seconds.
type Frame struct {
	Second int
	Path   string
}

var digits = regexp.MustCompile(`\d+`)

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ParseSecond extracts the second-offset from a frame file name: the first
// run of digits in its base name.
func ParseSecond(path string) (int, bool) {
	m := digits.FindString(filepath.Base(path))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FrameSet is the frame population of one video.
type FrameSet struct {
	Dir     string
	Frames  []Frame  // ascending by Second
	Skipped []string // image files whose names carry no second-offset
}

// FrameDir lists the frames in dir. Files without a number in their name are
// skipped rather than failing the whole listing.
func FrameDir(dir string) (*FrameSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames directory '%s': %w", dir, err)
	}

	set := &FrameSet{Dir: dir}
	for _, entry := range entries {
		if entry.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		second, ok := ParseSecond(entry.Name())
		if !ok {
			set.Skipped = append(set.Skipped, path)
			continue
		}
		set.Frames = append(set.Frames, Frame{Second: second, Path: path})
	}

	sort.SliceStable(set.Frames, func(i, j int) bool {
		return set.Frames[i].Second < set.Frames[j].Second
	})

	return set, nil
}

// Load decodes a frame from disk.
func Load(frame Frame) (image.Image, error) {
	f, err := os.Open(frame.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", frame.Path, err)
	}
	return img, nil
}

// Dimensions reads only the header of a frame.
func Dimensions(frame Frame) (int, int, error) {
	f, err := os.Open(frame.Path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
