package source

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestParseSecond(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"0.jpg", 0, true},
		{"42.jpg", 42, true},
		{"/tmp/videos/1234.jpg", 1234, true},
		{"frame_0007.jpg", 7, true},
		{"clip12_34.png", 12, true},
		{"screenshot.jpg", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSecond(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseSecond(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFrameDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10.jpg", "2.jpg", "0.jpg", "chyrons.jpg"} {
		writeJPEG(t, filepath.Join(dir, name), 8, 8)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(dir, "5"), 0755)

	set, err := FrameDir(dir)
	if err != nil {
		t.Fatalf("FrameDir failed: %v", err)
	}

	if len(set.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d: %+v", len(set.Frames), set.Frames)
	}
	for i, want := range []int{0, 2, 10} {
		if set.Frames[i].Second != want {
			t.Errorf("frame %d: expected second %d, got %d", i, want, set.Frames[i].Second)
		}
	}
	if len(set.Skipped) != 1 || filepath.Base(set.Skipped[0]) != "chyrons.jpg" {
		t.Errorf("expected chyrons.jpg to be skipped, got %v", set.Skipped)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "3.jpg")
	writeJPEG(t, path, 64, 32)

	img, err := Load(Frame{Second: 3, Path: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	w, h, err := Dimensions(Frame{Path: path})
	if err != nil || w != 64 || h != 32 {
		t.Errorf("Dimensions = %d, %d, %v", w, h, err)
	}

	bad := filepath.Join(dir, "4.jpg")
	os.WriteFile(bad, []byte("not a jpeg"), 0644)
	if _, err := Load(Frame{Second: 4, Path: bad}); err == nil {
		t.Error("expected decode error for corrupt frame")
	}
	if _, err := Load(Frame{Second: 5, Path: filepath.Join(dir, "5.jpg")}); err == nil {
		t.Error("expected error for missing frame")
	}
}
