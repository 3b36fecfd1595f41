package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromFramebufferFlips(t *testing.T) {
	// Two rows, bottom row first.
	pixels := []byte{
		1, 1, 1, 255,
		2, 2, 2, 255,
	}
	img, err := FromFramebuffer(pixels, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if img.Pix[0] != 2 || img.Pix[4] != 1 {
		t.Errorf("rows not flipped: %v", img.Pix)
	}
}

func TestFromFramebufferSize(t *testing.T) {
	if _, err := FromFramebuffer(make([]byte, 7), 1, 2); err == nil {
		t.Error("short buffer accepted")
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "sphere")
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	img, _ := FromFramebuffer(make([]byte, 16), 2, 2)
	path, err := s.Save(img)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "sphere_2024-05-01_12-30-00.000.png"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 2 || cfg.Height != 2 {
		t.Errorf("saved %dx%d", cfg.Width, cfg.Height)
	}
}
