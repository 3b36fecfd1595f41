package imagefile

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "front.png")
	writePNG(t, path, 4, 3, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	img, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect != image.Rect(0, 0, 4, 3) {
		t.Errorf("bounds = %v", img.Rect)
	}
	if got := img.RGBAAt(3, 2); got != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("garbage decoded")
	}
	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestToRGBAOffset(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.SetRGBA(6, 5, color.RGBA{R: 9, A: 255})
	got := ToRGBA(src)
	if got.Rect != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v", got.Rect)
	}
	if got.RGBAAt(1, 0).R != 9 {
		t.Errorf("pixel not moved to origin")
	}
}

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	tests := []struct {
		name string
		w, h int
		want image.Rectangle
	}{
		{"unchanged", 0, 0, image.Rect(0, 0, 40, 20)},
		{"width only", 20, 0, image.Rect(0, 0, 20, 10)},
		{"height only", 0, 40, image.Rect(0, 0, 80, 40)},
		{"both", 10, 10, image.Rect(0, 0, 10, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resize(img, tt.w, tt.h).Rect; got != tt.want {
				t.Errorf("bounds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", "c.TGA"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.TGA"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}

	single, err := List(want[1])
	if err != nil || len(single) != 1 || single[0] != want[1] {
		t.Errorf("List(file) = %v, %v", single, err)
	}

	if _, err := List(t.TempDir()); err == nil {
		t.Error("empty directory accepted")
	}
}
