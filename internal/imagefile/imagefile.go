// Package imagefile loads still images from disk as RGBA frames for
// publishing.
package imagefile

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // decoder registration
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var extensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
	".tga": true,
}

// Supported reports whether path has an image extension Load understands.
func Supported(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Load decodes an image file into RGBA.
func Load(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Rect, img, b.Min, xdraw.Src)
	return rgba
}

// Resize scales img to width x height. A zero dimension keeps the aspect
// ratio; both zero returns img unchanged.
func Resize(img *image.RGBA, width, height int) *image.RGBA {
	b := img.Bounds()
	switch {
	case width == 0 && height == 0:
		return img
	case width == 0:
		width = b.Dx() * height / b.Dy()
	case height == 0:
		height = b.Dy() * width / b.Dx()
	}
	if width == b.Dx() && height == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}

// List returns the images in dir in lexical order. If path names a file it
// is returned on its own.
func List(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", path)
	}
	return files, nil
}
