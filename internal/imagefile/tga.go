package imagefile

import (
	"errors"
	"fmt"
	"image"
)

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaTrueColorRLE = 10
)

const tgaHeaderLen = 18

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes uncompressed and RLE true-color TGA images with 24 or
// 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderLen {
		return nil, errors.New("tga: header truncated")
	}
	idLen := int(data[0])
	if data[1] != 0 {
		return nil, errors.New("tga: color-mapped images are not supported")
	}
	kind := data[2]
	if kind != tgaTrueColor && kind != tgaTrueColorRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", kind)
	}
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	depth := int(data[16])
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("tga: unsupported depth %d", depth)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tga: empty image %dx%d", width, height)
	}
	topDown := data[17]&0x20 != 0

	start := tgaHeaderLen + idLen
	if start > len(data) {
		return nil, errTGATruncated
	}

	p := &tgaPixels{
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		bpp:     depth / 8,
		topDown: topDown,
		total:   width * height,
	}
	src := data[start:]
	var err error
	if kind == tgaTrueColor {
		err = p.readRaw(src, p.total)
	} else {
		err = p.readRLE(src)
	}
	if err != nil {
		return nil, err
	}
	return p.img, nil
}

// tgaPixels writes BGR(A) pixels in file order into an RGBA image.
type tgaPixels struct {
	img     *image.RGBA
	bpp     int
	topDown bool
	total   int
	n       int
}

func (p *tgaPixels) put(px []byte) {
	w := p.img.Rect.Dx()
	x, y := p.n%w, p.n/w
	if !p.topDown {
		y = p.img.Rect.Dy() - 1 - y
	}
	i := p.img.PixOffset(x, y)
	p.img.Pix[i], p.img.Pix[i+1], p.img.Pix[i+2] = px[2], px[1], px[0]
	p.img.Pix[i+3] = 0xFF
	if p.bpp == 4 {
		p.img.Pix[i+3] = px[3]
	}
	p.n++
}

func (p *tgaPixels) readRaw(src []byte, count int) error {
	if len(src) < count*p.bpp {
		return errTGATruncated
	}
	for i := 0; i < count; i++ {
		p.put(src[i*p.bpp:])
	}
	return nil
}

func (p *tgaPixels) readRLE(src []byte) error {
	for p.n < p.total {
		if len(src) == 0 {
			return errTGATruncated
		}
		header := src[0]
		src = src[1:]
		count := min(int(header&0x7F)+1, p.total-p.n)

		if header&0x80 == 0 {
			if err := p.readRaw(src, count); err != nil {
				return err
			}
			src = src[count*p.bpp:]
			continue
		}
		if len(src) < p.bpp {
			return errTGATruncated
		}
		for i := 0; i < count; i++ {
			p.put(src)
		}
		src = src[p.bpp:]
	}
	return nil
}
