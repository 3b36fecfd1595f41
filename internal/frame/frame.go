// Package frame models camera images as they arrive from a frame source and
// converts them to the fixed RGBA8 layout the sphere textures use.
package frame

import (
	"encoding/binary"
	"fmt"
	"image"
)

// Pixel encodings accepted on the wire.
const (
	RGB8   = "rgb8"
	RGBA8  = "rgba8"
	BGR8   = "bgr8"
	BGRA8  = "bgra8"
	Mono8  = "mono8"
	Mono16 = "mono16"
)

// Size limits for a single frame. Larger headers are rejected before any
// pixel buffer is allocated.
const (
	MaxDimension = 16384
	MaxPixels    = 1 << 24
)

// BytesPerPixel returns the pixel size of a wire encoding, or false if the
// encoding is not supported.
func BytesPerPixel(encoding string) (int, bool) {
	switch encoding {
	case Mono8:
		return 1, true
	case Mono16:
		return 2, true
	case RGB8, BGR8:
		return 3, true
	case RGBA8, BGRA8:
		return 4, true
	default:
		return 0, false
	}
}

// Raw is an undecoded camera image.
type Raw struct {
	Width    uint32
	Height   uint32
	Encoding string
	// BigEndian applies to multi-byte encodings (mono16).
	BigEndian bool
	// Step is the row length in bytes. Zero means tightly packed rows.
	Step uint32
	Data []byte
}

// DecodeError reports a frame that could not be converted.
type DecodeError struct {
	Encoding string
	Reason   string
}

func (e *DecodeError) Error() string {
	if e.Encoding == "" {
		return "decode frame: " + e.Reason
	}
	return fmt.Sprintf("decode %s frame: %s", e.Encoding, e.Reason)
}

// Decode converts a raw frame to RGBA8. Sources without alpha get an opaque
// alpha channel. The returned image owns its pixel buffer.
func Decode(raw *Raw) (*image.RGBA, error) {
	if raw == nil {
		return nil, &DecodeError{Reason: "nil frame"}
	}
	bpp, ok := BytesPerPixel(raw.Encoding)
	if !ok {
		return nil, &DecodeError{Encoding: raw.Encoding, Reason: "unsupported pixel encoding"}
	}
	if raw.Width == 0 || raw.Height == 0 {
		return nil, &DecodeError{Encoding: raw.Encoding, Reason: fmt.Sprintf("empty image %dx%d", raw.Width, raw.Height)}
	}

	if raw.Width > MaxDimension || raw.Height > MaxDimension || uint64(raw.Width)*uint64(raw.Height) > MaxPixels {
		return nil, &DecodeError{Encoding: raw.Encoding, Reason: fmt.Sprintf("image %dx%d exceeds size limit", raw.Width, raw.Height)}
	}

	// Dimensions are bounded above, so these products cannot overflow uint64.
	rowLen64 := uint64(raw.Width) * uint64(bpp)
	step64 := uint64(raw.Step)
	if step64 == 0 {
		step64 = rowLen64
	}
	if step64 < rowLen64 {
		return nil, &DecodeError{Encoding: raw.Encoding, Reason: fmt.Sprintf("step %d shorter than row %d", step64, rowLen64)}
	}
	if need := step64*uint64(raw.Height-1) + rowLen64; uint64(len(raw.Data)) < need {
		return nil, &DecodeError{Encoding: raw.Encoding, Reason: fmt.Sprintf("data truncated: have %d bytes, need %d", len(raw.Data), need)}
	}

	width, height := int(raw.Width), int(raw.Height)
	rowLen, step := int(rowLen64), int(step64)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := raw.Data[y*step : y*step+rowLen]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		convertRow(dst, src, raw.Encoding, raw.BigEndian)
	}
	return img, nil
}

// convertRow writes one row of RGBA8 pixels into dst.
func convertRow(dst, src []byte, encoding string, bigEndian bool) {
	switch encoding {
	case RGBA8:
		copy(dst, src)
	case BGRA8:
		for i := 0; i < len(src); i += 4 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
		}
	case RGB8:
		for i, j := 0, 0; i < len(src); i, j = i+3, j+4 {
			dst[j], dst[j+1], dst[j+2], dst[j+3] = src[i], src[i+1], src[i+2], 0xFF
		}
	case BGR8:
		for i, j := 0, 0; i < len(src); i, j = i+3, j+4 {
			dst[j], dst[j+1], dst[j+2], dst[j+3] = src[i+2], src[i+1], src[i], 0xFF
		}
	case Mono8:
		for i, j := 0, 0; i < len(src); i, j = i+1, j+4 {
			g := src[i]
			dst[j], dst[j+1], dst[j+2], dst[j+3] = g, g, g, 0xFF
		}
	case Mono16:
		var order binary.ByteOrder = binary.LittleEndian
		if bigEndian {
			order = binary.BigEndian
		}
		for i, j := 0, 0; i < len(src); i, j = i+2, j+4 {
			g := uint8(order.Uint16(src[i:]) >> 8)
			dst[j], dst[j+1], dst[j+2], dst[j+3] = g, g, g, 0xFF
		}
	}
}

// FromRGBA wraps an RGBA image as a tightly packed rgba8 frame.
func FromRGBA(img *image.RGBA) *Raw {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(data[y*width*4:(y+1)*width*4], img.Pix[start:start+width*4])
	}
	return &Raw{
		Width:    uint32(width),
		Height:   uint32(height),
		Encoding: RGBA8,
		Data:     data,
	}
}
