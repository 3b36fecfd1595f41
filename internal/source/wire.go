package source

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/dualfisheye/internal/frame"
)

// Frame message layout (little-endian):
//
//	[0:4]   magic "DFF1"
//	[4]     flags (bit 0: big-endian pixel data)
//	[5]     encoding length n
//	[6:6+n] encoding name
//	        width uint32, height uint32, step uint32
//	        pixel bytes until the end of the message
const (
	wireMagic      = "DFF1"
	flagBigEndian  = 0x01
	wireFixedBytes = 4 + 1 + 1 + 12
)

var errShortMessage = errors.New("frame message truncated")

// Marshal encodes a frame as one binary message.
func Marshal(raw *frame.Raw) ([]byte, error) {
	if raw == nil {
		return nil, errors.New("marshal nil frame")
	}
	if len(raw.Encoding) > 255 {
		return nil, fmt.Errorf("encoding name too long (%d bytes)", len(raw.Encoding))
	}

	n := len(raw.Encoding)
	buf := make([]byte, wireFixedBytes+n+len(raw.Data))
	copy(buf[0:4], wireMagic)
	if raw.BigEndian {
		buf[4] = flagBigEndian
	}
	buf[5] = byte(n)
	copy(buf[6:6+n], raw.Encoding)

	off := 6 + n
	binary.LittleEndian.PutUint32(buf[off:], raw.Width)
	binary.LittleEndian.PutUint32(buf[off+4:], raw.Height)
	binary.LittleEndian.PutUint32(buf[off+8:], raw.Step)
	copy(buf[off+12:], raw.Data)
	return buf, nil
}

// Unmarshal decodes a binary frame message. The pixel bytes are copied so
// the result does not alias msg.
func Unmarshal(msg []byte) (*frame.Raw, error) {
	if len(msg) < 6 {
		return nil, errShortMessage
	}
	if string(msg[0:4]) != wireMagic {
		return nil, fmt.Errorf("bad frame magic %q", msg[0:4])
	}

	n := int(msg[5])
	if len(msg) < wireFixedBytes+n {
		return nil, errShortMessage
	}

	off := 6 + n
	raw := &frame.Raw{
		Encoding:  string(msg[6:off]),
		BigEndian: msg[4]&flagBigEndian != 0,
		Width:     binary.LittleEndian.Uint32(msg[off:]),
		Height:    binary.LittleEndian.Uint32(msg[off+4:]),
		Step:      binary.LittleEndian.Uint32(msg[off+8:]),
	}
	raw.Data = append([]byte(nil), msg[off+12:]...)
	return raw, nil
}
