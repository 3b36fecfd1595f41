package source

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/dualfisheye/internal/frame"
)

func TestMarshalLayout(t *testing.T) {
	raw := &frame.Raw{
		Width:     2,
		Height:    1,
		Encoding:  frame.Mono16,
		BigEndian: true,
		Step:      4,
		Data:      []byte{1, 2, 3, 4},
	}

	data, err := Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("DFF1")) {
		t.Errorf("missing magic: % x", data[:4])
	}
	if data[4] != flagBigEndian {
		t.Errorf("flags = %#x, want big-endian bit", data[4])
	}
	if int(data[5]) != len("mono16") || string(data[6:12]) != "mono16" {
		t.Errorf("encoding field = %q", data[6:6+int(data[5])])
	}
	if len(data) != wireFixedBytes+len("mono16")+4 {
		t.Errorf("message length %d", len(data))
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(raw, got); diff != "" {
		t.Errorf("frame mismatch (-sent +received):\n%s", diff)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	good, err := Marshal(&frame.Raw{Width: 1, Height: 1, Encoding: frame.RGB8, Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	tests := []struct {
		name string
		msg  []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXX"), good[4:]...)},
		{"header truncated", good[:10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.msg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUnmarshalCopiesPixels(t *testing.T) {
	msg, err := Marshal(&frame.Raw{Width: 1, Height: 1, Encoding: frame.Mono8, Data: []byte{42}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	raw, err := Unmarshal(msg)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	msg[len(msg)-1] = 0
	if raw.Data[0] != 42 {
		t.Errorf("pixel data aliases the message buffer")
	}
}
