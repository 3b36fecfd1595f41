package app

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/dualfisheye/internal/display"
)

func TestTuneKey(t *testing.T) {
	s := display.DefaultSettings()
	s.Rear.FOV = 358
	s.Rear.CroppedFOV = 190

	tests := []struct {
		name  string
		key   sdl.Scancode
		shift bool
		want  display.ConfigChanged
	}{
		{"front up", sdl.SCANCODE_F, false, display.ConfigChanged{Field: display.FieldFOVFront, Number: 240}},
		{"front down", sdl.SCANCODE_F, true, display.ConfigChanged{Field: display.FieldFOVFront, Number: 230}},
		{"rear clamps", sdl.SCANCODE_R, false, display.ConfigChanged{Field: display.FieldFOVRear, Number: 360}},
		{"front crop follows fov", sdl.SCANCODE_G, true, display.ConfigChanged{Field: display.FieldCroppedFOVFront, Number: 230}},
		{"rear crop", sdl.SCANCODE_T, false, display.ConfigChanged{Field: display.FieldCroppedFOVRear, Number: 195}},
		{"debug down", sdl.SCANCODE_D, true, display.ConfigChanged{Field: display.FieldDebugScale, Number: 0.95}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tuneKey(tt.key, tt.shift, s)
			if !ok {
				t.Fatal("key not mapped")
			}
			if got.Field != tt.want.Field || absf(got.Number-tt.want.Number) > 1e-4 {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTuneKeyUnmapped(t *testing.T) {
	if _, ok := tuneKey(sdl.SCANCODE_Q, false, display.DefaultSettings()); ok {
		t.Error("Q mapped to an edit")
	}
}

func TestTuneKeyFOVFloor(t *testing.T) {
	s := display.DefaultSettings()
	s.Front.FOV = 3
	got, _ := tuneKey(sdl.SCANCODE_F, true, s)
	if got.Number != 1 {
		t.Errorf("fov = %v, want 1", got.Number)
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
