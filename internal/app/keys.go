package app

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/dualfisheye/internal/display"
)

// Tuning steps for one key press.
const (
	fovStep   = 5
	debugStep = 0.05
)

// tuneKey maps a key press to a lens edit. Shift reverses the direction.
//
//	F  front FOV          R  rear FOV
//	G  front cropped FOV  T  rear cropped FOV
//	D  debug scale
func tuneKey(key sdl.Scancode, shift bool, s display.Settings) (display.ConfigChanged, bool) {
	sign := float32(1)
	if shift {
		sign = -1
	}

	var ev display.ConfigChanged
	switch key {
	case sdl.SCANCODE_F:
		ev = display.ConfigChanged{Field: display.FieldFOVFront, Number: clampFOV(s.Front.FOV+sign*fovStep, 1)}
	case sdl.SCANCODE_R:
		ev = display.ConfigChanged{Field: display.FieldFOVRear, Number: clampFOV(s.Rear.FOV+sign*fovStep, 1)}
	case sdl.SCANCODE_G:
		ev = display.ConfigChanged{Field: display.FieldCroppedFOVFront, Number: clampFOV(cropped(s.Front.CroppedFOV, s.Front.FOV)+sign*fovStep, 0)}
	case sdl.SCANCODE_T:
		ev = display.ConfigChanged{Field: display.FieldCroppedFOVRear, Number: clampFOV(cropped(s.Rear.CroppedFOV, s.Rear.FOV)+sign*fovStep, 0)}
	case sdl.SCANCODE_D:
		ev = display.ConfigChanged{Field: display.FieldDebugScale, Number: s.Front.DebugScale + sign*debugStep}
	default:
		return display.ConfigChanged{}, false
	}
	return ev, true
}

// cropped resolves the "follow the lens" value 0.
func cropped(c, fov float32) float32 {
	if c == 0 {
		return fov
	}
	return c
}

func clampFOV(v, lo float32) float32 {
	if v < lo {
		return lo
	}
	if v > 360 {
		return 360
	}
	return v
}
