package display

import "github.com/Faultbox/dualfisheye/internal/sphere"

// Settings is the configuration of one display instance.
type Settings struct {
	FrontTopic     string
	RearTopic      string
	ReferenceFrame string

	Radius   float32
	Rings    int
	Segments int

	Front sphere.LensConfig
	Rear  sphere.LensConfig
}

// DefaultSettings returns the stock dual 235 degree setup with no topics.
func DefaultSettings() Settings {
	return Settings{
		ReferenceFrame: "<Fixed Frame>",
		Radius:         10,
		Rings:          64,
		Segments:       64,
		Front:          sphere.DefaultLens(),
		Rear:           sphere.DefaultLens(),
	}
}

// Topic returns the configured topic of a slot.
func (s Settings) Topic(slot sphere.Slot) string {
	if slot == sphere.Rear {
		return s.RearTopic
	}
	return s.FrontTopic
}

// apply stores an edit and reports whether it changes the mesh.
func (s *Settings) apply(ev ConfigChanged) (rebuild bool) {
	switch ev.Field {
	case FieldFrontTopic:
		s.FrontTopic = ev.Text
	case FieldRearTopic:
		s.RearTopic = ev.Text
	case FieldReferenceFrame:
		s.ReferenceFrame = ev.Text
		return true
	case FieldFOVFront:
		s.Front.FOV = ev.Number
		return true
	case FieldFOVRear:
		s.Rear.FOV = ev.Number
		return true
	case FieldCroppedFOVFront:
		s.Front.CroppedFOV = ev.Number
		return true
	case FieldCroppedFOVRear:
		s.Rear.CroppedFOV = ev.Number
		return true
	case FieldDebugScale:
		s.Front.DebugScale = ev.Number
		s.Rear.DebugScale = ev.Number
		return true
	}
	return false
}
