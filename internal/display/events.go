package display

import (
	"fmt"

	"github.com/Faultbox/dualfisheye/internal/frame"
	"github.com/Faultbox/dualfisheye/internal/sphere"
)

// Field names an editable display setting.
type Field int

const (
	FieldFrontTopic Field = iota
	FieldRearTopic
	FieldReferenceFrame
	FieldFOVFront
	FieldFOVRear
	FieldCroppedFOVFront
	FieldCroppedFOVRear
	FieldDebugScale
)

var fieldNames = map[Field]string{
	FieldFrontTopic:      "front_topic",
	FieldRearTopic:       "rear_topic",
	FieldReferenceFrame:  "reference_frame",
	FieldFOVFront:        "fov_front",
	FieldFOVRear:         "fov_rear",
	FieldCroppedFOVFront: "cropped_fov_front",
	FieldCroppedFOVRear:  "cropped_fov_rear",
	FieldDebugScale:      "debug_scale",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// topicSlot returns the slot whose topic f edits.
func (f Field) topicSlot() (sphere.Slot, bool) {
	switch f {
	case FieldFrontTopic:
		return sphere.Front, true
	case FieldRearTopic:
		return sphere.Rear, true
	}
	return 0, false
}

// Event is one input to Controller.Handle.
type Event interface {
	event()
}

// ConfigChanged reports an edited setting. Text carries topic and frame
// names; Number carries angles (degrees) and the debug scale.
type ConfigChanged struct {
	Field  Field
	Number float32
	Text   string
}

// FrameArrived carries a frame pushed by the frame source for a slot.
type FrameArrived struct {
	Slot  sphere.Slot
	Frame *frame.Raw
}

// SourceError carries a failure reported by a slot's subscription: a dial
// that did not complete or a stream that stopped.
type SourceError struct {
	Slot sphere.Slot
	Err  error
}

// RenderTick is sent once per displayed frame by the render loop.
type RenderTick struct{}

func (ConfigChanged) event() {}
func (FrameArrived) event()  {}
func (SourceError) event()   {}
func (RenderTick) event()    {}
