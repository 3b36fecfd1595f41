// Package sphere builds the dual-fisheye projection sphere: a UV sphere viewed
// from the inside whose vertices carry one texture coordinate per camera.
package sphere

import "fmt"

// Slot identifies a camera position. The value doubles as the material
// texture unit the camera's image is bound to.
type Slot int

const (
	Front Slot = iota
	Rear

	// SlotCount is the number of camera slots.
	SlotCount = 2
)

// Slots lists every camera slot in texture-unit order.
var Slots = [SlotCount]Slot{Front, Rear}

// String returns the slot name used in logs and status text.
func (s Slot) String() string {
	switch s {
	case Front:
		return "front"
	case Rear:
		return "rear"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Unit returns the texture unit the slot samples from.
func (s Slot) Unit() int {
	return int(s)
}

// LensConfig describes one fisheye lens. Angles are in degrees.
type LensConfig struct {
	// FOV is the full field of view that spans the unit disk of the image.
	FOV float32 `yaml:"fov"`
	// CroppedFOV is the azimuth window around the lens axis that is kept;
	// vertices outside it are masked. Zero means "same as FOV".
	CroppedFOV float32 `yaml:"cropped_fov"`
	// DebugScale scales the UV disk around the image center; 1 is neutral.
	DebugScale float32 `yaml:"debug_scale"`
}

// DefaultLens returns the lens settings of the stock 235 degree cameras.
func DefaultLens() LensConfig {
	return LensConfig{
		FOV:        235,
		DebugScale: 1,
	}
}

// Vertex is one sphere vertex. The field order matches the GPU layout:
// position (3 floats), normal (3), front UV (2), rear UV (2).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UVFront  [2]float32
	UVRear   [2]float32
}

// UV returns the vertex texture coordinate for the given slot.
func (v Vertex) UV(slot Slot) [2]float32 {
	if slot == Rear {
		return v.UVRear
	}
	return v.UVFront
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh holds the complete sphere mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
	Radius   float32
	Rings    int
	Segments int
}

// ConfigError reports mesh parameters that cannot produce a sphere.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sphere config: %s %s", e.Field, e.Reason)
}
