package sphere

import (
	"math"

	pmath "github.com/Faultbox/dualfisheye/pkg/math"
)

// MaskRadius is the distance from the UV origin that masked vertices are
// pushed to. Anything sampled there lies far outside the [0,1] image domain,
// so a clamp-to-border sampler returns the transparent border color.
const MaskRadius = 10

// Lens axes expressed as sphere azimuths (radians).
const (
	frontCenter = math.Pi
	rearCenter  = 2 * math.Pi
)

// Build generates a sphere of the given radius with rings latitude bands and
// segments longitude divisions. Each vertex receives a front and a rear
// texture coordinate computed from the matching lens.
//
// The mesh is always produced in full: (rings+1)*(segments+1) vertices and
// 6*rings*(segments+1) indices, with inward-facing normals.
func Build(radius float32, rings, segments int, front, rear LensConfig) (*Mesh, error) {
	if err := validate(radius, rings, segments, front, rear); err != nil {
		return nil, err
	}

	lenses := [SlotCount]lens{
		Front: newLens(front, frontCenter),
		Rear:  newLens(rear, rearCenter),
	}

	vertices := make([]Vertex, 0, (rings+1)*(segments+1))
	indices := make([]uint32, 0, 6*rings*(segments+1))

	r := float64(radius)
	ringStep := math.Pi / float64(rings)
	segmentStep := 2 * math.Pi / float64(segments)
	stride := uint32(segments)

	var index uint32
	for ring := 0; ring <= rings; ring++ {
		theta := float64(ring) * ringStep
		r0 := r * math.Sin(theta)
		y0 := r * math.Cos(theta)

		// Azimuth is undefined on the poles; every lens sees them.
		pole := ring == 0 || ring == rings

		for seg := 0; seg <= segments; seg++ {
			phi := float64(seg) * segmentStep

			pos := pmath.Vec3{
				X: float32(r0 * math.Sin(phi)),
				Y: float32(y0),
				Z: float32(r0 * math.Cos(phi)),
			}

			vertices = append(vertices, Vertex{
				Position: pos.Array(),
				Normal:   pos.Normalize().Negate().Array(),
				UVFront:  lenses[Front].project(theta, phi, pole).Array(),
				UVRear:   lenses[Rear].project(theta, phi, pole).Array(),
			})

			// Two triangles towards the next ring, wound for a viewer inside.
			if ring != rings {
				indices = append(indices,
					index+stride+1, index+stride, index,
					index+1, index+stride+1, index,
				)
				index++
			}
		}
	}

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds: Bounds{
			Min: [3]float32{-radius, -radius, -radius},
			Max: [3]float32{radius, radius, radius},
		},
		Radius:   radius,
		Rings:    rings,
		Segments: segments,
	}, nil
}

// lens holds one camera's projection parameters in radians.
type lens struct {
	fov      float64
	cropHalf float64
	scale    float64
	center   float64
	debug    float64
}

func newLens(cfg LensConfig, center float64) lens {
	cropped := cfg.CroppedFOV
	if cropped == 0 {
		cropped = cfg.FOV
	}
	fov := radians(cfg.FOV)
	return lens{
		fov:      fov,
		cropHalf: radians(cropped) / 2,
		scale:    math.Pi / fov,
		center:   center,
		debug:    float64(cfg.DebugScale),
	}
}

// project maps a sphere direction (polar angle theta, azimuth phi) to this
// lens's texture coordinate using the equidistant fisheye approximation.
func (l lens) project(theta, phi float64, pole bool) pmath.Vec2 {
	vArg := (theta + l.fov/2 - math.Pi/2) * l.scale
	rho := math.Sin(vArg)

	offset := wrapAngle(phi - l.center)
	uArg := (offset + l.fov/2) * l.scale

	u := rho * math.Cos(uArg)
	v := math.Cos(vArg)

	// Move the disk into [0,1] and flip v so image row 0 is the top.
	uv := pmath.Vec2{
		X: float32(u*0.5*l.debug + 0.5),
		Y: float32(1 - (v*0.5*l.debug + 0.5)),
	}

	if !pole && math.Abs(offset) > l.cropHalf {
		return Mask(uv)
	}
	return uv
}

// Mask pushes a texture coordinate onto the circle of radius MaskRadius.
// The zero vector has no direction and maps to (MaskRadius, MaskRadius).
func Mask(uv pmath.Vec2) pmath.Vec2 {
	if uv.IsZero() {
		return pmath.Vec2{X: MaskRadius, Y: MaskRadius}
	}
	return uv.Normalize().Scale(MaskRadius)
}

// Masked reports whether uv lies outside the sampled image domain.
func Masked(uv [2]float32) bool {
	return uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1
}

// wrapAngle folds a into (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func radians(deg float32) float64 {
	return float64(deg) * math.Pi / 180
}

func validate(radius float32, rings, segments int, lenses ...LensConfig) error {
	if !(radius > 0) || math.IsInf(float64(radius), 0) {
		return &ConfigError{Field: "radius", Reason: "must be a positive finite number"}
	}
	if rings < 1 {
		return &ConfigError{Field: "rings", Reason: "must be at least 1"}
	}
	if segments < 1 {
		return &ConfigError{Field: "segments", Reason: "must be at least 1"}
	}
	for i, l := range lenses {
		slot := Slot(i).String()
		if !(l.FOV > 0 && l.FOV <= 360) {
			return &ConfigError{Field: slot + " fov", Reason: "must be in (0, 360] degrees"}
		}
		if !(l.CroppedFOV >= 0 && l.CroppedFOV <= 360) {
			return &ConfigError{Field: slot + " cropped fov", Reason: "must be in [0, 360] degrees"}
		}
		if math.IsNaN(float64(l.DebugScale)) || math.IsInf(float64(l.DebugScale), 0) {
			return &ConfigError{Field: slot + " debug scale", Reason: "must be finite"}
		}
	}
	return nil
}
