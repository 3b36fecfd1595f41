// Package renderer draws the textured sphere with OpenGL 4.1.
package renderer

import (
	"errors"
	"fmt"
	"image"
	gomath "math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/display"
	"github.com/Faultbox/dualfisheye/internal/engine/shader"
	"github.com/Faultbox/dualfisheye/internal/sphere"
	"github.com/Faultbox/dualfisheye/pkg/math"
)

// FixedFrame is the scene root every other frame hangs from.
const FixedFrame = "<Fixed Frame>"

// ErrNoMaterial is returned when textures are bound before the material exists.
var ErrNoMaterial = errors.New("sphere material not created")

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// ClearColor is the background outside both lenses.
	ClearColor [3]float32
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32

	frame    string
	attached bool
	dirty    bool
}

// Renderer owns the sphere material, the camera textures and every mesh
// created through it. All methods must run on the thread that owns the GL
// context.
type Renderer struct {
	config Config
	log    *zap.Logger

	program  *shader.Program
	textures [sphere.SlotCount]uint32
	hasImage [sphere.SlotCount]bool

	frames map[string]math.Mat4
	meshes map[display.MeshHandle]*gpuMesh
	next   display.MeshHandle

	renderQueued bool
}

// New initializes OpenGL and creates the sphere material.
// Must be called after the GL context is current.
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)
	gl.ClearColor(cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	program, err := shader.Compile(shader.SphereVertex, shader.SphereFragment)
	if err != nil {
		return nil, fmt.Errorf("sphere material: %w", err)
	}

	r := &Renderer{
		config:  cfg,
		log:     log,
		program: program,
		frames:  map[string]math.Mat4{FixedFrame: math.Identity()},
		meshes:  make(map[display.MeshHandle]*gpuMesh),
	}

	program.Use()
	gl.Uniform1i(program.Uniform("uFront"), int32(sphere.Front.Unit()))
	gl.Uniform1i(program.Uniform("uRear"), int32(sphere.Rear.Unit()))
	gl.Uniform1i(program.Uniform("uHasFront"), 0)
	gl.Uniform1i(program.Uniform("uHasRear"), 0)
	gl.UseProgram(0)

	log.Debug("sphere material created", zap.Uint32("program", program.ID))
	return r, nil
}

// Close releases every GL object owned by the renderer.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for h := range r.meshes {
		r.DestroyMesh(h)
	}
	for i := range r.textures {
		if r.textures[i] != 0 {
			gl.DeleteTextures(1, &r.textures[i])
			r.textures[i] = 0
		}
	}
	if r.program != nil {
		r.program.Delete()
		r.program = nil
	}
}

// SetFrame registers or moves a named frame relative to the fixed frame.
func (r *Renderer) SetFrame(name string, transform math.Mat4) {
	r.frames[name] = transform
	for _, m := range r.meshes {
		if m.attached && m.frame == name {
			m.dirty = true
		}
	}
	r.renderQueued = true
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.renderQueued = true
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// BindUnit creates the texture object of a material texture unit.
func (r *Renderer) BindUnit(unit int) error {
	if r.program == nil {
		return ErrNoMaterial
	}
	if unit < 0 || unit >= len(r.textures) {
		return fmt.Errorf("material has no texture unit %d", unit)
	}
	if r.textures[unit] != 0 {
		return nil
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{0, 0, 0, 0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.ActiveTexture(gl.TEXTURE0)

	r.textures[unit] = id
	return nil
}

// Upload replaces the image of a bound texture unit.
func (r *Renderer) Upload(unit int, img *image.RGBA) error {
	if unit < 0 || unit >= len(r.textures) || r.textures[unit] == 0 {
		return fmt.Errorf("texture unit %d is not bound", unit)
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("empty image for texture unit %d", unit)
	}

	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, r.textures[unit])
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[img.PixOffset(b.Min.X, b.Min.Y)]))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.ActiveTexture(gl.TEXTURE0)

	r.hasImage[unit] = true
	return nil
}

// CreateMesh uploads a sphere mesh and returns its handle.
func (r *Renderer) CreateMesh(m *sphere.Mesh) (display.MeshHandle, error) {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return 0, errors.New("empty mesh")
	}

	gm := &gpuMesh{indexCount: int32(len(m.Indices))}
	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	vertexSize := int(unsafe.Sizeof(sphere.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*vertexSize, unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)
	// Front UV
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)
	// Rear UV
	gl.VertexAttribPointerWithOffset(3, 2, gl.FLOAT, false, int32(vertexSize), 8*4)
	gl.EnableVertexAttribArray(3)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	r.next++
	r.meshes[r.next] = gm
	r.log.Debug("mesh uploaded",
		zap.Uint64("handle", uint64(r.next)),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int32("indices", gm.indexCount),
	)
	return r.next, nil
}

// DestroyMesh releases a mesh. Unknown handles are ignored.
func (r *Renderer) DestroyMesh(h display.MeshHandle) {
	gm, ok := r.meshes[h]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(1, &gm.vbo)
	gl.DeleteBuffers(1, &gm.ebo)
	delete(r.meshes, h)
	r.renderQueued = true
}

// Attach places a mesh under a known frame.
func (r *Renderer) Attach(h display.MeshHandle, referenceFrame string) error {
	gm, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("unknown mesh %d", h)
	}
	if _, ok := r.frames[referenceFrame]; !ok {
		return fmt.Errorf("unknown frame %q", referenceFrame)
	}
	gm.frame = referenceFrame
	gm.attached = true
	gm.dirty = true
	return nil
}

// Detach removes a mesh from the scene without releasing it.
func (r *Renderer) Detach(h display.MeshHandle) {
	if gm, ok := r.meshes[h]; ok {
		gm.attached = false
		r.renderQueued = true
	}
}

// MarkDirty flags an attached mesh for redraw.
func (r *Renderer) MarkDirty(h display.MeshHandle) {
	if gm, ok := r.meshes[h]; ok && gm.attached {
		gm.dirty = true
	}
}

// RequestRender queues a render pass.
func (r *Renderer) RequestRender() {
	r.renderQueued = true
}

// RenderQueued reports whether a render pass has been requested since the
// last Draw.
func (r *Renderer) RenderQueued() bool {
	return r.renderQueued
}

// ModelMatrix rotates the mesh's Y-up frame into the Z-up display frame:
// +90 degrees about X, then -90 degrees about Y.
func ModelMatrix() math.Mat4 {
	return math.RotateX(gomath.Pi / 2).Mul(math.RotateY(-gomath.Pi / 2))
}

// Draw renders every attached mesh with the given view-projection matrix.
func (r *Renderer) Draw(viewProj math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.renderQueued = false
	if r.program == nil {
		return
	}

	r.program.Use()
	gl.UniformMatrix4fv(r.program.Uniform("uViewProj"), 1, false, viewProj.Ptr())
	gl.Uniform1i(r.program.Uniform("uHasFront"), boolInt(r.hasImage[sphere.Front]))
	gl.Uniform1i(r.program.Uniform("uHasRear"), boolInt(r.hasImage[sphere.Rear]))

	for _, slot := range sphere.Slots {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(slot.Unit()))
		gl.BindTexture(gl.TEXTURE_2D, r.textures[slot])
	}

	orientation := ModelMatrix()
	for _, gm := range r.meshes {
		if !gm.attached {
			continue
		}
		model := r.frames[gm.frame].Mul(orientation)
		gl.UniformMatrix4fv(r.program.Uniform("uModel"), 1, false, model.Ptr())
		gl.BindVertexArray(gm.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, 0)
		gm.dirty = false
	}

	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.UseProgram(0)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// ReadPixels reads the current framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}
