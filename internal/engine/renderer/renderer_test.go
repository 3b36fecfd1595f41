package renderer

import (
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/display"
	"github.com/Faultbox/dualfisheye/pkg/math"
)

func TestModelMatrixUpAxis(t *testing.T) {
	got := ModelMatrix().TransformDirection(math.Vec3{X: 0, Y: 1, Z: 0})
	want := math.Vec3{X: 0, Y: 0, Z: 1}
	if d := got.Sub(want).Length(); d > 1e-5 {
		t.Errorf("mesh up = %v, want %v", got, want)
	}
}

func TestBindUnitWithoutMaterial(t *testing.T) {
	r := &Renderer{}
	if err := r.BindUnit(0); err != ErrNoMaterial {
		t.Errorf("err = %v, want ErrNoMaterial", err)
	}
}

func TestUploadUnbound(t *testing.T) {
	r := &Renderer{}
	if err := r.Upload(1, nil); err == nil {
		t.Error("upload to unbound unit accepted")
	}
}

func TestAspect(t *testing.T) {
	r := &Renderer{config: Config{Width: 1280, Height: 720}}
	if got := r.Aspect(); got < 1.77 || got > 1.78 {
		t.Errorf("aspect = %v", got)
	}
	if got := (&Renderer{}).Aspect(); got != 1 {
		t.Errorf("zero-height aspect = %v", got)
	}
}

func TestAttachNeedsKnownFrame(t *testing.T) {
	r := &Renderer{
		log:    zap.NewNop(),
		frames: map[string]math.Mat4{FixedFrame: math.Identity()},
		meshes: map[display.MeshHandle]*gpuMesh{1: {}},
	}

	if err := r.Attach(1, "camera_link"); err == nil {
		t.Fatal("attach to unregistered frame accepted")
	}
	if err := r.Attach(2, FixedFrame); err == nil {
		t.Error("attach of unknown mesh accepted")
	}

	r.SetFrame("camera_link", math.Identity())
	if err := r.Attach(1, "camera_link"); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if gm := r.meshes[1]; !gm.attached || gm.frame != "camera_link" {
		t.Errorf("mesh = %+v, want attached to camera_link", gm)
	}

	r.renderQueued = false
	r.Detach(1)
	if r.meshes[1].attached {
		t.Error("mesh still attached")
	}
	if !r.RenderQueued() {
		t.Error("detach did not queue a render")
	}
}
