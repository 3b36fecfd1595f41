// Package display ties the sphere mesh, the camera textures and the frame
// source together and keeps the renderer's view of them current.
package display

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/frame"
	"github.com/Faultbox/dualfisheye/internal/source"
	"github.com/Faultbox/dualfisheye/internal/sphere"
	"github.com/Faultbox/dualfisheye/internal/texture"
)

// MeshHandle identifies a mesh owned by the renderer.
type MeshHandle uint64

// Renderer is the rendering collaborator. The controller only holds
// handles; the renderer owns the GPU objects behind them.
type Renderer interface {
	texture.Uploader

	// CreateMesh uploads a mesh with the layout position(3), normal(3),
	// uv0(2), uv1(2) and returns its handle.
	CreateMesh(m *sphere.Mesh) (MeshHandle, error)
	DestroyMesh(h MeshHandle)

	// Attach adds the mesh's scene node under referenceFrame.
	Attach(h MeshHandle, referenceFrame string) error
	Detach(h MeshHandle)

	// MarkDirty flags the mesh's node for redraw.
	MarkDirty(h MeshHandle)
	// RequestRender queues a render pass.
	RequestRender()
}

// Controller reacts to configuration edits, frame arrivals and render ticks.
//
// ConfigChanged, RenderTick, Initialize, Enable, Disable and Close must be
// called from the render thread. FrameArrived and SourceError may be handled
// from any goroutine; they only touch the texture stage and the status board.
// No method waits on the frame source's network.
type Controller struct {
	renderer Renderer
	source   source.FrameSource
	stage    *texture.Stage
	status   *StatusBoard
	log      *zap.Logger

	settings Settings
	mesh     MeshHandle
	hasMesh  bool
	enabled  bool
	subs     [sphere.SlotCount]source.Subscription
}

// New creates a controller. Call Initialize before the first tick.
func New(r Renderer, src source.FrameSource, settings Settings, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		renderer: r,
		source:   src,
		stage:    texture.NewStage(r, log.Named("texture")),
		status:   NewStatusBoard(log.Named("status")),
		log:      log,
		settings: settings,
	}
}

// Settings returns the current settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Status returns the controller's status board.
func (c *Controller) Status() *StatusBoard {
	return c.status
}

// Stage returns the texture stage.
func (c *Controller) Stage() *texture.Stage {
	return c.stage
}

// Mesh returns the handle of the attached mesh.
func (c *Controller) Mesh() (MeshHandle, bool) {
	return c.mesh, c.hasMesh
}

// Enabled reports whether the controller is subscribed to its topics.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// Initialize builds and attaches the first mesh.
func (c *Controller) Initialize() error {
	return c.rebuild()
}

// Handle dispatches one event.
func (c *Controller) Handle(ev Event) error {
	switch e := ev.(type) {
	case ConfigChanged:
		return c.onConfigChanged(e)
	case FrameArrived:
		return c.onFrame(e.Slot, e.Frame)
	case SourceError:
		return c.onSourceError(e.Slot, e.Err)
	case RenderTick:
		return c.onRenderTick()
	default:
		return fmt.Errorf("unknown display event %T", ev)
	}
}

// Enable subscribes to the configured front and rear topics.
func (c *Controller) Enable() {
	if c.enabled {
		return
	}
	c.enabled = true
	for _, slot := range sphere.Slots {
		c.subscribe(slot)
	}
}

// Disable drops both subscriptions. Frames already delivered stay pending.
func (c *Controller) Disable() {
	for _, slot := range sphere.Slots {
		c.unsubscribe(slot)
	}
	c.enabled = false
}

// Close disables the controller and releases the mesh.
func (c *Controller) Close() {
	c.Disable()
	if c.hasMesh {
		c.renderer.Detach(c.mesh)
		c.renderer.DestroyMesh(c.mesh)
		c.hasMesh = false
	}
}

func (c *Controller) onConfigChanged(ev ConfigChanged) error {
	c.log.Debug("config changed",
		zap.Stringer("field", ev.Field),
		zap.Float32("number", ev.Number),
		zap.String("text", ev.Text),
	)

	if slot, ok := ev.Field.topicSlot(); ok {
		c.settings.apply(ev)
		if c.enabled {
			c.unsubscribe(slot)
			return c.subscribe(slot)
		}
		return nil
	}

	if !c.settings.apply(ev) {
		return fmt.Errorf("unknown config field %s", ev.Field)
	}
	return c.rebuild()
}

// rebuild replaces the attached mesh with one built from the current
// settings. The new mesh is attached before the old one is released, so any
// failure leaves the previous mesh displayed.
func (c *Controller) rebuild() error {
	s := c.settings
	mesh, err := sphere.Build(s.Radius, s.Rings, s.Segments, s.Front, s.Rear)
	if err != nil {
		c.status.Set(StatusMesh, LevelError, err.Error())
		return err
	}

	handle, err := c.renderer.CreateMesh(mesh)
	if err != nil {
		err = fmt.Errorf("create mesh: %w", err)
		c.status.Set(StatusMesh, LevelError, err.Error())
		return err
	}

	if err := c.renderer.Attach(handle, s.ReferenceFrame); err != nil {
		c.renderer.DestroyMesh(handle)
		err = fmt.Errorf("attach mesh to %q: %w", s.ReferenceFrame, err)
		c.status.Set(StatusMesh, LevelError, err.Error())
		return err
	}

	if c.hasMesh {
		c.renderer.Detach(c.mesh)
		c.renderer.DestroyMesh(c.mesh)
	}
	c.mesh = handle
	c.hasMesh = true

	c.log.Debug("sphere rebuilt",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("indices", len(mesh.Indices)),
		zap.Float32("fov_front", s.Front.FOV),
		zap.Float32("fov_rear", s.Rear.FOV),
		zap.Float32("debug_scale", s.Front.DebugScale),
	)
	c.status.Set(StatusMesh, LevelOK, fmt.Sprintf("%d vertices", len(mesh.Vertices)))
	c.renderer.RequestRender()
	return nil
}

func (c *Controller) subscribe(slot sphere.Slot) error {
	topic := c.settings.Topic(slot)
	if topic == "" {
		c.status.Clear(slotStatus(slot))
		return nil
	}

	// The subscription may report a failure before Subscribe returns.
	c.status.Set(slotStatus(slot), LevelOK, "OK")
	sub, err := c.source.Subscribe(topic,
		func(raw *frame.Raw) {
			_ = c.Handle(FrameArrived{Slot: slot, Frame: raw})
		},
		func(err error) {
			_ = c.Handle(SourceError{Slot: slot, Err: err})
		},
	)
	if err != nil {
		c.status.Set(slotStatus(slot), LevelError, "Error subscribing: "+err.Error())
		var subErr *source.SubscriptionError
		if !errors.As(err, &subErr) {
			err = &source.SubscriptionError{Topic: topic, Err: err}
		}
		return err
	}
	c.subs[slot] = sub
	return nil
}

func (c *Controller) unsubscribe(slot sphere.Slot) {
	sub := c.subs[slot]
	if sub == nil {
		return
	}
	c.subs[slot] = nil
	if err := sub.Close(); err != nil {
		c.log.Warn("unsubscribe failed",
			zap.Stringer("slot", slot),
			zap.String("topic", sub.Topic()),
			zap.Error(err),
		)
	}
}

func (c *Controller) onFrame(slot sphere.Slot, raw *frame.Raw) error {
	if err := c.stage.Submit(slot, raw); err != nil {
		c.status.Set(slotStatus(slot), LevelError, err.Error())
		return err
	}
	return nil
}

// onSourceError shows a subscription failure on the slot. The slot stays
// without frames until its topic is edited or the display re-enabled.
func (c *Controller) onSourceError(slot sphere.Slot, err error) error {
	if err == nil {
		return nil
	}
	var subErr *source.SubscriptionError
	if errors.As(err, &subErr) {
		c.status.Set(slotStatus(slot), LevelError, "Error subscribing: "+err.Error())
	} else {
		c.status.Set(slotStatus(slot), LevelError, err.Error())
	}
	return err
}

// onRenderTick uploads pending frames. A render pass is requested only when
// a new frame reached a texture.
func (c *Controller) onRenderTick() error {
	var errs []error
	shown := false
	for _, slot := range sphere.Slots {
		before := c.stage.Stats(slot).Displayed
		if err := c.stage.Refresh(slot); err != nil {
			c.status.Set(slotStatus(slot), LevelError, err.Error())
			errs = append(errs, err)
			continue
		}
		if c.stage.Stats(slot).Displayed > before {
			c.status.Set(slotStatus(slot), LevelOK, "OK")
			shown = true
		}
	}

	if shown {
		if c.hasMesh {
			c.renderer.MarkDirty(c.mesh)
		}
		c.renderer.RequestRender()
	}
	return errors.Join(errs...)
}
