// Package app runs the interactive sphere viewer: window, render loop and
// keyboard tuning of the display.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/config"
	"github.com/Faultbox/dualfisheye/internal/display"
	"github.com/Faultbox/dualfisheye/internal/engine/camera"
	"github.com/Faultbox/dualfisheye/internal/engine/debug"
	"github.com/Faultbox/dualfisheye/internal/engine/input"
	"github.com/Faultbox/dualfisheye/internal/engine/renderer"
	"github.com/Faultbox/dualfisheye/internal/engine/window"
	"github.com/Faultbox/dualfisheye/internal/source"
	"github.com/Faultbox/dualfisheye/internal/sphere"
	"github.com/Faultbox/dualfisheye/internal/texture"
	"github.com/Faultbox/dualfisheye/pkg/math"
)

const windowTitle = "Dual Fisheye Viewer"

// Viewer owns the window, the GL renderer and one display controller.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	window      *window.Window
	renderer    *renderer.Renderer
	input       *input.Input
	camera      *camera.LookCamera
	controller  *display.Controller
	screenshots *debug.Screenshots

	running bool
}

// New opens the window, creates the renderer and subscribes the display to
// the configured frame source.
func New(cfg *config.Config, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Viewer{
		cfg:         cfg,
		log:         log,
		input:       input.New(),
		camera:      camera.NewLookCamera(),
		screenshots: debug.NewScreenshots("screenshots", "sphere"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	width, height := v.window.Size()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: [3]float32{0.05, 0.05, 0.08},
	}, log.Named("renderer"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	// Standalone viewer: the configured reference frame coincides with the
	// fixed frame.
	if ref := cfg.Display.ReferenceFrame; ref != renderer.FixedFrame {
		v.renderer.SetFrame(ref, math.Identity())
	}

	src, err := source.NewWSSource(cfg.Source.URL, cfg.Source.DialTimeout, log.Named("source"))
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("frame source: %w", err)
	}

	v.controller = display.New(v.renderer, src, cfg.DisplaySettings(), log.Named("display"))
	if err := v.controller.Initialize(); err != nil {
		v.Close()
		return nil, fmt.Errorf("initialize display: %w", err)
	}
	v.controller.Enable()
	v.updateTitle()

	return v, nil
}

// Run drives the render loop until the window closes.
func (v *Viewer) Run() error {
	v.running = true

	frames := 0
	fpsTimer := time.Now()
	v.log.Info("starting render loop")

	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}
		moved := v.handleInput()

		if err := v.controller.Handle(display.RenderTick{}); err != nil {
			v.logTickError(err)
		}

		if !v.renderer.RenderQueued() && !moved {
			sdl.Delay(2)
			continue
		}
		v.renderer.Draw(v.camera.ViewProj(v.renderer.Aspect()))
		v.window.SwapBuffers()

		frames++
		if elapsed := time.Since(fpsTimer); elapsed >= time.Second {
			v.logFPS(float64(frames) / elapsed.Seconds())
			frames = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// Close releases the display, renderer and window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	if v.controller != nil {
		v.controller.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// handleInput applies this frame's events and reports whether the view moved.
func (v *Viewer) handleInput() bool {
	moved := false
	for _, ev := range v.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			w, h := v.window.Size()
			v.renderer.Resize(w, h)
			moved = true
		case input.EventMouseMove:
			if v.input.Dragging() {
				v.camera.HandleDrag(float32(ev.DeltaX), float32(ev.DeltaY))
				moved = true
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(ev.DeltaY))
			moved = true
		case input.EventKeyDown:
			if v.handleKey(ev) {
				moved = true
			}
		}
	}
	return moved
}

func (v *Viewer) handleKey(ev input.Event) bool {
	switch ev.Key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
		return false
	case sdl.SCANCODE_HOME:
		v.camera.Reset()
		return true
	case sdl.SCANCODE_B:
		v.camera.LookBehind()
		return true
	case sdl.SCANCODE_F11:
		if err := v.window.ToggleFullscreen(); err != nil {
			v.log.Warn("fullscreen toggle failed", zap.Error(err))
		}
		return true
	case sdl.SCANCODE_F5:
		v.saveSettings()
		return false
	case sdl.SCANCODE_F12:
		v.screenshot()
		return false
	}

	edit, ok := tuneKey(ev.Key, ev.Shift, v.controller.Settings())
	if !ok {
		return false
	}
	if err := v.controller.Handle(edit); err != nil {
		v.log.Warn("display edit rejected", zap.Stringer("field", edit.Field), zap.Error(err))
	}
	v.updateTitle()
	return true
}

func (v *Viewer) updateTitle() {
	s := v.controller.Settings()
	v.window.SetTitle(fmt.Sprintf("%s - front %.0f° rear %.0f° debug %.2f",
		windowTitle, s.Front.FOV, s.Rear.FOV, s.Front.DebugScale))
}

func (v *Viewer) saveSettings() {
	v.cfg.StoreDisplay(v.controller.Settings())
	if err := v.cfg.Save(); err != nil {
		v.log.Error("saving config failed", zap.Error(err))
		return
	}
	v.log.Info("config saved", zap.String("dir", config.ConfigDir()))
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	img, err := debug.FromFramebuffer(pixels, w, h)
	if err == nil {
		var path string
		path, err = v.screenshots.Save(img)
		if err == nil {
			v.log.Info("screenshot saved", zap.String("path", path))
			return
		}
	}
	v.log.Error("screenshot failed", zap.Error(err))
}

// logTickError logs refresh failures. The stage reports a binding error
// only once per slot.
func (v *Viewer) logTickError(err error) {
	var bindErr *texture.BindingError
	if errors.As(err, &bindErr) {
		v.log.Error("texture refresh failed", zap.Error(err))
		return
	}
	v.log.Warn("texture refresh failed", zap.Error(err))
}

func (v *Viewer) logFPS(fps float64) {
	stage := v.controller.Stage()
	fields := []zap.Field{zap.Float64("fps", fps)}
	for _, slot := range sphere.Slots {
		st := stage.Stats(slot)
		fields = append(fields, zap.Dict(slot.String(),
			zap.Uint64("displayed", st.Displayed),
			zap.Uint64("replaced", st.Replaced),
			zap.Uint64("failed", st.Failed),
		))
	}
	v.log.Debug("frame stats", fields...)
}
