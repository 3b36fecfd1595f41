// Package texture keeps the latest decoded camera image per slot and pushes
// it to the renderer once per render tick.
package texture

import (
	"fmt"
	"image"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/frame"
	"github.com/Faultbox/dualfisheye/internal/sphere"
)

// Uploader is the renderer side of the stage.
type Uploader interface {
	// BindUnit attaches a texture object to the material's texture unit.
	// It fails while the material or its texture unit does not exist.
	BindUnit(unit int) error
	// Upload replaces the image of a bound texture unit.
	Upload(unit int, img *image.RGBA) error
}

// BindingError reports that a slot's texture unit could not be bound.
type BindingError struct {
	Slot sphere.Slot
	Err  error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("bind %s texture unit %d: %v", e.Slot, e.Slot.Unit(), e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// Stats counts frames through one slot.
type Stats struct {
	Submitted uint64
	Replaced  uint64
	Displayed uint64
	Dropped   uint64
	Failed    uint64
}

type slotState struct {
	box *mailbox

	submitted atomic.Uint64
	replaced  atomic.Uint64
	displayed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	// Render thread only.
	bound        bool
	bindReported bool
	shown        *image.RGBA
}

// Stage owns one texture per camera slot.
//
// Submit may be called from any goroutine; Refresh, Shown and the binding
// state belong to the render thread.
type Stage struct {
	uploader Uploader
	log      *zap.Logger
	slots    [sphere.SlotCount]*slotState
}

// NewStage creates a texture stage that uploads through u.
func NewStage(u Uploader, log *zap.Logger) *Stage {
	if log == nil {
		log = zap.NewNop()
	}
	st := &Stage{uploader: u, log: log}
	for i := range st.slots {
		st.slots[i] = &slotState{box: newMailbox()}
	}
	return st
}

func (st *Stage) slot(s sphere.Slot) (*slotState, error) {
	if s < 0 || int(s) >= len(st.slots) {
		return nil, fmt.Errorf("unknown camera slot %d", int(s))
	}
	return st.slots[s], nil
}

// Submit decodes raw and makes it the slot's pending image, discarding any
// older image that has not been displayed yet. A decode failure leaves the
// pending and displayed images untouched.
func (st *Stage) Submit(s sphere.Slot, raw *frame.Raw) error {
	ss, err := st.slot(s)
	if err != nil {
		return err
	}

	img, err := frame.Decode(raw)
	if err != nil {
		ss.failed.Add(1)
		return err
	}

	ss.submitted.Add(1)
	if ss.box.put(img) {
		ss.replaced.Add(1)
		st.log.Debug("replaced undisplayed frame", zap.Stringer("slot", s))
	}
	return nil
}

// Refresh pushes the slot's pending image to the renderer. It is a no-op if
// nothing is pending.
//
// The texture unit is bound on the first refresh. A bind failure is returned
// once as a *BindingError; later frames for the slot are dropped silently
// and binding is retried until it succeeds.
func (st *Stage) Refresh(s sphere.Slot) error {
	ss, err := st.slot(s)
	if err != nil {
		return err
	}

	img, ok := ss.box.take()
	if !ok {
		return nil
	}

	if !ss.bound {
		if err := st.uploader.BindUnit(s.Unit()); err != nil {
			ss.dropped.Add(1)
			if ss.bindReported {
				return nil
			}
			ss.bindReported = true
			return &BindingError{Slot: s, Err: err}
		}
		ss.bound = true
		st.log.Info("bound camera texture",
			zap.Stringer("slot", s),
			zap.Int("unit", s.Unit()),
		)
	}

	if err := st.uploader.Upload(s.Unit(), img); err != nil {
		ss.dropped.Add(1)
		return fmt.Errorf("upload %s texture: %w", s, err)
	}
	ss.shown = img
	ss.displayed.Add(1)
	return nil
}

// Pending reports whether the slot has an image waiting for Refresh.
func (st *Stage) Pending(s sphere.Slot) bool {
	ss, err := st.slot(s)
	if err != nil {
		return false
	}
	return ss.box.pending()
}

// Shown returns the image last pushed to the renderer for the slot.
func (st *Stage) Shown(s sphere.Slot) *image.RGBA {
	ss, err := st.slot(s)
	if err != nil {
		return nil
	}
	return ss.shown
}

// Bound reports whether the slot's texture unit has been bound.
func (st *Stage) Bound(s sphere.Slot) bool {
	ss, err := st.slot(s)
	if err != nil {
		return false
	}
	return ss.bound
}

// Stats returns the frame counters of a slot.
func (st *Stage) Stats(s sphere.Slot) Stats {
	ss, err := st.slot(s)
	if err != nil {
		return Stats{}
	}
	return Stats{
		Submitted: ss.submitted.Load(),
		Replaced:  ss.replaced.Load(),
		Displayed: ss.displayed.Load(),
		Dropped:   ss.dropped.Load(),
		Failed:    ss.failed.Load(),
	}
}
