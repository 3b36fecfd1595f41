package texture

import (
	"errors"
	"image"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/dualfisheye/internal/frame"
	"github.com/Faultbox/dualfisheye/internal/sphere"
)

type fakeUploader struct {
	mu        sync.Mutex
	bindErr   error
	bindCalls map[int]int
	uploads   map[int][]*image.RGBA
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		bindCalls: make(map[int]int),
		uploads:   make(map[int][]*image.RGBA),
	}
}

func (f *fakeUploader) BindUnit(unit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindCalls[unit]++
	return f.bindErr
}

func (f *fakeUploader) Upload(unit int, img *image.RGBA) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[unit] = append(f.uploads[unit], img)
	return nil
}

// grayFrame returns a 1x1 mono8 frame whose decoded red channel is v.
func grayFrame(v byte) *frame.Raw {
	return &frame.Raw{Width: 1, Height: 1, Encoding: frame.Mono8, Data: []byte{v}}
}

func badFrame() *frame.Raw {
	return &frame.Raw{Width: 1, Height: 1, Encoding: "bayer_rggb8", Data: []byte{0}}
}

func TestRefreshNoopWithoutFrame(t *testing.T) {
	up := newFakeUploader()
	st := NewStage(up, zaptest.NewLogger(t))

	if err := st.Refresh(sphere.Front); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if up.bindCalls[0] != 0 || len(up.uploads[0]) != 0 {
		t.Error("expected no renderer calls without a pending frame")
	}
	if st.Shown(sphere.Front) != nil {
		t.Error("expected nothing shown")
	}
}

func TestSubmitDropsOldest(t *testing.T) {
	up := newFakeUploader()
	st := NewStage(up, zaptest.NewLogger(t))

	if err := st.Submit(sphere.Front, grayFrame(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := st.Submit(sphere.Front, grayFrame(2)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !st.Pending(sphere.Front) {
		t.Fatal("expected a pending frame")
	}

	if err := st.Refresh(sphere.Front); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if st.Pending(sphere.Front) {
		t.Error("pending should be cleared after refresh")
	}

	uploads := up.uploads[sphere.Front.Unit()]
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	if got := uploads[0].Pix[0]; got != 2 {
		t.Errorf("uploaded frame value %d, want the newest (2)", got)
	}
	if st.Shown(sphere.Front) != uploads[0] {
		t.Error("Shown should return the uploaded image")
	}

	stats := st.Stats(sphere.Front)
	if stats.Submitted != 2 || stats.Replaced != 1 || stats.Displayed != 1 {
		t.Errorf("stats = %+v, want 2 submitted, 1 replaced, 1 displayed", stats)
	}

	// A second refresh without new frames does nothing.
	if err := st.Refresh(sphere.Front); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(up.uploads[sphere.Front.Unit()]) != 1 {
		t.Error("refresh without a pending frame uploaded again")
	}
}

func TestDecodeFailureKeepsLastGoodFrame(t *testing.T) {
	up := newFakeUploader()
	st := NewStage(up, zaptest.NewLogger(t))

	for _, s := range sphere.Slots {
		if err := st.Submit(s, grayFrame(byte(10+s))); err != nil {
			t.Fatalf("Submit %s: %v", s, err)
		}
		if err := st.Refresh(s); err != nil {
			t.Fatalf("Refresh %s: %v", s, err)
		}
	}
	frontShown := st.Shown(sphere.Front)
	rearShown := st.Shown(sphere.Rear)

	err := st.Submit(sphere.Front, badFrame())
	var decErr *frame.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if st.Pending(sphere.Front) {
		t.Error("failed decode must not leave a pending frame")
	}

	for _, s := range sphere.Slots {
		if err := st.Refresh(s); err != nil {
			t.Fatalf("Refresh %s: %v", s, err)
		}
	}
	if st.Shown(sphere.Front) != frontShown {
		t.Error("front display changed after a decode failure")
	}
	if st.Shown(sphere.Rear) != rearShown {
		t.Error("rear display changed after a front decode failure")
	}
	if st.Stats(sphere.Front).Failed != 1 {
		t.Errorf("front failed count = %d, want 1", st.Stats(sphere.Front).Failed)
	}
}

func TestDecodeFailureKeepsPendingFrame(t *testing.T) {
	up := newFakeUploader()
	st := NewStage(up, zaptest.NewLogger(t))

	if err := st.Submit(sphere.Rear, grayFrame(5)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := st.Submit(sphere.Rear, badFrame()); err == nil {
		t.Fatal("expected decode error")
	}
	if err := st.Refresh(sphere.Rear); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := st.Shown(sphere.Rear).Pix[0]; got != 5 {
		t.Errorf("shown value %d, want 5", got)
	}
}

func TestBindingErrorReportedOnce(t *testing.T) {
	up := newFakeUploader()
	up.bindErr = errors.New("texture unit 1 not found")
	st := NewStage(up, zaptest.NewLogger(t))

	if err := st.Submit(sphere.Rear, grayFrame(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	err := st.Refresh(sphere.Rear)
	var bindErr *BindingError
	if !errors.As(err, &bindErr) {
		t.Fatalf("expected BindingError, got %v", err)
	}
	if bindErr.Slot != sphere.Rear {
		t.Errorf("BindingError.Slot = %s, want rear", bindErr.Slot)
	}

	// Later frames are dropped without another report.
	if err := st.Submit(sphere.Rear, grayFrame(2)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := st.Refresh(sphere.Rear); err != nil {
		t.Errorf("second bind failure should be silent, got %v", err)
	}
	if st.Bound(sphere.Rear) || st.Shown(sphere.Rear) != nil {
		t.Error("nothing should be bound or shown while binding fails")
	}
	if got := st.Stats(sphere.Rear).Dropped; got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	// Once the resource exists the next frame goes through.
	up.mu.Lock()
	up.bindErr = nil
	up.mu.Unlock()
	if err := st.Submit(sphere.Rear, grayFrame(3)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := st.Refresh(sphere.Rear); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !st.Bound(sphere.Rear) {
		t.Error("expected slot to be bound")
	}
	if got := st.Shown(sphere.Rear).Pix[0]; got != 3 {
		t.Errorf("shown value %d, want 3", got)
	}
}

func TestBindOnlyOnce(t *testing.T) {
	up := newFakeUploader()
	st := NewStage(up, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		if err := st.Submit(sphere.Front, grayFrame(byte(i))); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if err := st.Refresh(sphere.Front); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	if got := up.bindCalls[sphere.Front.Unit()]; got != 1 {
		t.Errorf("BindUnit called %d times, want 1", got)
	}
	if got := up.bindCalls[sphere.Rear.Unit()]; got != 0 {
		t.Errorf("rear unit bound %d times without frames", got)
	}
}

func TestUnknownSlot(t *testing.T) {
	st := NewStage(newFakeUploader(), nil)
	if err := st.Submit(sphere.Slot(7), grayFrame(1)); err == nil {
		t.Error("expected error for unknown slot")
	}
	if err := st.Refresh(sphere.Slot(-1)); err == nil {
		t.Error("expected error for unknown slot")
	}
}

// TestConcurrentSubmitRefresh exercises the producer/consumer handoff: each
// displayed frame must be complete and never older than the previous one.
func TestConcurrentSubmitRefresh(t *testing.T) {
	up := newFakeUploader()
	st := NewStage(up, nil)

	const frames = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < frames; i++ {
			v := byte(i * 255 / (frames - 1))
			raw := &frame.Raw{Width: 2, Height: 1, Encoding: frame.Mono8, Data: []byte{v, v}}
			if err := st.Submit(sphere.Front, raw); err != nil {
				t.Errorf("Submit: %v", err)
				return
			}
		}
	}()

	var last byte
	check := func() {
		if err := st.Refresh(sphere.Front); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		img := st.Shown(sphere.Front)
		if img == nil {
			return
		}
		if img.Pix[0] != img.Pix[4] {
			t.Fatalf("torn frame: %v", img.Pix)
		}
		if img.Pix[0] < last {
			t.Fatalf("frame went backwards: %d after %d", img.Pix[0], last)
		}
		last = img.Pix[0]
	}

loop:
	for {
		select {
		case <-done:
			break loop
		default:
			check()
		}
	}
	check()

	if last != 255 {
		t.Errorf("last displayed value %d, want the final frame (255)", last)
	}
}
