package texture

import (
	"image"
	"sync"
)

// mailbox is a one-element channel with overwrite-on-full semantics: the
// newest decoded image replaces an undisplayed older one.
type mailbox struct {
	mu sync.Mutex // serializes producers so drain+send is atomic
	ch chan *image.RGBA
}

func newMailbox() *mailbox {
	return &mailbox{ch: make(chan *image.RGBA, 1)}
}

// put stores img and reports whether an undisplayed image was discarded.
// It never blocks.
func (m *mailbox) put(img *image.RGBA) (replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
		replaced = true
	default:
	}
	// The consumer only removes, so the buffer has room here.
	m.ch <- img
	return replaced
}

// take removes the pending image, if any.
func (m *mailbox) take() (*image.RGBA, bool) {
	select {
	case img := <-m.ch:
		return img, true
	default:
		return nil, false
	}
}

func (m *mailbox) pending() bool {
	return len(m.ch) > 0
}
