package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/frame"
	"github.com/Faultbox/dualfisheye/internal/imagefile"
)

// publisher is the part of source.Hub the caster needs.
type publisher interface {
	Publish(topic string, raw *frame.Raw) (int, error)
}

// feed cycles through the frames of one topic.
type feed struct {
	topic  string
	frames []*frame.Raw
	next   int
}

// loadFeed decodes every image under path, resized to width x height.
func loadFeed(topic, path string, width, height int) (*feed, error) {
	files, err := imagefile.List(path)
	if err != nil {
		return nil, err
	}
	f := &feed{topic: topic}
	for _, file := range files {
		img, err := imagefile.Load(file)
		if err != nil {
			return nil, err
		}
		f.frames = append(f.frames, frame.FromRGBA(imagefile.Resize(img, width, height)))
	}
	return f, nil
}

func (f *feed) advance() *frame.Raw {
	raw := f.frames[f.next]
	f.next = (f.next + 1) % len(f.frames)
	return raw
}

// caster publishes one frame per feed on every tick.
type caster struct {
	pub   publisher
	feeds []*feed
	log   *zap.Logger
}

func (c *caster) tick() {
	for _, f := range c.feeds {
		raw := f.advance()
		n, err := c.pub.Publish(f.topic, raw)
		if err != nil {
			c.log.Warn("publish failed", zap.String("topic", f.topic), zap.Error(err))
			continue
		}
		c.log.Debug("published",
			zap.String("topic", f.topic),
			zap.Int("subscribers", n),
			zap.Uint32("width", raw.Width),
			zap.Uint32("height", raw.Height),
		)
	}
}

// run ticks at rate frames per second until ctx is done.
func (c *caster) run(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("rate %v must be positive", rate)
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.tick()
		}
	}
}
