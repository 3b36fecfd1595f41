// Package source delivers camera frames by topic over WebSocket.
package source

import (
	"errors"
	"fmt"

	"github.com/Faultbox/dualfisheye/internal/frame"
)

// Handler receives frames pushed by a subscription. It is called from the
// subscription's own goroutine.
type Handler func(raw *frame.Raw)

// ErrorHandler receives the error that ends a subscription: a
// *SubscriptionError when the topic could not be reached, or an error
// wrapping ErrStreamEnded when an established stream stops. It is called at
// most once, from the subscription's own goroutine, and never after Close
// returns.
type ErrorHandler func(err error)

// ErrStreamEnded reports that the frame stream of a topic stopped.
var ErrStreamEnded = errors.New("frame stream ended")

// Subscription is an active topic subscription.
type Subscription interface {
	Topic() string
	// Close stops delivery. No handler call starts after Close returns;
	// frames already handed over are not recalled.
	Close() error
}

// FrameSource pushes frames for a topic to a handler. Subscribe must not
// block on the network; connection failures are reported to onErr.
type FrameSource interface {
	Subscribe(topic string, h Handler, onErr ErrorHandler) (Subscription, error)
}

// SubscriptionError reports a failed subscribe.
type SubscriptionError struct {
	Topic string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscribe %q: %v", e.Topic, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
