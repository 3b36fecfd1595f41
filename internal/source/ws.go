package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/frame"
)

// TopicPrefix is the URL path under which topics are served.
const TopicPrefix = "/topics/"

// DefaultReadLimit bounds one frame message: the largest image Decode
// accepts at four bytes per pixel plus the message header.
const DefaultReadLimit = wireFixedBytes + 255 + frame.MaxPixels*4

// WSSource subscribes to topics served by a Hub (or any server speaking the
// same frame messages) at baseURL.
type WSSource struct {
	base        *url.URL
	dialTimeout time.Duration
	log         *zap.Logger

	// ReadLimit caps the size of one frame message. A larger message ends
	// the stream.
	ReadLimit int64
}

// NewWSSource creates a WebSocket frame source. http(s) URLs are mapped to
// ws(s).
func NewWSSource(baseURL string, dialTimeout time.Duration, log *zap.Logger) (*WSSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("source url %q: unsupported scheme %q", baseURL, u.Scheme)
	}

	return &WSSource{
		base:        u,
		dialTimeout: dialTimeout,
		log:         log,
		ReadLimit:   DefaultReadLimit,
	}, nil
}

// TopicURL returns the WebSocket URL of a topic.
func (s *WSSource) TopicURL(topic string) string {
	u := *s.base
	u.Path = strings.TrimSuffix(s.base.Path, "/") + TopicPrefix + topic
	u.RawPath = strings.TrimSuffix(s.base.EscapedPath(), "/") + TopicPrefix + url.PathEscape(topic)
	return u.String()
}

// Subscribe starts a subscription to topic and returns without waiting for
// the connection. Frames go to h; a failed dial or a dropped stream goes to
// onErr, which may be nil.
func (s *WSSource) Subscribe(topic string, h Handler, onErr ErrorHandler) (Subscription, error) {
	if topic == "" {
		return nil, &SubscriptionError{Topic: topic, Err: errors.New("empty topic")}
	}
	if h == nil {
		return nil, &SubscriptionError{Topic: topic, Err: errors.New("nil handler")}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &wsSubscription{
		id:     uuid.NewString(),
		topic:  topic,
		url:    s.TopicURL(topic),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    s.log.With(zap.String("topic", topic)),
	}
	dialer := &websocket.Dialer{
		HandshakeTimeout: s.dialTimeout,
		NetDialContext:   sub.netDial,
	}

	go sub.run(ctx, dialer, s.ReadLimit, h, onErr)
	return sub, nil
}

type wsSubscription struct {
	id     string
	topic  string
	url    string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger

	mu      sync.Mutex
	closing bool
	netConn net.Conn
	conn    *websocket.Conn
}

func (s *wsSubscription) Topic() string {
	return s.topic
}

// netDial records the TCP connection so Close can abort a pending handshake.
func (s *wsSubscription) netDial(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		conn.Close()
		return nil, net.ErrClosed
	}
	s.netConn = conn
	return conn, nil
}

func (s *wsSubscription) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *wsSubscription) run(ctx context.Context, dialer *websocket.Dialer, readLimit int64, h Handler, onErr ErrorHandler) {
	defer close(s.done)

	conn, resp, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (http %d)", err, resp.StatusCode)
		}
		s.fail(onErr, &SubscriptionError{Topic: s.topic, Err: err})
		return
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	if readLimit > 0 {
		conn.SetReadLimit(readLimit)
	}
	s.log.Info("subscribed", zap.String("url", s.url), zap.String("id", s.id))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.fail(onErr, fmt.Errorf("%w: %w", ErrStreamEnded, err))
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		raw, err := Unmarshal(data)
		if err != nil {
			s.log.Warn("dropping malformed frame message", zap.Error(err))
			continue
		}
		if s.isClosing() {
			return
		}
		h(raw)
	}
}

// fail reports err unless the subscription is being closed.
func (s *wsSubscription) fail(onErr ErrorHandler, err error) {
	if s.isClosing() {
		return
	}
	s.log.Warn("subscription failed", zap.String("id", s.id), zap.Error(err))
	if onErr != nil {
		onErr(err)
	}
}

func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closing = true
		conn, netConn := s.conn, s.netConn
		s.mu.Unlock()

		s.cancel()
		switch {
		case conn != nil:
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			err = conn.Close()
		case netConn != nil:
			_ = netConn.Close()
		}
		<-s.done
		s.log.Info("unsubscribed", zap.String("id", s.id))
	})
	return err
}
