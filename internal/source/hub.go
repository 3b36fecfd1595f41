package source

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/frame"
)

const writeTimeout = 2 * time.Second

// Hub serves topics to WebSocket subscribers and broadcasts published
// frames to every subscriber of the topic.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu    sync.RWMutex
	peers map[string]map[*peer]struct{}
}

type peer struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:   log,
		peers: make(map[string]map[*peer]struct{}),
	}
}

// ServeHTTP upgrades requests for /topics/<name> and keeps the subscriber
// registered until its connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, TopicPrefix) {
		http.NotFound(w, r)
		return
	}
	topic, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), TopicPrefix))
	if err != nil || topic == "" {
		http.Error(w, "bad topic", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	p := &peer{id: uuid.NewString(), conn: conn}
	h.add(topic, p)
	h.log.Info("subscriber joined",
		zap.String("topic", topic),
		zap.String("peer", p.id),
		zap.String("remote", r.RemoteAddr),
	)

	defer func() {
		h.remove(topic, p)
		conn.Close()
		h.log.Info("subscriber left", zap.String("topic", topic), zap.String("peer", p.id))
	}()

	// Subscribers do not send anything; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(topic string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.peers[topic]
	if !ok {
		set = make(map[*peer]struct{})
		h.peers[topic] = set
	}
	set[p] = struct{}{}
}

func (h *Hub) remove(topic string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.peers[topic]; ok {
		delete(set, p)
		if len(set) == 0 {
			delete(h.peers, topic)
		}
	}
}

// Subscribers returns the number of peers subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers[topic])
}

// Publish sends raw to every subscriber of topic and returns how many
// subscribers it reached. Peers that fail to accept the frame are dropped.
func (h *Hub) Publish(topic string, raw *frame.Raw) (int, error) {
	msg, err := Marshal(raw)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers[topic]))
	for p := range h.peers[topic] {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	sent := 0
	for _, p := range targets {
		p.mu.Lock()
		p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := p.conn.WriteMessage(websocket.BinaryMessage, msg)
		p.mu.Unlock()
		if err != nil {
			h.log.Warn("dropping subscriber",
				zap.String("topic", topic),
				zap.String("peer", p.id),
				zap.Error(err),
			)
			h.remove(topic, p)
			p.conn.Close()
			continue
		}
		sent++
	}
	return sent, nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, set := range h.peers {
		for p := range set {
			p.mu.Lock()
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))
			p.mu.Unlock()
			p.conn.Close()
		}
		delete(h.peers, topic)
	}
}
