package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vibeplanner/vibeplanner/pkg/logger"
	"github.com/vibeplanner/vibeplanner/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MiB

	sendQueueSize = 64
)

// Message represents a JSON payload delivered to realtime subscribers.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Hub coordinates multiplexed realtime streams for connected clients. A
// client's allowed set is computed from its project visibility at connect
// time; subscribe requests outside that set are ignored.
type Hub struct {
	mu sync.RWMutex
	// streams -> user id -> the user's live connections on that stream.
	streams  map[string]map[string]map[*subscriber]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a realtime hub.
func NewHub() *Hub {
	return &Hub{
		streams: make(map[string]map[string]map[*subscriber]struct{}),
		log:     logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostOnly(origin)
				return originHost == hostOnly(r.Host) || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the client
// with the provided streams. The allowed set can be nil to indicate all
// streams are permitted.
func (h *Hub) Serve(userID string, streams []string, allowed map[string]struct{}, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{
		hub:     h,
		socket:  conn,
		userID:  userID,
		send:    make(chan Message, sendQueueSize),
		allowed: allowed,
	}
	h.subscribe(sub, streams)

	metrics.RealtimeConnections.Inc()
	go sub.writePump()
	sub.readPump()
}

// BroadcastToUser delivers a message to all connections for the supplied user on a stream.
func (h *Hub) BroadcastToUser(stream, userID string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" || userID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.streams[stream][userID]
	if len(targets) == 0 {
		return
	}

	message.Stream = stream
	for sub := range targets {
		h.deliver(sub, message)
	}
}

// BroadcastStream delivers a message to every subscriber on the provided stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	message.Stream = stream
	for _, subs := range h.streams[stream] {
		for sub := range subs {
			h.deliver(sub, message)
		}
	}
}

func (h *Hub) subscribe(sub *subscriber, streams []string) {
	if len(streams) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range dedupeStreams(streams) {
		if !sub.isAllowed(stream) {
			h.log.Debug("ignoring unauthorized stream",
				zap.String("stream", stream),
				zap.String("user_id", sub.userID),
			)
			continue
		}
		h.attachLocked(sub, stream)
	}
}

func (h *Hub) attachLocked(sub *subscriber, stream string) {
	if sub.streams == nil {
		sub.streams = make(map[string]struct{})
	}
	if _, exists := sub.streams[stream]; exists {
		return
	}

	byUser := h.streams[stream]
	if byUser == nil {
		byUser = make(map[string]map[*subscriber]struct{})
		h.streams[stream] = byUser
	}
	conns := byUser[sub.userID]
	if conns == nil {
		conns = make(map[*subscriber]struct{})
		byUser[sub.userID] = conns
	}

	sub.streams[stream] = struct{}{}
	conns[sub] = struct{}{}
}

func (h *Hub) unsubscribe(sub *subscriber, streams []string) {
	if len(streams) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range dedupeStreams(streams) {
		h.detachLocked(sub, stream, false)
	}
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream := range sub.streams {
		h.detachLocked(sub, stream, true)
	}
	metrics.RealtimeConnections.Dec()
}

func (h *Hub) detachLocked(sub *subscriber, stream string, forget bool) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}

	byUser, ok := h.streams[stream]
	if !ok {
		return
	}

	conns := byUser[sub.userID]
	if len(conns) == 0 {
		return
	}

	delete(conns, sub)
	if len(conns) == 0 {
		delete(byUser, sub.userID)
	}
	if len(byUser) == 0 {
		delete(h.streams, stream)
	}

	if forget {
		delete(sub.streams, stream)
	}
}

// deliver is best-effort: a subscriber that cannot keep up is dropped rather
// than allowed to stall the broadcast.
func (h *Hub) deliver(sub *subscriber, message Message) {
	select {
	case sub.send <- message:
	default:
		h.log.Warn("dropping backpressure client", zap.String("user_id", sub.userID))
		sub.close()
	}
}

// subscriber is one WebSocket connection together with the streams it is
// attached to. The streams set is owned by the hub and only touched under the
// hub mutex.
type subscriber struct {
	hub     *Hub
	socket  *websocket.Conn
	userID  string
	streams map[string]struct{}
	send    chan Message
	once    sync.Once
	allowed map[string]struct{}
}

func (s *subscriber) readPump() {
	defer s.close()

	s.socket.SetReadLimit(maxMessageSize)
	_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
	s.socket.SetPongHandler(func(string) error {
		_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := s.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.log.Debug("unexpected close", zap.String("user_id", s.userID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			s.hub.log.Debug("invalid control payload", zap.String("user_id", s.userID), zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			s.hub.subscribe(s, ctrl.Streams)
		case "unsubscribe":
			s.hub.unsubscribe(s, ctrl.Streams)
		case "ping":
			s.send <- Message{Event: "pong"}
		default:
			s.hub.log.Debug("unsupported control action",
				zap.String("action", ctrl.Action),
				zap.String("user_id", s.userID),
			)
		}
	}
}

func (s *subscriber) writePump() {
	defer s.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *subscriber) close() {
	s.once.Do(func() {
		s.hub.unregister(s)
		close(s.send)
		_ = s.socket.Close()
	})
}

func (s *subscriber) isAllowed(stream string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[stream]
	return ok
}

// hostOnly strips the scheme and port from an Origin header value or a bare
// host:port pair.
func hostOnly(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if strings.Contains(value, "://") {
		if parsed, err := url.Parse(value); err == nil {
			return hostOnly(parsed.Host)
		}
	}

	if host, _, err := net.SplitHostPort(value); err == nil {
		return host
	}
	return value
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

// dedupeStreams normalizes the requested stream names, dropping blanks and
// repeats while keeping first-seen order.
func dedupeStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	result := make([]string, 0, len(streams))
	for _, stream := range streams {
		stream = normalizeStream(stream)
		if stream == "" {
			continue
		}
		if _, dup := seen[stream]; dup {
			continue
		}
		seen[stream] = struct{}{}
		result = append(result, stream)
	}
	return result
}
