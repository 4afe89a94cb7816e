package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"portfolio-chat/internal/models"
)

const writeWait = 10 * time.Second

// SnapshotFunc loads the transcript sent to a client once it is subscribed.
// It runs while the client's writes are held, so it must not publish.
type SnapshotFunc func(ctx context.Context) (models.SessionEvent, error)

// MessageFunc handles a message typed into a live transcript. Returning a
// *RejectedError refuses that one message and keeps the connection open.
type MessageFunc func(ctx context.Context, text string) error

// RejectedError is reported back to the sender as an error event.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(data)
}

// writeLocked must be called with mu held.
func (c *conn) writeLocked(data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// subscription is the Redis channel shared by every local connection of a
// session. ready closes once Redis has confirmed it, err tells how.
type subscription struct {
	cancel context.CancelFunc
	ready  chan struct{}
	err    error
}

// Hub fans session events out to every connection watching that session.
// With a Redis client, events travel over pub/sub so all instances see them.
type Hub struct {
	mu             sync.RWMutex
	connections    map[uuid.UUID][]*conn
	subscriptions  map[uuid.UUID]*subscription
	redisClient    *redis.Client
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewHub creates a hub. Browsers may connect from the serving host itself or
// from one of allowedOrigins.
func NewHub(redisClient *redis.Client, logger *zap.Logger, allowedOrigins ...string) *Hub {
	h := &Hub{
		connections:    make(map[uuid.UUID][]*conn),
		subscriptions:  make(map[uuid.UUID]*subscription),
		redisClient:    redisClient,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
		logger:         logger,
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[strings.TrimRight(o, "/")] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func channelName(sessionID uuid.UUID) string {
	return "chat_updates:" + sessionID.String()
}

// checkOrigin accepts clients that send no Origin (not a browser), the
// serving host, and the configured origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return h.allowedOrigins[strings.TrimRight(origin, "/")]
}

// Serve upgrades the request and subscribes the connection before loading
// the snapshot, so every change after the snapshot reaches the client. It
// then feeds client frames to onMessage until the connection closes. The
// caller has already checked that the visitor owns the session.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, snapshot SnapshotFunc, onMessage MessageFunc) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx := r.Context()
	c := &conn{ws: ws}
	defer h.unregisterConnection(sessionID, c)
	if err := h.registerConnection(ctx, sessionID, c); err != nil {
		h.logger.Warn("websocket subscription failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		return
	}

	// Broadcasts wait on the write lock, so none can slip in between loading
	// the snapshot and sending it.
	c.mu.Lock()
	event, err := snapshot(ctx)
	if err == nil {
		var data []byte
		if data, err = json.Marshal(event); err == nil {
			err = c.writeLocked(data)
		}
	}
	c.mu.Unlock()
	if err != nil {
		h.logger.Debug("websocket snapshot failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.logger.Debug("ignoring malformed websocket frame", zap.String("session_id", sessionID.String()))
			continue
		}

		err = onMessage(ctx, req.Message)
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			if h.reject(c, sessionID, rejected) != nil {
				return
			}
			continue
		}
		if err != nil {
			h.logger.Warn("websocket message failed", zap.String("session_id", sessionID.String()), zap.Error(err))
			return
		}
	}
}

func (h *Hub) reject(c *conn, sessionID uuid.UUID, rejected *RejectedError) error {
	data, err := json.Marshal(models.SessionEvent{
		Type:      models.EventError,
		SessionID: sessionID,
		Error:     &models.APIError{Code: rejected.Code, Message: rejected.Message},
	})
	if err != nil {
		return err
	}
	return c.write(data)
}

// registerConnection adds c to the session and, with Redis, returns only once
// the session's channel subscription is active.
func (h *Hub) registerConnection(ctx context.Context, sessionID uuid.UUID, c *conn) error {
	h.mu.Lock()
	h.connections[sessionID] = append(h.connections[sessionID], c)

	var sub *subscription
	if h.redisClient != nil {
		sub = h.subscriptions[sessionID]
		if sub == nil {
			subCtx, cancel := context.WithCancel(context.Background())
			sub = &subscription{cancel: cancel, ready: make(chan struct{})}
			h.subscriptions[sessionID] = sub
			go h.subscribeToPubSub(subCtx, sessionID, sub)
		}
	}

	h.logger.Debug("websocket connected",
		zap.String("session_id", sessionID.String()),
		zap.Int("total", len(h.connections[sessionID])))
	h.mu.Unlock()

	if sub == nil {
		return nil
	}
	select {
	case <-sub.ready:
		return sub.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.ws.Close()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// Last one out drops the subscription
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
		if sub, ok := h.subscriptions[sessionID]; ok {
			sub.cancel()
			delete(h.subscriptions, sessionID)
		}
	}

	h.logger.Debug("websocket disconnected", zap.String("session_id", sessionID.String()))
}

func (h *Hub) subscribeToPubSub(ctx context.Context, sessionID uuid.UUID, sub *subscription) {
	pubsub := h.redisClient.Subscribe(ctx, channelName(sessionID))
	defer pubsub.Close()

	// Subscribe returns before Redis answers. Receive waits for the
	// confirmation so no publish is missed once ready closes.
	if _, err := pubsub.Receive(ctx); err != nil {
		sub.err = err
		close(sub.ready)
		return
	}
	close(sub.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(sessionID, []byte(msg.Payload))
		}
	}
}

// Publish delivers an event to everyone watching the session.
func (h *Hub) Publish(ctx context.Context, sessionID uuid.UUID, event models.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if h.redisClient != nil {
		if err := h.redisClient.Publish(ctx, channelName(sessionID), data).Err(); err != nil {
			h.logger.Warn("failed to publish session event", zap.String("session_id", sessionID.String()), zap.Error(err))
		}
		return
	}
	h.broadcast(sessionID, data)
}

func (h *Hub) broadcast(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	conns := append([]*conn(nil), h.connections[sessionID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		c.write(data)
	}
}

// Connections reports how many clients watch a session.
func (h *Hub) Connections(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

// Close drops every connection and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conns := range h.connections {
		for _, c := range conns {
			c.ws.Close()
		}
		delete(h.connections, id)
	}
	for id, sub := range h.subscriptions {
		sub.cancel()
		delete(h.subscriptions, id)
	}
}
