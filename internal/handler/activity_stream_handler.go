package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/recipenest/recipenest-api/internal/metrics"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	maxSessionLifetime = 15 * time.Minute
	writeWait          = 10 * time.Second // Time allowed to write a message to the peer
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize     = 4 * 1024            // clients only send control frames
)

// ActivitySubscriber yields live activity events until cancel is called.
// broker.RedisActivityBroker satisfies it.
type ActivitySubscriber interface {
	Subscribe(ctx context.Context) (<-chan models.ActivityEvent, func(), error)
}

// StreamMessage is one frame pushed to an activity stream client.
type StreamMessage struct {
	Type  string                `json:"type"` // "activity", "session_expired"
	Event *models.ActivityEvent `json:"event,omitempty"`
	Error string                `json:"error,omitempty"`
}

// ActivityStreamHandler pushes activity events to connected admins over a
// websocket. Each connection holds its own broker subscription.
type ActivityStreamHandler struct {
	subscriber ActivitySubscriber
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]*streamClient
	mu         sync.RWMutex
}

type streamClient struct {
	conn        *websocket.Conn
	userID      uuid.UUID
	connectedAt time.Time
}

func NewActivityStreamHandler(subscriber ActivitySubscriber, allowedOrigins []string) *ActivityStreamHandler {
	return &ActivityStreamHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		clients: make(map[*websocket.Conn]*streamClient),
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browsers from the configured origins. "*" allows any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// ClientCount reports the number of connected stream clients.
func (h *ActivityStreamHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GET /api/admin/activity/ws
func (h *ActivityStreamHandler) Stream(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	if h.subscriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity stream is unavailable"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe, err := h.subscriber.Subscribe(ctx)
	if err != nil {
		logger.Log.Error("Failed to subscribe to activity",
			zap.String("user_id", who.UserID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity stream is unavailable"})
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection",
			zap.String("user_id", who.UserID.String()),
			zap.Error(err),
		)
		return
	}

	client := &streamClient{
		conn:        conn,
		userID:      who.UserID,
		connectedAt: time.Now(),
	}
	h.addClient(client)
	defer h.removeClient(conn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, client, events)
	}()

	h.readPump(client)
	cancel()
	<-done
}

// readPump consumes control frames until the peer goes away. Data frames
// are ignored.
func (h *ActivityStreamHandler) readPump(client *streamClient) {
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Activity stream read error",
					zap.String("user_id", client.userID.String()),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump is the only writer on the connection.
func (h *ActivityStreamHandler) writePump(ctx context.Context, client *streamClient, events <-chan models.ActivityEvent) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	sessionTimer := time.NewTimer(maxSessionLifetime)
	defer sessionTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				h.closeClientGracefully(client, "activity stream ended")
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(StreamMessage{Type: "activity", Event: &event}); err != nil {
				logger.Log.Debug("Failed to push activity event",
					zap.String("user_id", client.userID.String()),
					zap.Error(err),
				)
				_ = client.conn.Close()
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = client.conn.Close()
				return
			}

		case <-sessionTimer.C:
			h.closeClientGracefully(client, "session expired after 15 minutes")
			return
		}
	}
}

func (h *ActivityStreamHandler) closeClientGracefully(client *streamClient, reason string) {
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteJSON(StreamMessage{Type: "session_expired", Error: reason}); err != nil {
		logger.Log.Debug("Failed to send session_expired message", zap.Error(err))
	}

	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	); err != nil {
		logger.Log.Debug("Failed to send close frame", zap.Error(err))
	}

	// Unblocks readPump if the peer never answers the close frame
	_ = client.conn.SetReadDeadline(time.Now().Add(writeWait))

	logger.Log.Info("Closed activity stream",
		zap.String("user_id", client.userID.String()),
		zap.String("reason", reason),
	)
}

func (h *ActivityStreamHandler) addClient(client *streamClient) {
	h.mu.Lock()
	h.clients[client.conn] = client
	total := len(h.clients)
	h.mu.Unlock()

	metrics.ActivityStreamClients.Inc()
	logger.Log.Info("Activity stream client connected",
		zap.String("user_id", client.userID.String()),
		zap.Int("total", total),
	)
}

func (h *ActivityStreamHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[conn]
	if !exists {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	metrics.ActivityStreamClients.Dec()

	logger.Log.Info("Activity stream client disconnected",
		zap.String("user_id", client.userID.String()),
		zap.Duration("session_duration", time.Since(client.connectedAt).Round(time.Second)),
		zap.Int("remaining", len(h.clients)),
	)
}
