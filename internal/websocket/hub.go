package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
	"github.com/voxgate/server/internal/events"
	"github.com/voxgate/server/internal/gamelog"
	"github.com/voxgate/server/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio frames
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The browser client ships on arbitrary origins during playtests.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub tracks the active streaming sessions and holds the collaborators every
// session needs: the engine factory, the game log, and the event publisher.
type Hub struct {
	sessions map[string]*Session

	register   chan *Session
	unregister chan *Session

	mu sync.RWMutex

	engines repositories.EngineFactory
	gameLog *gamelog.Logger
	events  *events.Publisher
	metrics *metrics.Metrics

	logger *zap.Logger
}

// NewHub creates a session hub.
func NewHub(engines repositories.EngineFactory, gameLog *gamelog.Logger, publisher *events.Publisher, logger *zap.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		engines:    engines,
		gameLog:    gameLog,
		events:     publisher,
		metrics:    metrics.Default,
		logger:     logger,
	}
}

// Run starts the hub's registration loop.
func (h *Hub) Run() {
	for {
		select {
		case session := <-h.register:
			h.mu.Lock()
			h.sessions[session.id] = session
			h.mu.Unlock()
			h.metrics.SessionsTotal.Inc()
			h.metrics.SessionsActive.Inc()
			h.logger.Info("session registered", zap.String("sessionID", session.id))

		case session := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[session.id]; ok {
				delete(h.sessions, session.id)
				close(session.send)
			}
			h.mu.Unlock()
			h.metrics.SessionsActive.Dec()
			h.logger.Info("session unregistered", zap.String("sessionID", session.id))
		}
	}
}

// HandleStream upgrades the request and runs a streaming session on it.
func HandleStream(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	session := newSession(hub, conn, uuid.NewString(), logger)
	hub.register <- session

	go session.writePump()
	go session.readPump()

	return nil
}
