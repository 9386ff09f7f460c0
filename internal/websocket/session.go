package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
	"github.com/voxgate/server/internal/events"
)

// Session protocol, one recording segment at a time:
//   - JSON {"type":"start","sample_rate":16000,"language":"en"} -> {"type":"ready"}
//   - Binary frames: int16 PCM little-endian (80-120ms bursts), no reply
//   - JSON {"type":"stop"} -> {"type":"final","text":"..."}
// Binary frames before start are dropped; malformed JSON is ignored.

type controlMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language"`
}

type readyReply struct {
	Type string `json:"type"`
}

type finalReply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Session is the per-connection state machine. It owns at most one live
// transcription engine; a nil engine means no segment is active. Messages
// are processed one at a time in receipt order by the read pump.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	// Buffered channel of outbound text frames.
	send chan []byte

	engine       repositories.Engine
	audioConfig  repositories.AudioConfig
	segmentStart time.Time

	logger *zap.Logger
}

func newSession(hub *Hub, conn *websocket.Conn, id string, logger *zap.Logger) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		id:     id,
		send:   make(chan []byte, 256),
		logger: logger,
	}
}

// readPump pumps messages from the connection into the state machine.
func (s *Session) readPump() {
	defer func() {
		s.releaseEngine()
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("WebSocket error", zap.String("sessionID", s.id), zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			s.handleControl(message)
		case websocket.BinaryMessage:
			s.handleAudioFrame(message)
		}
	}
}

// writePump pumps outbound frames to the connection and keeps the peer alive.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Error("failed to write message", zap.String("sessionID", s.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleControl dispatches a JSON control frame. Malformed JSON is dropped
// silently; noisy clients are tolerated.
func (s *Session) handleControl(message []byte) {
	var msg controlMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.logger.Debug("dropping malformed control frame", zap.String("sessionID", s.id))
		return
	}

	switch msg.Type {
	case "start":
		s.handleStart(msg)
	case "stop":
		s.handleStop()
	default:
		s.reply(errorReply{Type: "error", Error: fmt.Sprintf("unknown type: %s", msg.Type)})
	}
}

// handleStart discards any active segment and opens a new one. Audio from
// the old segment never carries over.
func (s *Session) handleStart(msg controlMessage) {
	if s.engine != nil {
		if _, err := s.engine.Finalize(context.Background()); err != nil {
			s.logger.Warn("discarding previous segment failed", zap.String("sessionID", s.id), zap.Error(err))
		}
		s.releaseEngine()
	}

	ac := repositories.AudioConfig{SampleRate: 16000, Language: "en"}
	if msg.SampleRate > 0 {
		ac.SampleRate = msg.SampleRate
	}
	if msg.Language != "" {
		ac.Language = msg.Language
	}

	engine, err := s.hub.engines.NewEngine(context.Background(), ac)
	if err != nil {
		s.logger.Error("engine construction failed", zap.String("sessionID", s.id), zap.Error(err))
		s.reply(errorReply{Type: "error", Error: err.Error()})
		return
	}

	s.engine = engine
	s.audioConfig = ac
	s.segmentStart = time.Now()
	s.hub.metrics.SegmentsStarted.Inc()
	s.reply(readyReply{Type: "ready"})
}

// handleAudioFrame appends a binary frame to the active segment. Frames
// arriving before a start are dropped without a reply.
func (s *Session) handleAudioFrame(data []byte) {
	if s.engine == nil {
		s.hub.metrics.AudioFramesDropped.Inc()
		return
	}
	if err := s.engine.PushAudio(data); err != nil {
		s.logger.Error("failed to push audio", zap.String("sessionID", s.id), zap.Error(err))
		return
	}
	s.hub.metrics.AudioFramesReceived.Inc()
	s.hub.metrics.AudioBytesReceived.Add(float64(len(data)))
}

// handleStop finalizes the active segment, replies with the transcript, and
// returns the session to idle.
func (s *Session) handleStop() {
	if s.engine == nil {
		s.reply(errorReply{Type: "error", Error: "no session"})
		return
	}

	start := time.Now()
	text, err := s.engine.Finalize(context.Background())
	s.releaseEngine()
	if err != nil {
		s.logger.Error("finalize failed", zap.String("sessionID", s.id), zap.Error(err))
		s.reply(errorReply{Type: "error", Error: err.Error()})
		return
	}

	s.hub.metrics.SegmentsFinalized.Inc()
	s.hub.metrics.SegmentDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("segment finalized",
		zap.String("sessionID", s.id),
		zap.String("text", text),
		zap.Duration("decode", time.Since(start)))

	if s.hub.gameLog != nil {
		s.hub.gameLog.Transcription(text, false)
	}
	if s.hub.events != nil {
		event := events.TranscriptEvent{
			SessionID:  s.id,
			Text:       text,
			SampleRate: s.audioConfig.SampleRate,
			Language:   s.audioConfig.Language,
			DurationMs: time.Since(s.segmentStart).Milliseconds(),
			Timestamp:  time.Now().Unix(),
		}
		go s.hub.events.PublishTranscript(context.Background(), event)
	}

	s.reply(finalReply{Type: "final", Text: text})
}

// releaseEngine closes and drops the engine, returning the session to idle.
func (s *Session) releaseEngine() {
	if s.engine == nil {
		return
	}
	if err := s.engine.Close(); err != nil {
		s.logger.Warn("engine close failed", zap.String("sessionID", s.id), zap.Error(err))
	}
	s.engine = nil
}

func (s *Session) reply(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal reply", zap.String("sessionID", s.id), zap.Error(err))
		return
	}
	select {
	case s.send <- payload:
	default:
		s.logger.Warn("send buffer full, dropping reply", zap.String("sessionID", s.id))
	}
}
