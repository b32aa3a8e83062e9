package realtime

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-backend/domain"
	"chat-backend/errors"
)

// SessionConfig bounds the I/O of one live connection. Zero values fall
// back to defaults suitable for interactive chat.
type SessionConfig struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PongWait     time.Duration
	PingInterval time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 30 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 2 / 3
	}
	return c
}

// FrameHandler consumes one inbound text frame.
type FrameHandler func(payload []byte)

// Session wraps one live websocket connection. It offers a non-blocking
// Send, a receive loop that terminates when the transport closes for any
// reason, and an idempotent Close. A session is registered under exactly
// one channel key for its whole lifetime.
type Session struct {
	id   string
	key  domain.ChannelKey
	conn *websocket.Conn
	cfg  SessionConfig
	log  *slog.Logger

	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewSession(key domain.ChannelKey, conn *websocket.Conn, cfg SessionConfig, log *slog.Logger) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		id:   uuid.NewString(),
		key:  key,
		conn: conn,
		cfg:  cfg,
		log:  log,
		send: make(chan []byte, cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Key() domain.ChannelKey { return s.key }

// Send queues one payload for delivery without blocking. It fails when
// the session has left its active state or the peer is too slow to drain
// its buffer; the caller treats either as a dead peer.
func (s *Session) Send(payload []byte) error {
	if s.closed.Load() {
		return errors.ErrSessionClosed
	}
	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return errors.ErrSessionClosed
	default:
		return errors.ErrSendBufferFull
	}
}

// Close tears the transport down. Safe to call from any goroutine and
// any number of times; closing the underlying connection unblocks the
// receive loop promptly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		_ = s.conn.Close()
	})
}

// Run drives the read and write pumps and blocks until the connection
// terminates, whether by peer close, transport error or server-side
// Close. cleanup runs exactly once before Run returns, regardless of
// which path triggered termination.
func (s *Session) Run(onFrame FrameHandler, cleanup func()) {
	defer func() {
		s.Close()
		cleanup()
	}()

	go s.writePump()
	s.readPump(onFrame)
}

// readPump consumes inbound frames one at a time. Text frames go to
// onFrame; everything else is ignored. Returns on the first read error.
func (s *Session) readPump(onFrame FrameHandler) {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) && !s.closed.Load() {
				s.log.Debug("session read ended", "session", s.id, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		onFrame(payload)
	}
}

// writePump owns all writes to the connection: queued payloads, pings and
// the final close frame. A send that cannot complete within WriteTimeout
// is treated as a dead peer.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
