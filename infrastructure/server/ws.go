package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"chat-backend/errors"
	"chat-backend/realtime"
)

// handleRoomSocket upgrades a connection onto one chat room's channel.
// Admission runs before any registration or payload; a rejected client
// only ever observes a close frame with a machine-readable code.
func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	claims := claimsFrom(r.Context())
	principal, key, err := s.gate.AdmitRoom(claims, chi.URLParam(r, "chatRoomId"))
	if err != nil {
		s.rejectSocket(conn, err)
		return
	}

	session := realtime.NewSession(key, conn, s.sessionCfg, s.log)
	s.registry.Register(key, session)
	s.log.Info("user connected to room", "user", principal.UserID, "channel", key)

	if err := session.Send([]byte(fmt.Sprintf("You are connected to room %d", key.ID))); err != nil {
		s.registry.Unregister(key, session)
		session.Close()
		return
	}

	session.Run(func(frame []byte) {
		s.metrics.InboundFrames.WithLabelValues(key.Kind.String()).Inc()
		if err := s.broadcaster.OnInboundMessage(key.ID, frame); err != nil {
			// The connection stays open; only this frame is lost.
			s.log.Warn("inbound message dropped", "channel", key, "error", err)
		}
	}, func() {
		s.registry.Unregister(key, session)
		s.log.Info("user disconnected from room", "user", principal.UserID, "channel", key)
	})
}

// handleUserRoomsSocket upgrades a connection onto the caller's own
// room-list feed. The channel key is derived from the principal; the
// socket is send-only from the server's perspective.
func (s *Server) handleUserRoomsSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	claims := claimsFrom(r.Context())
	principal, key, err := s.gate.AdmitRoomList(claims)
	if err != nil {
		s.rejectSocket(conn, err)
		return
	}

	roomList, err := s.chatService.GetRooms(principal.UserID)
	if err != nil {
		s.log.Error("room list lookup failed", "user", principal.UserID, "error", err)
		s.closeSocket(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}
	payload, err := json.Marshal(roomList)
	if err != nil {
		s.closeSocket(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}

	session := realtime.NewSession(key, conn, s.sessionCfg, s.log)
	s.registry.Register(key, session)
	s.log.Info("user connected to room-list feed", "user", principal.UserID)

	if err := session.Send(payload); err != nil {
		s.registry.Unregister(key, session)
		session.Close()
		return
	}

	// Inbound frames on this channel carry no meaning.
	session.Run(func([]byte) {}, func() {
		s.registry.Unregister(key, session)
		s.log.Info("user disconnected from room-list feed", "user", principal.UserID)
	})
}

// rejectSocket closes an admitted-nothing connection with the close code
// matching the admission error.
func (s *Server) rejectSocket(conn *websocket.Conn, err error) {
	code := websocket.ClosePolicyViolation
	reason := "policy violation"
	metricReason := "forbidden"

	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		reason = "invalid user"
		metricReason = "unauthenticated"
	case stderrors.Is(err, errors.ErrForbidden):
		reason = "you are not a member of this room"
	case stderrors.Is(err, errors.ErrBadRoomID):
		code = websocket.CloseUnsupportedData
		reason = "invalid chatroom id"
		metricReason = "bad_request"
	default:
		s.log.Error("admission failed", "error", err)
		code = websocket.CloseInternalServerErr
		reason = "internal error"
		metricReason = "internal"
	}

	s.metrics.AdmissionRejections.WithLabelValues(metricReason).Inc()
	s.closeSocket(conn, code, reason)
}

func (s *Server) closeSocket(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}
