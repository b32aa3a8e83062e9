package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"chat-backend/domain"
	"chat-backend/errors"
)

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if _, err := s.authService.Register(user); err != nil {
		s.respondError(w, err)
		return
	}
	respondText(w, http.StatusCreated, "user added")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	token, err := s.authService.Login(user.Name, user.Pass)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleGetMyUserData(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	user, err := s.chatService.GetUserData(claims.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.chatService.GetUsers()
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var target domain.PublicUser
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	caller := domain.PublicUser{ID: claims.UserID, Name: claims.Username}
	roomID, err := s.chatService.CreateRoom(caller, target)
	if err != nil && roomID == 0 {
		s.respondError(w, err)
		return
	}
	if err != nil {
		// Room exists; only the live push was incomplete.
		s.log.Warn("room-list push incomplete", "room", roomID, "error", err)
	}
	respondJSON(w, http.StatusCreated, domain.RoomRequest{RoomID: roomID})
}

func (s *Server) handleGetRooms(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	rooms, err := s.chatService.GetRooms(claims.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleGetRoomData(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	roomID, err := strconv.Atoi(chi.URLParam(r, "chatRoomId"))
	if err != nil {
		http.Error(w, "invalid or missing chatRoomId", http.StatusBadRequest)
		return
	}

	data, err := s.chatService.GetRoomData(roomID, claims.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var message domain.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := s.chatService.PostMessage(message); err != nil {
		s.respondError(w, err)
		return
	}
	respondText(w, http.StatusCreated, "Message posted")
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := s.chatService.DeleteRoom(req.RoomID); err != nil {
		s.respondError(w, err)
		return
	}
	respondText(w, http.StatusOK, "Room deleted")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.chatService.DeleteUser(claims.UserID); err != nil {
		s.respondError(w, err)
		return
	}
	respondText(w, http.StatusOK, "User deleted")
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	var message domain.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := s.chatService.DeleteMessage(message); err != nil {
		s.respondError(w, err)
		return
	}
	respondText(w, http.StatusOK, "Message deleted")
}

func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	roomID, err := strconv.Atoi(r.URL.Query().Get("chatRoomId"))
	if err != nil {
		http.Error(w, "invalid or missing chatRoomId", http.StatusBadRequest)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}

	messages, err := s.chatService.SearchMessages(r.Context(), roomID, claims.UserID, query)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// respondError maps domain sentinels to status codes; anything
// unrecognized is an internal error and gets logged.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case stderrors.As(err, &validationErrs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case stderrors.Is(err, errors.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case stderrors.Is(err, errors.ErrUserNotFound),
		stderrors.Is(err, errors.ErrRoomNotFound),
		stderrors.Is(err, errors.ErrMessageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case stderrors.Is(err, errors.ErrBadRoomID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
