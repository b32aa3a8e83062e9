// Package server exposes the REST surface and the websocket upgrade
// endpoints over a chi router.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"chat-backend/auth"
	"chat-backend/contract"
	"chat-backend/observability"
	"chat-backend/realtime"
	"chat-backend/services"
)

type Server struct {
	log         *slog.Logger
	authService services.IAuthService
	chatService services.IChatService
	broadcaster contract.IBroadcaster
	registry    contract.IRegistry
	gate        *auth.Gate
	tokens      *auth.TokenManager
	metrics     *observability.Metrics
	sessionCfg  realtime.SessionConfig
	upgrader    websocket.Upgrader
	metricsHTTP http.Handler
	router      chi.Router
}

func NewServer(log *slog.Logger, authService services.IAuthService,
	chatService services.IChatService, broadcaster contract.IBroadcaster,
	registry contract.IRegistry, gate *auth.Gate, tokens *auth.TokenManager,
	metrics *observability.Metrics, metricsHandler http.Handler,
	sessionCfg realtime.SessionConfig, allowedOrigins []string) *Server {

	s := &Server{
		log:         log,
		authService: authService,
		chatService: chatService,
		broadcaster: broadcaster,
		registry:    registry,
		gate:        gate,
		tokens:      tokens,
		metrics:     metrics,
		sessionCfg:  sessionCfg,
		metricsHTTP: metricsHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	s.router = s.routes()
	return s
}

// Router returns the fully wired handler; the caller owns the
// http.Server lifecycle.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/ping", s.handlePing)
	r.Post("/auth", s.handleLogin)
	r.Post("/register", s.handleRegister)
	if s.metricsHTTP != nil {
		r.Handle("/metrics", s.metricsHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Get("/getmyuserdata", s.handleGetMyUserData)
		r.Get("/getUsers", s.handleGetUsers)
		r.Post("/createroom", s.handleCreateRoom)
		r.Get("/getrooms", s.handleGetRooms)
		r.Get("/getroomdata/{chatRoomId}", s.handleGetRoomData)
		r.Post("/postmessage", s.handlePostMessage)
		r.Post("/deleteroom", s.handleDeleteRoom)
		r.Post("/deleteuser", s.handleDeleteUser)
		r.Post("/deletemessage", s.handleDeleteMessage)
		r.Get("/searchmessages", s.handleSearchMessages)

		r.Get("/ws/userchatrooms", s.handleUserRoomsSocket)
		r.Get("/ws/{chatRoomId}", s.handleRoomSocket)
	})

	return r
}

// originChecker allows every origin when the list is empty (development
// mode), otherwise only exact matches.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
