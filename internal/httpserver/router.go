package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"chatapp/internal/config"
	"chatapp/internal/domain"
	"chatapp/internal/queue"
	"chatapp/internal/security"
	"chatapp/internal/service"
	"chatapp/internal/ws"
)

var validate = validator.New()

// Deps carries everything the router needs. Repositories come in as the
// domain interfaces so the store backend stays a main-level decision.
type Deps struct {
	Cfg      *config.Config
	Users    domain.UserRepository
	Chats    domain.ChatRepository
	Messages domain.MessageRepository
	Hub      *ws.Hub
	Tokens   *security.TokenService
	OTPs     *security.OTPStore
	Mail     queue.Publisher
	Log      *slog.Logger
}

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	fanout := ws.NewFanout(d.Hub, d.Log)
	authSvc := service.NewAuthService(d.Users, d.OTPs, d.Tokens, d.Mail)
	userSvc := service.NewUserService(d.Users)
	chatSvc := service.NewChatService(d.Chats, d.Users)
	msgSvc := service.NewMessageService(d.Chats, d.Messages, fanout, d.Log)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (no token required)
		r.Post("/auth/login", handleLogin(authSvc))
		r.Post("/auth/verify", handleVerify(authSvc))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Tokens, d.Users))

			r.Get("/auth/me", handleMe())
			r.Post("/auth/update", handleUpdateName(authSvc))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(userSvc))
				r.Get("/{userID}", handleGetUser(userSvc))
			})

			r.Route("/chats", func(r chi.Router) {
				r.Post("/", handleCreateChat(chatSvc))
				r.Get("/", handleListChats(chatSvc))
				r.Post("/{chatID}/messages", handleSendMessage(msgSvc))
				r.Get("/{chatID}/messages", handleOpenChat(chatSvc, msgSvc))
			})

			r.Mount("/uploads", UploadRoutes(d.Cfg))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(d.Hub, d.Tokens, d.Users, d.Chats, d.Cfg.CORSOrigins, d.Log))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps sentinel errors to HTTP status codes. Unknown errors are
// reported as 500 without leaking details.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeAndValidate parses a JSON body into v and runs struct validation.
func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	if err := validate.Struct(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
