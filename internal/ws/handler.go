package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"chatapp/internal/domain"
	"chatapp/internal/security"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// inboundEvent is the envelope clients send over the socket.
type inboundEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
}

// Inbound event names.
const (
	eventJoinChat   = "joinChat"
	eventLeaveChat  = "leaveChat"
	eventTyping     = "typing"
	eventStopTyping = "stopTyping"
)

// MakeHandler returns the HTTP handler for the /ws endpoint.
// Authenticates via Bearer token (Authorization header or
// Sec-WebSocket-Protocol), then dispatches events:
//   - joinChat   -> mark the connection as viewing the chat
//   - leaveChat  -> stop viewing (other devices unaffected)
//   - typing     -> forward typing indicator to the other participant
//   - stopTyping -> forward stop-typing indicator to the other participant
//
// Message sending happens over HTTP; the socket only carries presence, room,
// and indicator traffic plus the outbound delivery events.
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	users domain.UserRepository,
	chats domain.ChatRepository,
	allowedOrigins []string,
	log *slog.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			if authErr, ok := err.(wsAuthError); ok {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := tokens.Subject(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByID(ctx, userID)
		if err != nil || user == nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		conn := newSocketConn(user.ID, sock)
		if err := hub.Admit(conn); err != nil {
			sock.Close()
			return
		}
		defer hub.Disconnect(conn.ID())

		log.Debug("ws: connection admitted", "conn", conn.ID(), "user", user.ID)

		for {
			var ev inboundEvent
			if err := sock.ReadJSON(&ev); err != nil {
				break
			}
			if ev.ChatID == "" {
				sendError(conn, "chatId is required")
				continue
			}

			switch ev.Type {
			case eventJoinChat:
				hub.JoinRoom(conn.ID(), ev.ChatID)

			case eventLeaveChat:
				hub.LeaveRoom(conn.ID(), ev.ChatID)

			case eventTyping, eventStopTyping:
				chat, err := chats.GetByID(ctx, ev.ChatID)
				if err != nil || chat == nil || !chat.HasUser(user.ID) {
					sendError(conn, "not allowed for this chat")
					continue
				}
				other := chat.OtherUser(user.ID)
				if other == "" {
					continue
				}
				indicator := UserTyping(ev.ChatID, user.ID)
				if ev.Type == eventStopTyping {
					indicator = UserStoppedTyping(ev.ChatID, user.ID)
				}
				hub.EmitToUsers([]string{other}, indicator)

			default:
				log.Debug("ws: unknown event type", "type", ev.Type, "user", user.ID)
			}
		}
	}
}

func sendError(conn Conn, msg string) {
	_ = conn.Send(map[string]any{
		"type":    "error",
		"message": msg,
	})
}
