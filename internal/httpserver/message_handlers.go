package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatapp/internal/domain"
	"chatapp/internal/service"
)

type sendMessageRequest struct {
	Text  string        `json:"text" validate:"max=5000"`
	Image *domain.Image `json:"image"`
}

func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		msg, err := msgSvc.SendMessage(r.Context(), service.SendMessageInput{
			ChatID: chi.URLParam(r, "chatID"),
			Text:   req.Text,
			Image:  req.Image,
		}, CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message": msg,
			"sender":  msg.SenderID,
		})
	}
}

// handleOpenChat returns the chat history and, as a side effect, marks the
// counterpart's messages as seen.
func handleOpenChat(chatSvc *service.ChatService, msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := chi.URLParam(r, "chatID")
		viewer := CurrentUser(r)

		chat, err := chatSvc.GetChat(r.Context(), chatID, viewer.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		msgs, err := msgSvc.OpenChat(r.Context(), chatID, viewer.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"chat":     chat,
			"messages": msgs,
		})
	}
}
