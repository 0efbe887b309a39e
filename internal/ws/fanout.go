package ws

import (
	"log/slog"

	"chatapp/internal/domain"
)

// Fanout distributes newly persisted messages and seen notifications to live
// connections. Emission is fire-and-forget: a failed write is logged, never
// retried, and never fails the send. Eventual consistency comes from the
// recipient re-reading persisted history.
type Fanout struct {
	hub *Hub
	log *slog.Logger
}

func NewFanout(hub *Hub, log *slog.Logger) *Fanout {
	return &Fanout{hub: hub, log: log}
}

// IsViewing reports whether userID is actively viewing chatID. The send path
// samples this before persisting so the stored seen flag matches what is
// announced.
func (f *Fanout) IsViewing(chatID, userID string) bool {
	return f.hub.IsViewing(chatID, userID)
}

// Deliver fans a persisted message out to its delivery targets: every
// connection viewing the chat, every connection of the recipient, and every
// connection of the sender, de-duplicated by connection id. When the
// recipient was viewing at send time the sender's connections additionally
// receive a messagesSeen notification for the new message.
//
// The message must already be durably stored; a failed emit does not undo
// anything.
func (f *Fanout) Deliver(chat *domain.Chat, msg *domain.Message, recipientViewing bool) error {
	recipient := chat.OtherUser(msg.SenderID)
	if recipient == "" {
		return domain.ErrInvalidChatState
	}

	targets := make(map[string]Conn)
	for _, conn := range f.hub.RoomConns(chat.ID) {
		targets[conn.ID()] = conn
	}
	for _, conn := range f.hub.UserConns(recipient) {
		targets[conn.ID()] = conn
	}
	for _, conn := range f.hub.UserConns(msg.SenderID) {
		targets[conn.ID()] = conn
	}

	event := NewMessage(msg)
	for _, conn := range targets {
		f.hub.emit(conn, event)
	}

	if recipientViewing {
		seen := MessagesSeen(chat.ID, recipient, []string{msg.ID})
		for _, conn := range f.hub.UserConns(msg.SenderID) {
			f.hub.emit(conn, seen)
		}
	}
	return nil
}

// NotifySeen announces a batch seen-state change to notifyUserID's
// connections. Used by the history read path after MarkSeenBatch: one event
// listing every affected id, not one event per message.
func (f *Fanout) NotifySeen(chatID, seenBy, notifyUserID string, messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}
	event := MessagesSeen(chatID, seenBy, messageIDs)
	for _, conn := range f.hub.UserConns(notifyUserID) {
		f.hub.emit(conn, event)
	}
}
