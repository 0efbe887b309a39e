package ws

import "chatapp/internal/domain"

// Outbound event names.
const (
	EventNewMessage        = "newMessage"
	EventMessagesSeen      = "messagesSeen"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventOnlineUsers       = "getOnlineUser"
)

// NewMessageEvent carries a freshly persisted message to its delivery
// targets.
type NewMessageEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

func NewMessage(m *domain.Message) NewMessageEvent {
	return NewMessageEvent{Type: EventNewMessage, Message: m}
}

// MessagesSeenEvent tells a sender which of their messages the counterpart
// has seen. Sent once per batch, never per message.
type MessagesSeenEvent struct {
	Type       string   `json:"type"`
	ChatID     string   `json:"chatId"`
	SeenBy     string   `json:"seenBy"`
	MessageIDs []string `json:"messageIds"`
}

func MessagesSeen(chatID, seenBy string, messageIDs []string) MessagesSeenEvent {
	return MessagesSeenEvent{
		Type:       EventMessagesSeen,
		ChatID:     chatID,
		SeenBy:     seenBy,
		MessageIDs: messageIDs,
	}
}

// TypingEvent is forwarded to the other participant of a chat while the
// sender is typing (or has stopped).
type TypingEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func UserTyping(chatID, userID string) TypingEvent {
	return TypingEvent{Type: EventUserTyping, ChatID: chatID, UserID: userID}
}

func UserStoppedTyping(chatID, userID string) TypingEvent {
	return TypingEvent{Type: EventUserStoppedTyping, ChatID: chatID, UserID: userID}
}

// OnlineUsersEvent broadcasts the full online-user set whenever a user comes
// online or goes offline.
type OnlineUsersEvent struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

func OnlineUsers(users []string) OnlineUsersEvent {
	return OnlineUsersEvent{Type: EventOnlineUsers, Users: users}
}
