package domain

import "time"

// User represents an application user. Accounts are created on first
// successful OTP verification; there is no password.
type User struct {
	ID        string    `db:"id" json:"_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// MessageKind discriminates text messages from image messages.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
)

// LatestMessage is the denormalized summary stored on a chat for list-view
// ordering. Best-effort: the messages table is the source of truth.
type LatestMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// Chat is a two-party conversation. UserA and UserB are kept in lexicographic
// order so at most one chat exists per unordered pair of users.
type Chat struct {
	ID        string        `db:"id" json:"_id"`
	UserA     string        `db:"user_a" json:"-"`
	UserB     string        `db:"user_b" json:"-"`
	Latest    LatestMessage `json:"latestMessage"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// HasUser reports whether userID participates in the chat.
func (c *Chat) HasUser(userID string) bool {
	return c.UserA == userID || c.UserB == userID
}

// OtherUser returns the participant that is not userID, or "" when the chat
// has no such participant.
func (c *Chat) OtherUser(userID string) string {
	switch userID {
	case c.UserA:
		return c.UserB
	case c.UserB:
		return c.UserA
	default:
		return ""
	}
}

// Image is an attachment reference carried by an image message; the blob
// itself lives in the object store.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Message belongs to exactly one chat. Immutable once created except for the
// seen/seenAt transition, which only ever goes false -> true.
type Message struct {
	ID        string      `db:"id" json:"_id"`
	ChatID    string      `db:"chat_id" json:"chatId"`
	SenderID  string      `db:"sender_id" json:"sender"`
	Text      string      `db:"text" json:"text,omitempty"`
	Image     *Image      `json:"image,omitempty"`
	Kind      MessageKind `db:"kind" json:"messageType"`
	Seen      bool        `db:"seen" json:"seen"`
	SeenAt    *time.Time  `db:"seen_at" json:"seenAt,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}
