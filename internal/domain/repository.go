package domain

import "context"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
}

// ChatRepository defines persistence operations for chats.
type ChatRepository interface {
	// GetOrCreate returns the chat for the unordered pair {a, b}, creating it
	// if absent. Idempotent under concurrent creation attempts.
	GetOrCreate(ctx context.Context, a, b string) (*Chat, error)
	GetByID(ctx context.Context, id string) (*Chat, error)
	ListForUser(ctx context.Context, userID string) ([]*Chat, error)
	// TouchSummary updates the denormalized latest-message fields and bumps
	// updated_at. Idempotent.
	TouchSummary(ctx context.Context, chatID, text, senderID string) error
	UnseenCount(ctx context.Context, chatID, userID string) (int, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListForChat(ctx context.Context, chatID string) ([]*Message, error)
	// MarkSeenBatch marks every unseen message in the chat not sent by
	// viewerID as seen, stamping seen_at, and returns the affected ids.
	MarkSeenBatch(ctx context.Context, chatID, viewerID string) ([]string, error)
}
