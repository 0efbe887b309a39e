package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatapp/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatRepository = (*ChatRepo)(nil)

func normalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *ChatRepo) GetOrCreate(ctx context.Context, a, b string) (*domain.Chat, error) {
	userA, userB := normalizePair(a, b)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO chats (id, user_a, user_b, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), userA, userB, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	return r.scanChat(ctx, `
		SELECT id, user_a, user_b, latest_text, latest_sender, created_at, updated_at
		FROM chats WHERE user_a = ? AND user_b = ?
	`, userA, userB)
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	c, err := r.scanChat(ctx, `
		SELECT id, user_a, user_b, latest_text, latest_sender, created_at, updated_at
		FROM chats WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_a, user_b, latest_text, latest_sender, created_at, updated_at
		FROM chats
		WHERE user_a = ? OR user_b = ?
		ORDER BY updated_at DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var res []*domain.Chat
	for rows.Next() {
		c := &domain.Chat{}
		if err := rows.Scan(&c.ID, &c.UserA, &c.UserB, &c.Latest.Text, &c.Latest.Sender, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ChatRepo) TouchSummary(ctx context.Context, chatID, text, senderID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chats SET latest_text = ?, latest_sender = ?, updated_at = ?
		WHERE id = ?
	`, text, senderID, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("touch chat summary: %w", err)
	}
	return nil
}

func (r *ChatRepo) UnseenCount(ctx context.Context, chatID, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE chat_id = ? AND sender_id <> ? AND seen = FALSE
	`, chatID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unseen: %w", err)
	}
	return count, nil
}

func (r *ChatRepo) scanChat(ctx context.Context, query string, args ...any) (*domain.Chat, error) {
	c := &domain.Chat{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.Latest.Text, &c.Latest.Sender, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
