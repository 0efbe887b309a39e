package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatapp/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	var imageURL, imagePublicID *string
	if m.Image != nil {
		imageURL = &m.Image.URL
		imagePublicID = &m.Image.PublicID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, text, image_url, image_public_id, kind, seen, seen_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ChatID, m.SenderID, m.Text, imageURL, imagePublicID, m.Kind, m.Seen, m.SeenAt, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForChat(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, text, image_url, image_public_id, kind, seen, seen_at, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		var imageURL, imagePublicID sql.NullString
		if err := rows.Scan(
			&m.ID, &m.ChatID, &m.SenderID, &m.Text,
			&imageURL, &imagePublicID, &m.Kind, &m.Seen, &m.SeenAt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if imageURL.Valid {
			m.Image = &domain.Image{URL: imageURL.String, PublicID: imagePublicID.String}
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// MarkSeenBatch selects the affected ids, then flips them inside one
// transaction so the returned ids match exactly what was updated.
func (r *MessageRepo) MarkSeenBatch(ctx context.Context, chatID, viewerID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM messages
		WHERE chat_id = ? AND sender_id <> ? AND seen = FALSE
	`, chatID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("select unseen: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan message id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	query := `UPDATE messages SET seen = TRUE, seen_at = ? WHERE id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("mark seen batch: %w", err)
	}
	return ids, tx.Commit()
}
