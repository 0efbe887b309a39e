package postgres

import (
	"context"
	"database/sql"
	"fmt"

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
	var imageURL, imagePublicID *string
	if m.Image != nil {
		imageURL = &m.Image.URL
		imagePublicID = &m.Image.PublicID
	}
	query := `
		INSERT INTO messages (id, chat_id, sender_id, text, image_url, image_public_id, kind, seen, seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.ChatID, m.SenderID, m.Text, imageURL, imagePublicID, m.Kind, m.Seen, m.SeenAt,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForChat(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, text, image_url, image_public_id, kind, seen, seen_at, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) MarkSeenBatch(ctx context.Context, chatID, viewerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE messages
		SET seen = TRUE, seen_at = NOW()
		WHERE chat_id = $1 AND sender_id <> $2 AND seen = FALSE
		RETURNING id
	`, chatID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("mark seen batch: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan message id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanMessage(rows *sql.Rows) (*domain.Message, error) {
	m := &domain.Message{}
	var imageURL, imagePublicID sql.NullString
	if err := rows.Scan(
		&m.ID,
		&m.ChatID,
		&m.SenderID,
		&m.Text,
		&imageURL,
		&imagePublicID,
		&m.Kind,
		&m.Seen,
		&m.SeenAt,
		&m.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if imageURL.Valid {
		m.Image = &domain.Image{URL: imageURL.String, PublicID: imagePublicID.String}
	}
	return m, nil
}
