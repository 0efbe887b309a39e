package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatapp/internal/domain"
)

const maxMessageRunes = 5000

// imageSummary is what an image message shows as in the chat list.
const imageSummary = "📷 Image"

// Deliverer is the real-time side of the send path. Implemented by
// ws.Fanout; the service never touches connections directly.
type Deliverer interface {
	// IsViewing must be consulted before the message is persisted so the
	// stored seen flag matches the announced one.
	IsViewing(chatID, userID string) bool
	Deliver(chat *domain.Chat, msg *domain.Message, recipientViewing bool) error
	NotifySeen(chatID, seenBy, notifyUserID string, messageIDs []string)
}

// MessageService owns the send and read paths. Persistence is synchronous;
// fan-out runs afterwards in the background, so a successful response only
// guarantees the message is stored, not delivered.
type MessageService struct {
	chats     domain.ChatRepository
	messages  domain.MessageRepository
	deliverer Deliverer
	log       *slog.Logger
}

func NewMessageService(chats domain.ChatRepository, messages domain.MessageRepository, deliverer Deliverer, log *slog.Logger) *MessageService {
	return &MessageService{
		chats:     chats,
		messages:  messages,
		deliverer: deliverer,
		log:       log,
	}
}

type SendMessageInput struct {
	ChatID string
	Text   string
	Image  *domain.Image
}

// SendMessage persists a message and kicks off fan-out. Order matters: the
// recipient's viewing state is sampled first, the message is stored with the
// matching seen flag, the chat summary is touched best-effort, and only then
// do live connections hear about it.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput, senderID string) (*domain.Message, error) {
	if in.Text == "" && in.Image == nil {
		return nil, domain.ErrInvalidInput
	}
	if len([]rune(in.Text)) > maxMessageRunes {
		return nil, domain.ErrInvalidInput
	}

	chat, err := s.chats.GetByID(ctx, in.ChatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, domain.ErrNotFound
	}
	if !chat.HasUser(senderID) {
		return nil, domain.ErrForbidden
	}

	recipient := chat.OtherUser(senderID)
	recipientViewing := recipient != "" && s.deliverer.IsViewing(in.ChatID, recipient)

	kind := domain.MessageKindText
	if in.Image != nil {
		kind = domain.MessageKindImage
	}
	msg := &domain.Message{
		ChatID:   in.ChatID,
		SenderID: senderID,
		Text:     in.Text,
		Image:    in.Image,
		Kind:     kind,
		Seen:     recipientViewing,
	}
	if recipientViewing {
		now := time.Now().UTC()
		msg.SeenAt = &now
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	summary := in.Text
	if in.Image != nil {
		summary = imageSummary
	}
	if err := s.chats.TouchSummary(ctx, in.ChatID, summary, senderID); err != nil {
		// Summary is denormalized convenience data; the message row is the
		// source of truth, so the send does not fail here.
		s.log.Warn("touch chat summary failed", "chat", in.ChatID, "err", err)
	}

	go func() {
		if err := s.deliverer.Deliver(chat, msg, recipientViewing); err != nil {
			s.log.Error("message fan-out failed", "chat", in.ChatID, "message", msg.ID, "err", err)
		}
	}()

	return msg, nil
}

// OpenChat returns the chat history for a viewer and marks every unseen
// message from the counterpart as seen in one batch. The counterpart's
// connections get a single messagesSeen event listing the affected ids.
func (s *MessageService) OpenChat(ctx context.Context, chatID, viewerID string) ([]*domain.Message, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, domain.ErrNotFound
	}
	if !chat.HasUser(viewerID) {
		return nil, domain.ErrForbidden
	}

	seenIDs, err := s.messages.MarkSeenBatch(ctx, chatID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("mark seen: %w", err)
	}

	msgs, err := s.messages.ListForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if len(seenIDs) > 0 {
		if other := chat.OtherUser(viewerID); other != "" {
			go s.deliverer.NotifySeen(chatID, viewerID, other, seenIDs)
		}
	}

	return msgs, nil
}
