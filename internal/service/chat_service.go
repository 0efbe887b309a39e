package service

import (
	"context"
	"fmt"

	"chatapp/internal/domain"
)

// ChatService manages two-party chats.
type ChatService struct {
	chats domain.ChatRepository
	users domain.UserRepository
}

func NewChatService(chats domain.ChatRepository, users domain.UserRepository) *ChatService {
	return &ChatService{chats: chats, users: users}
}

// CreateChat returns the chat between the caller and otherUserID, creating
// it on first contact. Calling it twice for the same pair yields the same
// chat, including under concurrent creation.
func (s *ChatService) CreateChat(ctx context.Context, userID, otherUserID string) (*domain.Chat, error) {
	if otherUserID == "" || otherUserID == userID {
		return nil, domain.ErrInvalidInput
	}

	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("get other user: %w", err)
	}
	if other == nil {
		return nil, domain.ErrNotFound
	}

	return s.chats.GetOrCreate(ctx, userID, otherUserID)
}

// ChatWithMeta is a chat list entry: the chat, the counterpart's profile,
// and the viewer's unseen count.
type ChatWithMeta struct {
	User        *domain.User `json:"user"`
	Chat        *domain.Chat `json:"chat"`
	UnseenCount int          `json:"unseenCount"`
}

// ListChats returns the caller's chats ordered by last activity, each
// decorated with counterpart info and the unseen-message count.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]*ChatWithMeta, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*ChatWithMeta, 0, len(chats))
	for _, chat := range chats {
		unseen, err := s.chats.UnseenCount(ctx, chat.ID, userID)
		if err != nil {
			return nil, err
		}

		otherID := chat.OtherUser(userID)
		other, err := s.users.GetByID(ctx, otherID)
		if err != nil {
			return nil, fmt.Errorf("get counterpart: %w", err)
		}
		if other == nil {
			// Keep the chat listed even if the counterpart row is gone.
			other = &domain.User{ID: otherID, Name: "Unknown User"}
		}

		res = append(res, &ChatWithMeta{
			User:        other,
			Chat:        chat,
			UnseenCount: unseen,
		})
	}
	return res, nil
}

func (s *ChatService) GetChat(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, domain.ErrNotFound
	}
	if !chat.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	return chat, nil
}
