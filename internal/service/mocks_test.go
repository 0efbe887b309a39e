package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatapp/internal/domain"
	"chatapp/internal/queue"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	var u *domain.User
	if v := args.Get(0); v != nil {
		u = v.(*domain.User)
	}
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	var u *domain.User
	if v := args.Get(0); v != nil {
		u = v.(*domain.User)
	}
	return u, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	var users []*domain.User
	if v := args.Get(0); v != nil {
		users = v.([]*domain.User)
	}
	return users, args.Error(1)
}

func (m *mockUserRepo) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	args := m.Called(ctx, id, name)
	var u *domain.User
	if v := args.Get(0); v != nil {
		u = v.(*domain.User)
	}
	return u, args.Error(1)
}

type mockChatRepo struct {
	mock.Mock
}

func (m *mockChatRepo) GetOrCreate(ctx context.Context, a, b string) (*domain.Chat, error) {
	args := m.Called(ctx, a, b)
	var c *domain.Chat
	if v := args.Get(0); v != nil {
		c = v.(*domain.Chat)
	}
	return c, args.Error(1)
}

func (m *mockChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	args := m.Called(ctx, id)
	var c *domain.Chat
	if v := args.Get(0); v != nil {
		c = v.(*domain.Chat)
	}
	return c, args.Error(1)
}

func (m *mockChatRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []*domain.Chat
	if v := args.Get(0); v != nil {
		chats = v.([]*domain.Chat)
	}
	return chats, args.Error(1)
}

func (m *mockChatRepo) TouchSummary(ctx context.Context, chatID, text, senderID string) error {
	return m.Called(ctx, chatID, text, senderID).Error(0)
}

func (m *mockChatRepo) UnseenCount(ctx context.Context, chatID, userID string) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageRepo) ListForChat(ctx context.Context, chatID string) ([]*domain.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []*domain.Message
	if v := args.Get(0); v != nil {
		msgs = v.([]*domain.Message)
	}
	return msgs, args.Error(1)
}

func (m *mockMessageRepo) MarkSeenBatch(ctx context.Context, chatID, viewerID string) ([]string, error) {
	args := m.Called(ctx, chatID, viewerID)
	var ids []string
	if v := args.Get(0); v != nil {
		ids = v.([]string)
	}
	return ids, args.Error(1)
}

type mockOTPStore struct {
	mock.Mock
}

func (m *mockOTPStore) Issue(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockOTPStore) Verify(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOTPMail(ctx context.Context, mail queue.OTPMail) error {
	return m.Called(ctx, mail).Error(0)
}
