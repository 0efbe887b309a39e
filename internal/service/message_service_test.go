package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatapp/internal/domain"
)

type deliverCall struct {
	chat             *domain.Chat
	msg              *domain.Message
	recipientViewing bool
}

type notifyCall struct {
	chatID     string
	seenBy     string
	notifyUser string
	messageIDs []string
}

// fakeDeliverer records fan-out calls on channels so tests can wait for the
// background goroutines.
type fakeDeliverer struct {
	viewing    bool
	deliverErr error

	delivered chan deliverCall
	notified  chan notifyCall
}

func newFakeDeliverer(viewing bool) *fakeDeliverer {
	return &fakeDeliverer{
		viewing:   viewing,
		delivered: make(chan deliverCall, 1),
		notified:  make(chan notifyCall, 1),
	}
}

func (d *fakeDeliverer) IsViewing(chatID, userID string) bool {
	return d.viewing
}

func (d *fakeDeliverer) Deliver(chat *domain.Chat, msg *domain.Message, recipientViewing bool) error {
	d.delivered <- deliverCall{chat: chat, msg: msg, recipientViewing: recipientViewing}
	return d.deliverErr
}

func (d *fakeDeliverer) NotifySeen(chatID, seenBy, notifyUserID string, messageIDs []string) {
	d.notified <- notifyCall{chatID: chatID, seenBy: seenBy, notifyUser: notifyUserID, messageIDs: messageIDs}
}

func waitDeliver(t *testing.T, d *fakeDeliverer) deliverCall {
	t.Helper()
	select {
	case call := <-d.delivered:
		return call
	case <-time.After(time.Second):
		t.Fatal("Deliver was not called")
		return deliverCall{}
	}
}

func waitNotify(t *testing.T, d *fakeDeliverer) notifyCall {
	t.Helper()
	select {
	case call := <-d.notified:
		return call
	case <-time.After(time.Second):
		t.Fatal("NotifySeen was not called")
		return notifyCall{}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatAliceBob() *domain.Chat {
	return &domain.Chat{ID: "chat1", UserA: "alice", UserB: "bob"}
}

func TestSendMessageRecipientViewing(t *testing.T) {
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}
	deliverer := newFakeDeliverer(true)
	svc := NewMessageService(chats, messages, deliverer, discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)
	chats.On("TouchSummary", mock.Anything, "chat1", "hello", "alice").Return(nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		// The seen flag is decided before persistence.
		return m.Seen && m.SeenAt != nil
	})).Return(nil)

	msg, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "chat1", Text: "hello"}, "alice")
	require.NoError(t, err)
	assert.True(t, msg.Seen)
	assert.NotNil(t, msg.SeenAt)
	assert.Equal(t, domain.MessageKindText, msg.Kind)

	call := waitDeliver(t, deliverer)
	assert.True(t, call.recipientViewing)
	assert.Equal(t, msg, call.msg)
	messages.AssertExpectations(t)
}

func TestSendMessageRecipientNotViewing(t *testing.T) {
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}
	deliverer := newFakeDeliverer(false)
	svc := NewMessageService(chats, messages, deliverer, discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)
	chats.On("TouchSummary", mock.Anything, "chat1", "hello", "alice").Return(nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	msg, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "chat1", Text: "hello"}, "alice")
	require.NoError(t, err)
	assert.False(t, msg.Seen)
	assert.Nil(t, msg.SeenAt)

	call := waitDeliver(t, deliverer)
	assert.False(t, call.recipientViewing)
}

func TestSendMessageImageSummary(t *testing.T) {
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}
	deliverer := newFakeDeliverer(false)
	svc := NewMessageService(chats, messages, deliverer, discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)
	chats.On("TouchSummary", mock.Anything, "chat1", "📷 Image", "alice").Return(nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	img := &domain.Image{URL: "/api/v1/uploads/x.png", PublicID: "x.png"}
	msg, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "chat1", Image: img}, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageKindImage, msg.Kind)
	waitDeliver(t, deliverer)
	chats.AssertExpectations(t)
}

func TestSendMessageValidation(t *testing.T) {
	svc := NewMessageService(&mockChatRepo{}, &mockMessageRepo{}, newFakeDeliverer(false), discardLogger())

	_, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "chat1"}, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSendMessageUnknownChat(t *testing.T) {
	chats := &mockChatRepo{}
	svc := NewMessageService(chats, &mockMessageRepo{}, newFakeDeliverer(false), discardLogger())

	chats.On("GetByID", mock.Anything, "nope").Return(nil, nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "nope", Text: "hi"}, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendMessageNonMember(t *testing.T) {
	chats := &mockChatRepo{}
	svc := NewMessageService(chats, &mockMessageRepo{}, newFakeDeliverer(false), discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "chat1", Text: "hi"}, "mallory")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSendMessageSummaryFailureIsNonFatal(t *testing.T) {
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}
	deliverer := newFakeDeliverer(false)
	svc := NewMessageService(chats, messages, deliverer, discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)
	chats.On("TouchSummary", mock.Anything, "chat1", "hello", "alice").Return(errors.New("db hiccup"))
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	msg, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: "chat1", Text: "hello"}, "alice")
	require.NoError(t, err)
	assert.NotNil(t, msg)
	waitDeliver(t, deliverer)
}

func TestOpenChatMarksSeenAndNotifies(t *testing.T) {
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}
	deliverer := newFakeDeliverer(false)
	svc := NewMessageService(chats, messages, deliverer, discardLogger())

	history := []*domain.Message{
		{ID: "m1", ChatID: "chat1", SenderID: "alice", Seen: true},
		{ID: "m2", ChatID: "chat1", SenderID: "alice", Seen: true},
	}
	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)
	messages.On("MarkSeenBatch", mock.Anything, "chat1", "bob").Return([]string{"m1", "m2"}, nil)
	messages.On("ListForChat", mock.Anything, "chat1").Return(history, nil)

	msgs, err := svc.OpenChat(context.Background(), "chat1", "bob")
	require.NoError(t, err)
	assert.Equal(t, history, msgs)

	// One notification for the whole batch, aimed at the counterpart.
	call := waitNotify(t, deliverer)
	assert.Equal(t, "chat1", call.chatID)
	assert.Equal(t, "bob", call.seenBy)
	assert.Equal(t, "alice", call.notifyUser)
	assert.Equal(t, []string{"m1", "m2"}, call.messageIDs)
}

func TestOpenChatNothingUnseenIsSilent(t *testing.T) {
	chats := &mockChatRepo{}
	messages := &mockMessageRepo{}
	deliverer := newFakeDeliverer(false)
	svc := NewMessageService(chats, messages, deliverer, discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)
	messages.On("MarkSeenBatch", mock.Anything, "chat1", "bob").Return(nil, nil)
	messages.On("ListForChat", mock.Anything, "chat1").Return([]*domain.Message{}, nil)

	_, err := svc.OpenChat(context.Background(), "chat1", "bob")
	require.NoError(t, err)

	select {
	case <-deliverer.notified:
		t.Fatal("NotifySeen must not fire for an empty batch")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOpenChatEnforcesMembership(t *testing.T) {
	chats := &mockChatRepo{}
	svc := NewMessageService(chats, &mockMessageRepo{}, newFakeDeliverer(false), discardLogger())

	chats.On("GetByID", mock.Anything, "chat1").Return(chatAliceBob(), nil)

	_, err := svc.OpenChat(context.Background(), "chat1", "mallory")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
