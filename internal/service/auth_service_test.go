package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatapp/internal/domain"
	"chatapp/internal/queue"
	"chatapp/internal/security"
)

func testTokens() *security.TokenService {
	return security.NewTokenService("test-secret", time.Hour)
}

func TestRequestOTPEnqueuesMail(t *testing.T) {
	users := &mockUserRepo{}
	otps := &mockOTPStore{}
	pub := &mockPublisher{}
	svc := NewAuthService(users, otps, testTokens(), pub)

	otps.On("Issue", mock.Anything, "alice@example.com").Return("123456", nil)
	pub.On("PublishOTPMail", mock.Anything, mock.MatchedBy(func(m queue.OTPMail) bool {
		return m.To == "alice@example.com" && m.Subject == "Your OTP Code"
	})).Return(nil)

	err := svc.RequestOTP(context.Background(), "alice@example.com")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestRequestOTPPropagatesRateLimit(t *testing.T) {
	users := &mockUserRepo{}
	otps := &mockOTPStore{}
	pub := &mockPublisher{}
	svc := NewAuthService(users, otps, testTokens(), pub)

	otps.On("Issue", mock.Anything, "alice@example.com").Return("", domain.ErrRateLimited)

	err := svc.RequestOTP(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	pub.AssertNotCalled(t, "PublishOTPMail", mock.Anything, mock.Anything)
}

func TestVerifyOTPExistingUser(t *testing.T) {
	users := &mockUserRepo{}
	otps := &mockOTPStore{}
	svc := NewAuthService(users, otps, testTokens(), &mockPublisher{})

	alice := &domain.User{ID: "u1", Name: "alice", Email: "alice@example.com"}
	otps.On("Verify", mock.Anything, "alice@example.com", "123456").Return(nil)
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(alice, nil)

	res, err := svc.VerifyOTP(context.Background(), "alice@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, alice, res.User)
	assert.Equal(t, "bearer", res.TokenType)
	assert.NotEmpty(t, res.AccessToken)

	sub, err := testTokens().Subject(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyOTPCreatesAccountOnFirstLogin(t *testing.T) {
	users := &mockUserRepo{}
	otps := &mockOTPStore{}
	svc := NewAuthService(users, otps, testTokens(), &mockPublisher{})

	otps.On("Verify", mock.Anything, "bob@example.com", "123456").Return(nil)
	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "bob@example.com" && u.Name == "bob"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = "u2"
	}).Return(nil)

	res, err := svc.VerifyOTP(context.Background(), "bob@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "u2", res.User.ID)
	assert.Equal(t, "bob", res.User.Name)
	users.AssertExpectations(t)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	users := &mockUserRepo{}
	otps := &mockOTPStore{}
	svc := NewAuthService(users, otps, testTokens(), &mockPublisher{})

	otps.On("Verify", mock.Anything, "alice@example.com", "000000").Return(domain.ErrAuthentication)

	_, err := svc.VerifyOTP(context.Background(), "alice@example.com", "000000")
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUpdateNameReissuesToken(t *testing.T) {
	users := &mockUserRepo{}
	svc := NewAuthService(users, &mockOTPStore{}, testTokens(), &mockPublisher{})

	renamed := &domain.User{ID: "u1", Name: "Alice Cooper", Email: "alice@example.com"}
	users.On("UpdateName", mock.Anything, "u1", "Alice Cooper").Return(renamed, nil)

	res, err := svc.UpdateName(context.Background(), "u1", "Alice Cooper")
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", res.User.Name)
	assert.NotEmpty(t, res.AccessToken)
}

func TestUpdateNameUnknownUser(t *testing.T) {
	users := &mockUserRepo{}
	svc := NewAuthService(users, &mockOTPStore{}, testTokens(), &mockPublisher{})

	users.On("UpdateName", mock.Anything, "ghost", "Name").Return(nil, domain.ErrNotFound)

	_, err := svc.UpdateName(context.Background(), "ghost", "Name")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequestOTPPublishFailure(t *testing.T) {
	otps := &mockOTPStore{}
	pub := &mockPublisher{}
	svc := NewAuthService(&mockUserRepo{}, otps, testTokens(), pub)

	otps.On("Issue", mock.Anything, "alice@example.com").Return("123456", nil)
	pub.On("PublishOTPMail", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	err := svc.RequestOTP(context.Background(), "alice@example.com")
	assert.Error(t, err)
}
