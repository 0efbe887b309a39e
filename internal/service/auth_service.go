package service

import (
	"context"
	"fmt"
	"strings"

	"chatapp/internal/domain"
	"chatapp/internal/queue"
	"chatapp/internal/security"
)

// OTPStore issues and verifies one-time login codes. Implemented by
// security.OTPStore.
type OTPStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
}

// AuthService handles the OTP login flow: request a code by email, verify
// it, and get back a bearer token. Accounts are created lazily on first
// successful verification.
type AuthService struct {
	users  domain.UserRepository
	otps   OTPStore
	tokens *security.TokenService
	mail   queue.Publisher
}

func NewAuthService(users domain.UserRepository, otps OTPStore, tokens *security.TokenService, mail queue.Publisher) *AuthService {
	return &AuthService{
		users:  users,
		otps:   otps,
		tokens: tokens,
		mail:   mail,
	}
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// RequestOTP issues a login code for the email and enqueues the OTP mail on
// the durable send-otp queue. The mail worker handles actual delivery.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	code, err := s.otps.Issue(ctx, email)
	if err != nil {
		return err
	}

	err = s.mail.PublishOTPMail(ctx, queue.OTPMail{
		To:      email,
		Subject: "Your OTP Code",
		Body:    fmt.Sprintf("Your OTP code is %s. It is valid for 5 minutes", code),
	})
	if err != nil {
		return fmt.Errorf("enqueue otp mail: %w", err)
	}
	return nil
}

// VerifyOTP checks the code, creates the account if this is a first login,
// and returns a bearer token for the user.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*TokenResponse, error) {
	if err := s.otps.Verify(ctx, email, code); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		name := email
		if i := strings.Index(email, "@"); i > 0 {
			name = email[:i]
		}
		user = &domain.User{Name: name, Email: email}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

// UpdateName renames the user and re-issues a token, mirroring the profile
// update flow.
func (s *AuthService) UpdateName(ctx context.Context, userID, name string) (*TokenResponse, error) {
	user, err := s.users.UpdateName(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
