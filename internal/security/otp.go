package security

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"chatapp/internal/domain"
)

// Redis key prefixes.
const (
	otpPrefix       = "otp:"           // otp:{email} -> bcrypt hash of the code
	rateLimitPrefix = "otp:ratelimit:" // otp:ratelimit:{email} -> issue guard
)

// OTPStore issues and verifies one-time login codes backed by Redis. Codes
// are stored bcrypt-hashed so a Redis dump never leaks usable codes.
type OTPStore struct {
	rdb       *redis.Client
	ttl       time.Duration
	rateLimit time.Duration
}

func NewOTPStore(rdb *redis.Client, ttl, rateLimit time.Duration) *OTPStore {
	return &OTPStore{
		rdb:       rdb,
		ttl:       ttl,
		rateLimit: rateLimit,
	}
}

// Issue generates a 6-digit code for the email and stores its hash. Returns
// domain.ErrRateLimited when a code was already issued within the rate-limit
// window.
func (s *OTPStore) Issue(ctx context.Context, email string) (string, error) {
	ok, err := s.rdb.SetNX(ctx, rateLimitPrefix+email, "1", s.rateLimit).Result()
	if err != nil {
		return "", fmt.Errorf("otp rate limit: %w", err)
	}
	if !ok {
		return "", domain.ErrRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	if err := s.rdb.Set(ctx, otpPrefix+email, hash, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks the code against the stored hash and consumes it on success.
// Returns domain.ErrAuthentication for missing, expired, or wrong codes.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	key := otpPrefix + email
	hash, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrAuthentication
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return domain.ErrAuthentication
	}

	// Single use: a matching code is deleted even if the caller's request
	// later fails, same as the original flow.
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
