package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAuthentication   = errors.New("authentication failed")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("resource already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("too many requests")
	ErrInvalidChatState = errors.New("chat has fewer than two participants")
)
