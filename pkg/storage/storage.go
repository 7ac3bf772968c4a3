package storage

import (
	"context"
	"errors"
	"time"

	"github.com/wolframtools/wolfram-mcp/pkg/models"
)

var (
	// ErrUserNotFound is returned when no balance row exists for a user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserDeleted is returned when the user's balance row was soft-deleted.
	ErrUserDeleted = errors.New("user deleted")
	// ErrInsufficientBalance is returned when a consume would drive the
	// balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Storage interface {
	// Balance operations
	GetBalance(ctx context.Context, userID string) (*models.TokenBalance, error)
	CreditBalance(ctx context.Context, userID string, amount int64) (*models.TokenBalance, error)
	// DeleteBalance soft-deletes a user's balance row, marking the
	// account as deleted for subsequent balance checks.
	DeleteBalance(ctx context.Context, userID string) error

	// ConsumeAction atomically records the action and deducts its cost.
	// Replaying an ActionID that was already recorded is a no-op.
	ConsumeAction(ctx context.Context, action *models.Action) error

	// Action record operations
	GetAction(ctx context.Context, actionID string) (*models.Action, error)
	GetActions(ctx context.Context, userID string, limit, offset int) ([]models.Action, int64, error)

	// Cache operations
	GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error)
	PutCacheEntry(ctx context.Context, key, value string, ttl time.Duration) error
	PurgeExpiredCacheEntries(ctx context.Context) (int64, error)

	// Lifecycle
	Close() error
}
