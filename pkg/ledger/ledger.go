// Package ledger tracks per-user token balances and charges tool
// invocations against them. Consumption is idempotent per action ID and
// retried internally on transient storage errors; the same action ID is
// used across all attempts of one logical charge.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/models"
	"github.com/wolframtools/wolfram-mcp/pkg/storage"
)

const (
	maxRetryElapsed = 5 * time.Second
	initialInterval = 50 * time.Millisecond
)

// BalanceCheck is the synchronous answer to "can this user afford cost".
type BalanceCheck struct {
	Sufficient     bool
	CurrentBalance int64
	UserDeleted    bool
}

// Action describes one charge against a user's balance.
type Action struct {
	ActionID   string
	UserID     string
	Cost       int64
	ServerName string
	ToolName   string
	Input      string
	Output     string
	Success    bool
}

type Ledger interface {
	CheckBalance(ctx context.Context, userID string, cost int64) (BalanceCheck, error)
	ConsumeWithRetry(ctx context.Context, action Action) error
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
}

type SQLLedger struct {
	store  storage.Storage
	logger zerolog.Logger
}

func New(store storage.Storage, logger zerolog.Logger) *SQLLedger {
	return &SQLLedger{
		store:  store,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

func (l *SQLLedger) CheckBalance(ctx context.Context, userID string, cost int64) (BalanceCheck, error) {
	balance, err := l.store.GetBalance(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrUserDeleted):
		return BalanceCheck{UserDeleted: true}, nil
	case errors.Is(err, storage.ErrUserNotFound):
		return BalanceCheck{}, nil
	case err != nil:
		return BalanceCheck{}, err
	}
	return BalanceCheck{
		Sufficient:     balance.Balance >= cost,
		CurrentBalance: balance.Balance,
	}, nil
}

// ConsumeWithRetry charges the action, retrying transient storage errors
// with exponential backoff. Insufficient balance and missing users are
// permanent failures; a replayed action ID succeeds without deducting.
func (l *SQLLedger) ConsumeWithRetry(ctx context.Context, action Action) error {
	record := &models.Action{
		ActionID:   action.ActionID,
		UserID:     action.UserID,
		Cost:       action.Cost,
		ServerName: action.ServerName,
		ToolName:   action.ToolName,
		Input:      action.Input,
		Output:     action.Output,
		Success:    action.Success,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialInterval
	policy.MaxElapsedTime = maxRetryElapsed

	operation := func() error {
		err := l.store.ConsumeAction(ctx, record)
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrInsufficientBalance) ||
			errors.Is(err, storage.ErrUserNotFound) ||
			errors.Is(err, storage.ErrUserDeleted) {
			return backoff.Permanent(err)
		}
		l.logger.Warn().Err(err).Str("action_id", action.ActionID).Msg("consume attempt failed, retrying")
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

func (l *SQLLedger) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	balance, err := l.store.CreditBalance(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	l.logger.Info().Str("user_id", userID).Int64("amount", amount).Int64("balance", balance.Balance).Msg("balance credited")
	return balance.Balance, nil
}
