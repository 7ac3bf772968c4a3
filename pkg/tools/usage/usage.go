// Package usage exposes a free tool for inspecting the caller's token
// balance and metered action history. It is never charged or cached.
package usage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/ledger"
	"github.com/wolframtools/wolfram-mcp/pkg/server"
	"github.com/wolframtools/wolfram-mcp/pkg/storage"
	"github.com/wolframtools/wolfram-mcp/pkg/tools"
)

type Input struct {
	Action   string `json:"action" validate:"required,oneof=balance list get"`
	ActionID string `json:"action_id,omitempty"`
	Limit    int    `json:"limit,omitempty" validate:"min=0,max=100"`
	Offset   int    `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	store     storage.Storage
	ledger    ledger.Ledger
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        "usage",
		Description: "Inspect token usage. Actions: balance (current tokens), list (paginated action history), get (action by ID). Free of charge.",
	}

	t.store = srv.Storage()
	t.ledger = srv.Ledger()

	mcp.AddTool(&srv.Server, tool, t.UsageHandler)
	t.logger.Debug().Msg("usage tool registered")

	return nil
}

func (t *Tool) UsageHandler(ctx context.Context, req *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	userID := tools.UserID(req)
	if userID == "" {
		return tools.TextResult("unauthenticated: no user identity in request context", true), nil, nil
	}

	return t.run(ctx, userID, input)
}

func (t *Tool) run(ctx context.Context, userID string, input Input) (*mcp.CallToolResult, any, error) {
	var resultText string

	switch input.Action {
	case "balance":
		check, err := t.ledger.CheckBalance(ctx, userID, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check balance: %w", err)
		}
		if check.UserDeleted {
			return tools.TextResult("account deleted: no token balance available", true), nil, nil
		}
		resultText = fmt.Sprintf("Current balance: %d tokens", check.CurrentBalance)

	case "list":
		limit := input.Limit
		if limit == 0 {
			limit = 10
		}
		actions, total, err := t.store.GetActions(ctx, userID, limit, input.Offset)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list actions: %w", err)
		}
		data, _ := json.MarshalIndent(map[string]any{
			"total":   total,
			"limit":   limit,
			"offset":  input.Offset,
			"actions": actions,
		}, "", "  ")
		resultText = string(data)

	case "get":
		if input.ActionID == "" {
			return nil, nil, fmt.Errorf("action_id is required for get action")
		}
		action, err := t.store.GetAction(ctx, input.ActionID)
		if err != nil {
			return nil, nil, fmt.Errorf("action not found: %w", err)
		}
		if action.UserID != userID {
			return nil, nil, fmt.Errorf("action not found")
		}
		data, _ := json.MarshalIndent(action, "", "  ")
		resultText = string(data)
	}

	return tools.TextResult(resultText, false), nil, nil
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "usage").Logger(),
		validator: validator.New(),
	}
}
