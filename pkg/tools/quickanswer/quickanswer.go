// Package quickanswer exposes the WolframAlpha short answer endpoint as a
// token-metered MCP tool.
package quickanswer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/pipeline"
	"github.com/wolframtools/wolfram-mcp/pkg/server"
	"github.com/wolframtools/wolfram-mcp/pkg/tools"
	"github.com/wolframtools/wolfram-mcp/pkg/types"
	"github.com/wolframtools/wolfram-mcp/pkg/wolfram"
)

const (
	toolName = "wolfram_quick_answer"

	// cacheToolName keys cache entries and action records independently
	// of the MCP-facing tool name.
	cacheToolName = "getQuickAnswer"
)

// Input defines the MCP tool input parameters.
type Input struct {
	Query string `json:"query" validate:"required,min=1"`
	Units string `json:"units,omitempty" validate:"omitempty,oneof=metric imperial"`
}

// Tool implements the quick answer lookup.
type Tool struct {
	logger      zerolog.Logger
	validator   *validator.Validate
	cost        int64
	pipeline    *pipeline.Pipeline
	client      *wolfram.Client
	resolveUser func(*mcp.CallToolRequest) string
}

// Register registers the quick answer tool with the MCP server.
func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        toolName,
		Description: fmt.Sprintf("Get a short plain-text answer from WolframAlpha for a natural-language query. Costs %d tokens per uncached call.", t.cost),
	}

	t.pipeline = srv.Pipeline()
	t.client = srv.Wolfram()

	mcp.AddTool(&srv.Server, tool, t.Handler)
	t.logger.Debug().Msg("quick answer tool registered")

	return nil
}

// Handler handles MCP tool requests.
func (t *Tool) Handler(ctx context.Context, req *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	inputJSON, _ := json.Marshal(input)

	canonical := input.Query
	if input.Units != "" {
		canonical += " " + input.Units
	}

	result := t.pipeline.Execute(ctx, pipeline.Request{
		ToolName:       cacheToolName,
		UserID:         t.resolveUser(req),
		Input:          string(inputJSON),
		CanonicalQuery: canonical,
		Cost:           t.cost,
		MaxLength:      types.MaxQuickAnswerLength,
		Call: func(ctx context.Context) (string, error) {
			return t.client.GetQuickAnswer(ctx, input.Query, input.Units)
		},
	})

	return tools.TextResult(result.Text, result.IsError), nil, nil
}

// New creates a new quick answer tool charging cost tokens per call.
func New(logger zerolog.Logger, cost int64) tools.Tool {
	return &Tool{
		logger:      logger.With().Str("tool", toolName).Logger(),
		validator:   validator.New(),
		cost:        cost,
		resolveUser: tools.UserID,
	}
}
