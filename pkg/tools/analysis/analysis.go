// Package analysis exposes the WolframAlpha LLM API endpoint as a
// token-metered MCP tool returning detailed step-by-step results.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

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
	toolName = "wolfram_detailed_analysis"

	cacheToolName = "getDetailedAnalysis"
)

// Input defines the MCP tool input parameters. MaxChars bounds the size
// of the upstream answer; zero means the default of 6800.
type Input struct {
	Query    string `json:"query" validate:"required,min=1"`
	MaxChars int    `json:"maxchars,omitempty" validate:"omitempty,min=1000,max=10000"`
}

// Tool implements the detailed analysis lookup.
type Tool struct {
	logger      zerolog.Logger
	validator   *validator.Validate
	cost        int64
	pipeline    *pipeline.Pipeline
	client      *wolfram.Client
	resolveUser func(*mcp.CallToolRequest) string
}

// Register registers the detailed analysis tool with the MCP server.
func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        toolName,
		Description: fmt.Sprintf("Get a detailed WolframAlpha analysis with computed data for a natural-language query. Costs %d tokens per uncached call.", t.cost),
	}

	t.pipeline = srv.Pipeline()
	t.client = srv.Wolfram()

	mcp.AddTool(&srv.Server, tool, t.Handler)
	t.logger.Debug().Msg("detailed analysis tool registered")

	return nil
}

// Handler handles MCP tool requests.
func (t *Tool) Handler(ctx context.Context, req *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	maxChars := input.MaxChars
	if maxChars == 0 {
		maxChars = types.DefaultMaxChars
	}

	inputJSON, _ := json.Marshal(input)

	// The resolved maxchars is part of the canonical query so requests
	// asking for different sizes do not share cache entries.
	canonical := input.Query + " " + strconv.Itoa(maxChars)

	result := t.pipeline.Execute(ctx, pipeline.Request{
		ToolName:       cacheToolName,
		UserID:         t.resolveUser(req),
		Input:          string(inputJSON),
		CanonicalQuery: canonical,
		Cost:           t.cost,
		MaxLength:      maxChars,
		Call: func(ctx context.Context) (string, error) {
			return t.client.GetDetailedAnalysis(ctx, input.Query, maxChars)
		},
	})

	return tools.TextResult(result.Text, result.IsError), nil, nil
}

// New creates a new detailed analysis tool charging cost tokens per call.
func New(logger zerolog.Logger, cost int64) tools.Tool {
	return &Tool{
		logger:      logger.With().Str("tool", toolName).Logger(),
		validator:   validator.New(),
		cost:        cost,
		resolveUser: tools.UserID,
	}
}
