// Package pipeline sequences every metered tool call: cache lookup,
// balance check, upstream call, sanitize/redact, idempotent charge,
// cache store, response. Errors at any step become error-flagged results;
// nothing escapes to the transport layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/cache"
	"github.com/wolframtools/wolfram-mcp/pkg/ledger"
	"github.com/wolframtools/wolfram-mcp/pkg/sanitize"
	"github.com/wolframtools/wolfram-mcp/pkg/types"
	"github.com/wolframtools/wolfram-mcp/pkg/wolfram"
)

// Request describes one tool invocation to be metered.
type Request struct {
	// ToolName is the stable name used in cache keys and action records.
	ToolName string
	// UserID is the authenticated caller; empty means unauthenticated.
	UserID string
	// Input is the raw argument set, serialized for the action record.
	Input string
	// CanonicalQuery is the deterministic serialization of the arguments
	// used for cache keying.
	CanonicalQuery string
	// Cost is the token fee for this tool.
	Cost int64
	// MaxLength bounds the sanitized output.
	MaxLength int
	// Call performs the upstream query. It must be read-only and must
	// not retry internally.
	Call func(ctx context.Context) (string, error)
}

// Result is what a tool handler turns into an MCP response.
type Result struct {
	Text    string
	IsError bool
	Cached  bool
}

type Pipeline struct {
	cache      *cache.Memoizer
	ledger     ledger.Ledger
	redactOpts sanitize.RedactOptions
	serverName string
	logger     zerolog.Logger
}

func New(memoizer *cache.Memoizer, ldgr ledger.Ledger, redactOpts sanitize.RedactOptions, serverName string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cache:      memoizer,
		ledger:     ldgr,
		redactOpts: redactOpts,
		serverName: serverName,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

func errorResult(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...), IsError: true}
}

// Execute runs the metered call sequence. Ordering invariants: the balance
// is checked before the upstream call so a broke user never incurs an
// upstream cost; the charge happens after sanitize/redact so the ledger
// never records raw upstream text; the cache is written after the charge
// so cached content was paid for and sanitized on first occurrence.
func (p *Pipeline) Execute(ctx context.Context, req Request) Result {
	if req.UserID == "" {
		return errorResult("unauthenticated: no user identity in request context")
	}

	log := p.logger.With().Str("tool", req.ToolName).Str("user_id", req.UserID).Logger()

	key := cache.Key(req.ToolName, req.CanonicalQuery)
	if cached, ok := p.cache.Get(ctx, key); ok {
		// Cache hits are free: no balance check, no upstream call, no charge.
		return Result{Text: types.CachedResultPrefix + cached, Cached: true}
	}

	// One action ID per logical invocation, minted before any paid work
	// and reused across the ledger's internal retries.
	actionID := uuid.NewString()

	check, err := p.ledger.CheckBalance(ctx, req.UserID, req.Cost)
	if err != nil {
		log.Error().Err(err).Msg("balance check failed")
		return errorResult("balance check failed: %v", err)
	}
	if check.UserDeleted {
		return errorResult("account deleted: no token balance available")
	}
	if !check.Sufficient {
		return errorResult("insufficient balance: have %d tokens, need %d", check.CurrentBalance, req.Cost)
	}

	raw, err := req.Call(ctx)
	if err != nil {
		return p.upstreamError(log, err)
	}

	clean := sanitize.Sanitize(raw, sanitize.DefaultOptions(req.MaxLength))
	redacted, categories := sanitize.Redact(clean, p.redactOpts)
	if len(categories) > 0 {
		log.Info().Strs("categories", categories).Msg("sensitive data redacted from output")
	}

	err = p.ledger.ConsumeWithRetry(ctx, ledger.Action{
		ActionID:   actionID,
		UserID:     req.UserID,
		Cost:       req.Cost,
		ServerName: p.serverName,
		ToolName:   req.ToolName,
		Input:      req.Input,
		Output:     redacted,
		Success:    true,
	})
	if err != nil {
		log.Error().Err(err).Str("action_id", actionID).Msg("charge failed")
		return errorResult("charge failed: %v", err)
	}

	p.cache.Put(ctx, key, redacted)
	log.Debug().Str("action_id", actionID).Int64("cost", req.Cost).Msg("tool call completed")

	return Result{Text: redacted}
}

// upstreamError maps the client's typed failures onto distinct
// human-readable error results so the calling agent can decide whether
// rephrasing or different arguments would help.
func (p *Pipeline) upstreamError(log zerolog.Logger, err error) Result {
	var uninterpretable *wolfram.UninterpretableError
	var upstream *wolfram.UpstreamError

	switch {
	case errors.As(err, &uninterpretable):
		msg := "WolframAlpha could not interpret the query. Try rephrasing it."
		if uninterpretable.Suggestion != "" {
			msg = fmt.Sprintf("%s Suggestion: %s", msg, uninterpretable.Suggestion)
		}
		return Result{Text: msg, IsError: true}
	case errors.Is(err, wolfram.ErrInvalidQuery):
		return errorResult("invalid query format: the query parameters were rejected upstream")
	case errors.Is(err, wolfram.ErrInvalidCredentials):
		log.Error().Msg("upstream rejected application credentials")
		return errorResult("invalid credentials: the WolframAlpha app ID was rejected")
	case errors.As(err, &upstream):
		log.Warn().Int("status", upstream.StatusCode).Msg("upstream unavailable")
		return errorResult("upstream error: WolframAlpha returned status %d", upstream.StatusCode)
	default:
		log.Error().Err(err).Msg("upstream call failed")
		return errorResult("query failed: %v", err)
	}
}
