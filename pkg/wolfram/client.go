// Package wolfram wraps the WolframAlpha short answer and LLM API endpoints
// and maps their HTTP failure modes onto typed errors. The client never
// retries; retry policy belongs to the caller.
package wolfram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.wolframalpha.com"

	quickAnswerPath = "/v1/result"
	llmAPIPath      = "/v1/llm-api"

	defaultTimeout = 30 * time.Second
)

var (
	// ErrInvalidQuery is returned on HTTP 400: the query parameters were
	// malformed or empty.
	ErrInvalidQuery = errors.New("invalid query format")
	// ErrInvalidCredentials is returned on HTTP 403: the app ID was
	// rejected by upstream.
	ErrInvalidCredentials = errors.New("invalid application credentials")
)

// UninterpretableError is returned on HTTP 501: WolframAlpha could not
// derive a meaning from the query. Suggestion carries any rephrasing hint
// the upstream included in the response body.
type UninterpretableError struct {
	Suggestion string
}

func (e *UninterpretableError) Error() string {
	if e.Suggestion == "" {
		return "query could not be interpreted"
	}
	return fmt.Sprintf("query could not be interpreted: %s", e.Suggestion)
}

// UpstreamError is returned for any other non-2xx response.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	logger     zerolog.Logger
}

func NewClient(appID, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		appID:      appID,
		logger:     logger.With().Str("component", "wolfram").Logger(),
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// GetQuickAnswer queries the short answer endpoint and returns the trimmed
// plain-text result. units may be "metric", "imperial" or empty.
func (c *Client) GetQuickAnswer(ctx context.Context, query, units string) (string, error) {
	params := url.Values{}
	params.Set("appid", c.appID)
	params.Set("i", query)
	if units != "" {
		params.Set("units", units)
	}
	return c.get(ctx, quickAnswerPath, params, false)
}

// GetDetailedAnalysis queries the LLM API endpoint, which returns a longer
// text answer with embedded structured data. maxchars bounds the upstream
// response size; zero means the upstream default.
func (c *Client) GetDetailedAnalysis(ctx context.Context, query string, maxchars int) (string, error) {
	params := url.Values{}
	params.Set("appid", c.appID)
	params.Set("input", query)
	if maxchars > 0 {
		params.Set("maxchars", strconv.Itoa(maxchars))
	}
	return c.get(ctx, llmAPIPath, params, true)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, surfaceBody bool) (string, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return strings.TrimSpace(string(body)), nil
	case resp.StatusCode == http.StatusNotImplemented:
		suggestion := ""
		if surfaceBody {
			suggestion = strings.TrimSpace(string(body))
		}
		c.logger.Debug().Str("path", path).Msg("query not interpretable")
		return "", &UninterpretableError{Suggestion: suggestion}
	case resp.StatusCode == http.StatusBadRequest:
		return "", ErrInvalidQuery
	case resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidCredentials
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("unexpected upstream status")
		return "", &UpstreamError{StatusCode: resp.StatusCode}
	}
}
