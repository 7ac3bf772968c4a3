package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "wolfram-mcp", cfg.Server.Name)
	assert.Equal(t, "localhost:8989", cfg.Server.Bind)
	assert.Equal(t, int64(2), cfg.Costs.QuickAnswer)
	assert.Equal(t, int64(4), cfg.Costs.DetailedAnalysis)
	assert.Equal(t, 900, cfg.Cache.TTLSeconds)
	assert.True(t, cfg.Redaction.CreditCard)
	assert.False(t, cfg.Redaction.Email, "email redaction must be off by default")
	require.NoError(t, Validate(cfg))
}

func TestLoadFromReader(t *testing.T) {
	yaml := `
server:
  name: my-gateway
  bind: 0.0.0.0:9000
wolfram:
  app_id: TESTID
costs:
  quick_answer: 1
  detailed_analysis: 3
cache:
  ttl_seconds: 60
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "my-gateway", cfg.Server.Name)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Bind)
	assert.Equal(t, "TESTID", cfg.Wolfram.AppID)
	assert.Equal(t, int64(1), cfg.Costs.QuickAnswer)
	assert.Equal(t, int64(3), cfg.Costs.DetailedAnalysis)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	// Unspecified sections keep their defaults.
	assert.True(t, cfg.Redaction.Phone)
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("bogus_section:\n  x: 1\n"))
	assert.Error(t, err)
}

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "wolfram-mcp", cfg.Server.Name)
}

func TestValidate_NegativeCost(t *testing.T) {
	cfg := Default()
	cfg.Costs.QuickAnswer = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quick_answer")
}

func TestValidate_ZeroTTL(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTLSeconds = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ttl_seconds")
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	cfg := Default()
	cfg.Server.Name = ""
	cfg.Costs.DetailedAnalysis = -5

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.name")
	assert.Contains(t, err.Error(), "detailed_analysis")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("WOLFRAM_APP_ID", "ENV-APPID")

	cfg := Default()
	ApplyEnv(cfg)
	assert.Equal(t, "ENV-APPID", cfg.Wolfram.AppID)
}

func TestRedactOptions(t *testing.T) {
	cfg := Default()
	cfg.Redaction.Placeholder = ""

	opts := cfg.RedactOptions()
	assert.True(t, opts.CreditCard)
	assert.False(t, opts.Email)
	assert.Equal(t, "[REDACTED]", opts.Placeholder)
}

func TestCacheTTL(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "15m0s", cfg.Cache.TTL().String())
}
