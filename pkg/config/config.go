// Package config loads the YAML server configuration. Every field has a
// usable default so the server can run from flags alone; the Wolfram app
// ID may also come from the WOLFRAM_APP_ID environment variable.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wolframtools/wolfram-mcp/pkg/sanitize"
	"github.com/wolframtools/wolfram-mcp/pkg/types"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Wolfram   WolframConfig   `yaml:"wolfram"`
	Costs     CostsConfig     `yaml:"costs"`
	Cache     CacheConfig     `yaml:"cache"`
	Redaction RedactionConfig `yaml:"redaction"`
}

type ServerConfig struct {
	Name string `yaml:"name"`
	Bind string `yaml:"bind"`
}

type WolframConfig struct {
	AppID   string `yaml:"app_id"`
	BaseURL string `yaml:"base_url"`
}

type CostsConfig struct {
	QuickAnswer      int64 `yaml:"quick_answer"`
	DetailedAnalysis int64 `yaml:"detailed_analysis"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RedactionConfig struct {
	Phone       bool   `yaml:"phone"`
	CreditCard  bool   `yaml:"credit_card"`
	NationalID  bool   `yaml:"national_id"`
	BankAccount bool   `yaml:"bank_account"`
	Passport    bool   `yaml:"passport"`
	Email       bool   `yaml:"email"`
	Placeholder string `yaml:"placeholder"`
}

// Default returns the configuration used when no file is given.
// Email redaction stays off: addresses are often the queried answer.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "wolfram-mcp",
			Bind: "localhost:8989",
		},
		Wolfram: WolframConfig{
			BaseURL: "https://api.wolframalpha.com",
		},
		Costs: CostsConfig{
			QuickAnswer:      types.DefaultQuickAnswerCost,
			DetailedAnalysis: types.DefaultAnalysisCost,
		},
		Cache: CacheConfig{
			TTLSeconds: int(types.CacheTTL / time.Second),
		},
		Redaction: RedactionConfig{
			Phone:       true,
			CreditCard:  true,
			NationalID:  true,
			BankAccount: true,
			Passport:    true,
			Email:       false,
			Placeholder: types.RedactionPlaceholder,
		},
	}
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of the defaults and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment-provided secrets onto cfg.
func ApplyEnv(cfg *Config) {
	if appID := os.Getenv("WOLFRAM_APP_ID"); appID != "" {
		cfg.Wolfram.AppID = appID
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Name == "" {
		errs = append(errs, errors.New("server.name must not be empty"))
	}
	if cfg.Server.Bind == "" {
		errs = append(errs, errors.New("server.bind must not be empty"))
	}
	if cfg.Costs.QuickAnswer < 0 {
		errs = append(errs, fmt.Errorf("costs.quick_answer must not be negative, got %d", cfg.Costs.QuickAnswer))
	}
	if cfg.Costs.DetailedAnalysis < 0 {
		errs = append(errs, fmt.Errorf("costs.detailed_analysis must not be negative, got %d", cfg.Costs.DetailedAnalysis))
	}
	if cfg.Cache.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_seconds must be positive, got %d", cfg.Cache.TTLSeconds))
	}

	return errors.Join(errs...)
}

// RedactOptions converts the redaction section into the sanitizer's
// option set, falling back to the default placeholder when unset.
func (c *Config) RedactOptions() sanitize.RedactOptions {
	placeholder := c.Redaction.Placeholder
	if placeholder == "" {
		placeholder = types.RedactionPlaceholder
	}
	return sanitize.RedactOptions{
		Phone:       c.Redaction.Phone,
		CreditCard:  c.Redaction.CreditCard,
		NationalID:  c.Redaction.NationalID,
		BankAccount: c.Redaction.BankAccount,
		Passport:    c.Redaction.Passport,
		Email:       c.Redaction.Email,
		Placeholder: placeholder,
	}
}
