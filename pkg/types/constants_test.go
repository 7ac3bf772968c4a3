package types

import (
	"testing"
	"time"
)

func TestConstants(t *testing.T) {
	// Verify the cache TTL matches the documented 15-minute window
	if CacheTTL != 900*time.Second {
		t.Errorf("expected CacheTTL to be 900s, got %v", CacheTTL)
	}

	// Verify maxchars bounds are coherent
	if MinMaxChars >= MaxMaxChars {
		t.Error("expected MinMaxChars to be less than MaxMaxChars")
	}
	if DefaultMaxChars < MinMaxChars || DefaultMaxChars > MaxMaxChars {
		t.Errorf("expected DefaultMaxChars within [%d,%d], got %d", MinMaxChars, MaxMaxChars, DefaultMaxChars)
	}
}

func TestCosts_Reasonable(t *testing.T) {
	if DefaultQuickAnswerCost <= 0 {
		t.Error("expected a positive quick answer cost")
	}
	if DefaultAnalysisCost < DefaultQuickAnswerCost {
		t.Error("expected detailed analysis to cost at least as much as a quick answer")
	}
}

func TestMarkers(t *testing.T) {
	if CachedResultPrefix == "" {
		t.Error("expected a non-empty cached result prefix")
	}
	if RedactionPlaceholder == "" {
		t.Error("expected a non-empty redaction placeholder")
	}
	if CacheDomain != "wolfram" {
		t.Errorf("expected cache domain 'wolfram', got '%s'", CacheDomain)
	}
}
