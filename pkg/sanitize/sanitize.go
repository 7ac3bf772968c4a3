// Package sanitize cleans upstream text before it is returned, cached or
// logged: markup and control characters are stripped, whitespace is
// normalized, output is truncated, and sensitive data categories are
// replaced with a placeholder.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/wolframtools/wolfram-mcp/pkg/types"
)

// Options controls the cleanup pass.
type Options struct {
	RemoveHTML          bool
	RemoveControlChars  bool
	NormalizeWhitespace bool
	MaxLength           int
}

// DefaultOptions enables every cleanup step with the given max length.
func DefaultOptions(maxLength int) Options {
	return Options{
		RemoveHTML:          true,
		RemoveControlChars:  true,
		NormalizeWhitespace: true,
		MaxLength:           maxLength,
	}
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	controlRe    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
	trailingSpRe = regexp.MustCompile(`[ \t]+\n`)
)

// Sanitize applies the enabled cleanup steps in order: markup removal,
// control character removal, whitespace normalization, truncation.
func Sanitize(text string, opts Options) string {
	if opts.RemoveHTML {
		text = htmlTagRe.ReplaceAllString(text, "")
	}
	if opts.RemoveControlChars {
		text = controlRe.ReplaceAllString(text, "")
	}
	if opts.NormalizeWhitespace {
		text = spaceRunRe.ReplaceAllString(text, " ")
		text = trailingSpRe.ReplaceAllString(text, "\n")
		text = newlineRunRe.ReplaceAllString(text, "\n\n")
		text = strings.TrimSpace(text)
	}
	if opts.MaxLength > 0 {
		runes := []rune(text)
		if len(runes) > opts.MaxLength {
			text = string(runes[:opts.MaxLength])
		}
	}
	return text
}

// RedactOptions toggles each sensitive data category independently.
// Email is off by default on purpose: addresses in query results are
// usually the answer the caller asked for.
type RedactOptions struct {
	Phone       bool
	CreditCard  bool
	NationalID  bool
	BankAccount bool
	Passport    bool
	Email       bool
	Placeholder string
}

// DefaultRedactOptions redacts everything except email addresses.
func DefaultRedactOptions() RedactOptions {
	return RedactOptions{
		Phone:       true,
		CreditCard:  true,
		NationalID:  true,
		BankAccount: true,
		Passport:    true,
		Email:       false,
		Placeholder: types.RedactionPlaceholder,
	}
}

// Category names reported by Redact.
const (
	CategoryPhone       = "phone"
	CategoryCreditCard  = "credit_card"
	CategoryNationalID  = "national_id"
	CategoryBankAccount = "bank_account"
	CategoryPassport    = "passport"
	CategoryEmail       = "email"
)

var (
	creditCardRe  = regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}\b`)
	phoneRe       = regexp.MustCompile(`(\+\d{1,3}[ .-]?)?\(?\d{3}\)?[ .-]\d{3}[ .-]\d{4}\b`)
	nationalIDRe  = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	bankAccountRe = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`)
	passportRe    = regexp.MustCompile(`\b[A-Z]{1,2}\d{7,9}\b`)
	emailRe       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

type rule struct {
	category string
	enabled  func(RedactOptions) bool
	pattern  *regexp.Regexp
}

// Credit card runs before phone so card digit groups are not partially
// consumed by the looser phone pattern.
var rules = []rule{
	{CategoryCreditCard, func(o RedactOptions) bool { return o.CreditCard }, creditCardRe},
	{CategoryBankAccount, func(o RedactOptions) bool { return o.BankAccount }, bankAccountRe},
	{CategoryNationalID, func(o RedactOptions) bool { return o.NationalID }, nationalIDRe},
	{CategoryPassport, func(o RedactOptions) bool { return o.Passport }, passportRe},
	{CategoryPhone, func(o RedactOptions) bool { return o.Phone }, phoneRe},
	{CategoryEmail, func(o RedactOptions) bool { return o.Email }, emailRe},
}

// Redact replaces matches of each enabled category with the placeholder
// and reports which categories were found.
func Redact(text string, opts RedactOptions) (string, []string) {
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = types.RedactionPlaceholder
	}

	var detected []string
	for _, r := range rules {
		if !r.enabled(opts) {
			continue
		}
		if r.pattern.MatchString(text) {
			detected = append(detected, r.category)
			text = r.pattern.ReplaceAllString(text, placeholder)
		}
	}
	return text, detected
}
