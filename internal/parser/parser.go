// Package parser turns free-form phrases like "lazer 50" or "salário 2500"
// into structured transactions. It is a best-effort keyword heuristic, not
// a natural-language model: matching is case-insensitive substring
// containment against the injected keyword tables.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/youserz/finance-tracker/internal/core"
	"github.com/youserz/finance-tracker/internal/keywords"
)

// amountPattern matches the first decimal number in the text: one or more
// digits, optionally followed by a single comma or dot separator and more
// digits. No thousands separators, no exponents, no sign. A trailing
// separator with nothing after it ("50,") is accepted by the pattern and
// parses as the integer part; that quirk is intentional and covered by
// tests.
var amountPattern = regexp.MustCompile(`\d+[.,]?\d*`)

// Parser classifies raw input text using a fixed set of keyword tables.
// It is pure and safe for concurrent use.
type Parser struct {
	tables keywords.Tables
}

// New returns a parser over the given tables. Use keywords.Default() for
// the built-in ones.
func New(tables keywords.Tables) *Parser {
	return &Parser{tables: tables}
}

// Parse extracts amount, direction and category from the input. It returns
// nil when the input is blank, contains no number, or the number is not a
// positive value; failure is an absent result, never an error.
func (p *Parser) Parse(input string) *core.ParsedTransaction {
	trimmed := strings.TrimSpace(input)
	normalized := strings.ToLower(trimmed)
	if normalized == "" {
		return nil
	}

	match := amountPattern.FindString(normalized)
	if match == "" {
		return nil
	}

	amount, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
	if err != nil || amount <= 0 {
		return nil
	}

	// Residual text with the first numeric match removed; only used for
	// the ad hoc category fallback below.
	residual := strings.TrimSpace(strings.Replace(normalized, match, "", 1))

	direction := core.Expense
	if containsAny(normalized, p.tables.IncomeKeywords) {
		direction = core.Income
	}

	category := p.tables.Fallback
	for _, rule := range p.tables.CategoryRules {
		if containsAny(normalized, rule.Triggers) {
			category = rule.Name
			break
		}
	}

	// No keyword matched an expense: promote the first residual word to a
	// category, but only when it is long enough to be meaningful.
	if category == p.tables.Fallback && direction == core.Expense && residual != "" {
		first := residual
		if i := strings.Index(first, " "); i >= 0 {
			first = first[:i]
		}
		if utf8.RuneCountInString(first) > 2 {
			category = capitalize(first)
		}
	}

	return &core.ParsedTransaction{
		Amount:    amount,
		Category:  category,
		Direction: direction,
		RawText:   trimmed,
	}
}

// ValidateInput reports whether the input would be accepted by Parse,
// distinguishing blank input from an unrecognized amount.
func (p *Parser) ValidateInput(input string) core.Validation {
	if strings.TrimSpace(input) == "" {
		return core.Validation{Valid: false, Err: core.ErrEmptyInput}
	}
	if p.Parse(input) == nil {
		return core.Validation{Valid: false, Err: core.ErrAmountNotRecognized}
	}
	return core.Validation{Valid: true}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
