// Package utils holds query hygiene for full-text retrieval.
// Queries reach the engine as match text, never as query syntax, so cleaning only
// removes what cannot be a search term.
package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"doc-retriever/domain"
)

// DefaultMaxQueryBytes bounds the raw query length.
const DefaultMaxQueryBytes = 1000

// Reasons reported by QueryError.
const (
	ReasonTooLong     = "query_too_long"
	ReasonControlChar = "control_character"
	ReasonDisallowed  = "disallowed_pattern"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b.*?(</script>|$)`)
	markupTag   = regexp.MustCompile(`<[^>]*>?`)

	invisible = strings.NewReplacer(
		"\u200B", "",
		"\u200C", "",
		"\u200D", "",
		"\u200E", "",
		"\u200F", "",
		"\uFEFF", "",
	)
)

// QueryPolicy decides which search queries are accepted and how they are normalised.
type QueryPolicy struct {
	MaxBytes int
	// Disallowed are case-insensitive patterns that reject a query after markup removal.
	Disallowed []*regexp.Regexp
	KeepMarkup bool
}

// DefaultQueryPolicy strips markup and has no disallowed patterns.
func DefaultQueryPolicy() *QueryPolicy {
	return &QueryPolicy{MaxBytes: DefaultMaxQueryBytes}
}

// Disallow compiles patterns into the policy. Patterns that do not compile are skipped.
func (p *QueryPolicy) Disallow(patterns ...string) *QueryPolicy {
	for _, pat := range patterns {
		if re, err := regexp.Compile("(?i)" + pat); err == nil {
			p.Disallowed = append(p.Disallowed, re)
		}
	}
	return p
}

// Clean validates query and returns its normalised form, which may be empty.
// Rejections are *QueryError and match domain.ErrInvalidQuery.
func (p *QueryPolicy) Clean(query string) (string, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxQueryBytes
	}
	if len(query) > limit {
		return "", &QueryError{Reason: ReasonTooLong, Detail: fmt.Sprintf("%d bytes exceeds %d", len(query), limit)}
	}
	for _, r := range query {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return "", &QueryError{Reason: ReasonControlChar, Detail: fmt.Sprintf("%U", r)}
		}
	}

	cleaned := invisible.Replace(query)
	if !p.KeepMarkup {
		cleaned = scriptBlock.ReplaceAllString(cleaned, " ")
		cleaned = markupTag.ReplaceAllString(cleaned, " ")
	}
	for _, re := range p.Disallowed {
		if re.MatchString(cleaned) {
			return "", &QueryError{Reason: ReasonDisallowed, Detail: re.String()}
		}
	}
	return strings.Join(strings.Fields(cleaned), " "), nil
}

// QueryError is a rejected search query.
type QueryError struct {
	Reason string
	Detail string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", domain.ErrInvalidQuery, e.Reason, e.Detail)
}

func (e *QueryError) Unwrap() error {
	return domain.ErrInvalidQuery
}
