package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-retriever/domain"
)

func TestQueryPolicy_Clean(t *testing.T) {
	p := DefaultQueryPolicy()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "plain", query: "alpha beta", want: "alpha beta"},
		{name: "keeps punctuation", query: `what's "BM25" k1/b?`, want: `what's "BM25" k1/b?`},
		{name: "keeps case and percent", query: "Growth 100% YoY", want: "Growth 100% YoY"},
		{name: "strips tags", query: "<b>bold</b> text", want: "bold text"},
		{name: "strips script block", query: "before<script>alert(1)</script>after", want: "before after"},
		{name: "unterminated tag", query: "query <img src=x", want: "query"},
		{name: "zero width", query: "al\u200Bpha", want: "alpha"},
		{name: "whitespace", query: " alpha\t\tbeta\n", want: "alpha beta"},
		{name: "japanese", query: "検索　クエリ", want: "検索 クエリ"},
		{name: "empty", query: "", want: ""},
		{name: "only markup", query: "<br/>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Clean(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryPolicy_KeepMarkup(t *testing.T) {
	p := &QueryPolicy{KeepMarkup: true}

	got, err := p.Clean("a <b> c")
	require.NoError(t, err)
	assert.Equal(t, "a <b> c", got)
}

func TestQueryPolicy_Rejections(t *testing.T) {
	p := DefaultQueryPolicy().Disallow(`drop\s+table`, `([`)

	tests := []struct {
		name       string
		query      string
		wantReason string
	}{
		{name: "too long", query: strings.Repeat("a", DefaultMaxQueryBytes+1), wantReason: ReasonTooLong},
		{name: "null byte", query: "alpha\x00", wantReason: ReasonControlChar},
		{name: "escape char", query: "alpha\x1b[31m", wantReason: ReasonControlChar},
		{name: "disallowed pattern", query: "please DROP  TABLE docs", wantReason: ReasonDisallowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Clean(tt.query)
			var qErr *QueryError
			require.True(t, errors.As(err, &qErr))
			assert.Equal(t, tt.wantReason, qErr.Reason)
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		})
	}

	got, err := p.Clean("drop  the table")
	require.NoError(t, err)
	assert.Equal(t, "drop the table", got)
	assert.Len(t, p.Disallowed, 1)
}
