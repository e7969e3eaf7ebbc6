package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippet_MatchInMiddle_HasBothEllipses(t *testing.T) {
	text := strings.Repeat("a", 200) + "NEEDLE" + strings.Repeat("b", 200)
	s := Snippet(text, "needle", 100)
	assert.True(t, strings.HasPrefix(s, "..."))
	assert.True(t, strings.HasSuffix(s, "..."))
	assert.Contains(t, strings.ToLower(s), "needle")
}

func TestSnippet_MatchNearStart_NoLeadingEllipsis(t *testing.T) {
	text := "needle" + strings.Repeat("b", 200)
	s := Snippet(text, "needle", 100)
	assert.False(t, strings.HasPrefix(s, "..."))
	assert.True(t, strings.HasSuffix(s, "..."))
}

func TestSnippet_MatchNearEnd_NoTrailingEllipsis(t *testing.T) {
	text := strings.Repeat("a", 200) + "needle"
	s := Snippet(text, "needle", 100)
	assert.True(t, strings.HasPrefix(s, "..."))
	assert.False(t, strings.HasSuffix(s, "..."))
}

func TestSnippet_NoMatch_ReturnsPrefix(t *testing.T) {
	text := strings.Repeat("x", 500)
	s := Snippet(text, "notfound", 100)
	assert.Equal(t, text[:200]+"...", s)
}

func TestSnippet_NoMatch_ShortText_ReturnsUnchanged(t *testing.T) {
	text := "short text"
	s := Snippet(text, "notfound", 100)
	assert.Equal(t, text, s)
}

func TestSnippet_CaseInsensitiveMatch(t *testing.T) {
	text := "The Quick Brown Fox"
	s := Snippet(text, "quick brown", 5)
	assert.Contains(t, s, "Quick Brown")
}
