package classify

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm/llmtest"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
)

var fallbackPattern = regexp.MustCompile(`^Document Scan \(\d{4}-\d{2}-\d{2} \d{2}:\d{2}\)$`)

func fixedClock() time.Time {
	return time.Date(2025, 3, 24, 18, 5, 0, 0, time.Local)
}

func TestTitleAcceptsShortResponse(t *testing.T) {
	c := NewClassifier(llmtest.Reply("  \"Receipt: Walmart Groceries - March 24\"\n"), "flash")

	res := c.Title(context.Background(), "WALMART ... TOTAL 42.99")
	require.False(t, res.IsDegraded())
	assert.Equal(t, "Receipt: Walmart Groceries - March 24", res.Value)
}

func TestTitleFallsBackOnUnusableResponse(t *testing.T) {
	for _, reply := range []string{"", "   ", strings.Repeat("x", 61), strings.Repeat("é", 61)} {
		c := NewClassifier(llmtest.Reply(reply), "flash", WithClock(fixedClock))

		res := c.Title(context.Background(), "text")
		assert.True(t, res.IsDegraded())
		assert.Equal(t, "Document Scan (2025-03-24 18:05)", res.Value)
		assert.Regexp(t, fallbackPattern, res.Value)
	}
}

func TestTitleAcceptsExactlySixtyRunes(t *testing.T) {
	title := strings.Repeat("é", 60)
	c := NewClassifier(llmtest.Reply(title), "flash")

	res := c.Title(context.Background(), "text")
	assert.False(t, res.IsDegraded())
	assert.Equal(t, title, res.Value)
}

func TestTitleFallsBackOnModelError(t *testing.T) {
	cause := errors.New("deadline exceeded")
	c := NewClassifier(llmtest.Fail(cause), "flash", WithClock(fixedClock))

	res := c.Title(context.Background(), "text")
	assert.ErrorIs(t, res.Cause, cause)
	assert.Regexp(t, fallbackPattern, res.Value)
}

func TestTitleSendsOnlyLeadingExcerpt(t *testing.T) {
	fake := llmtest.Reply("Menu: Cafe")
	c := NewClassifier(fake, "flash")

	long := strings.Repeat("a", 1000) + "TAIL-MARKER"
	c.Title(context.Background(), long)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.NotContains(t, reqs[0].UserPrompt, "TAIL-MARKER")
	assert.Equal(t, "flash", reqs[0].Model)
}

func TestDocTypeNormalizes(t *testing.T) {
	cases := map[string]models.DocType{
		"Receipt":           models.DocTypeReceipt,
		" menu\n":           models.DocTypeMenu,
		"This is a receipt": models.DocTypeOther,
		"unknown":           models.DocTypeOther,
		"":                  models.DocTypeOther,
		"LETTER":            models.DocTypeLetter,
	}
	for reply, want := range cases {
		c := NewClassifier(llmtest.Reply(reply), "flash")
		res := c.DocType(context.Background(), "text")
		assert.Equal(t, want, res.Value, "reply %q", reply)
		assert.False(t, res.IsDegraded())
	}
}

func TestDocTypeFallsBackOnModelError(t *testing.T) {
	c := NewClassifier(llmtest.Fail(errors.New("boom")), "flash")

	res := c.DocType(context.Background(), "text")
	assert.True(t, res.IsDegraded())
	assert.Equal(t, models.DocTypeOther, res.Value)
}
