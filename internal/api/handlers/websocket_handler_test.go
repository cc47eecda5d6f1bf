package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIntoSentences(t *testing.T) {
	text := "The total is $42.99. It was paid by card.\n\n- Latte: 4.50\n- Panini: 9.00"

	chunks := splitIntoSentences(text)
	assert.Equal(t, text, strings.Join(chunks, ""))
	assert.Equal(t, "The total is $42.99. ", chunks[0])
	assert.Equal(t, "It was paid by card.\n", chunks[1])
	assert.Equal(t, "\n", chunks[2])
	assert.Equal(t, "- Panini: 9.00", chunks[len(chunks)-1])
}

func TestSplitIntoSentencesEmpty(t *testing.T) {
	assert.Empty(t, splitIntoSentences(""))
}
