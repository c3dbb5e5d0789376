package qerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageWithoutSuggestion(t *testing.T) {
	err := Newf(BadRequest, "unknown column %s", "contry")
	assert.Equal(t, "BadRequest: unknown column contry", err.Error())
}

func TestErrorMessageWithSuggestion(t *testing.T) {
	err := &Error{Kind: BadRequest, Message: "unknown column contry", Suggestion: "country"}
	assert.Equal(t, `BadRequest: unknown column contry (did you mean "country"?)`, err.Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "QueryParse", QueryParse.String())
	assert.Equal(t, "BadRequest", BadRequest.String())
	assert.Equal(t, "Timeout", Timeout.String())
	assert.Equal(t, "Cancelled", Cancelled.String())
	assert.Equal(t, "Internal", Internal.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}
