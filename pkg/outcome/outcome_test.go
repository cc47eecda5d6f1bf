package outcome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccess(t *testing.T) {
	r := Success("Receipt: Walmart")
	assert.False(t, r.IsDegraded())
	assert.Equal(t, "Receipt: Walmart", r.Value)
	assert.NoError(t, r.Cause)
}

func TestDegraded(t *testing.T) {
	cause := errors.New("quota exceeded")
	r := Degraded(false, cause)
	assert.True(t, r.IsDegraded())
	assert.False(t, r.Value)
	assert.ErrorIs(t, r.Cause, cause)
}
