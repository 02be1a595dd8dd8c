package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errors.New("Error 429, Message: quota, Status: RESOURCE_EXHAUSTED")))
	assert.False(t, isQuotaError(errors.New("Error 500, Message: internal, Status: INTERNAL")))
}
