package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "-", stringOrDash("  \t"))
	assert.Equal(t, "Go", stringOrDash("Go"))
}

func TestJSONOrEmpty(t *testing.T) {
	assert.Equal(t, "{}", jsonOrEmpty(" "))
	assert.Equal(t, `{"language":"Go"}`, jsonOrEmpty(`{"language":"Go"}`))
}
