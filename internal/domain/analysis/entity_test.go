package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFailure(t *testing.T) {
	r := decode(t, `{"error":"quota exhausted","language":"Go"}`)
	msg, ok := r.Failure()
	assert.True(t, ok)
	assert.Equal(t, "quota exhausted", msg)

	r = decode(t, `{"error":""}`)
	_, ok = r.Failure()
	assert.False(t, ok)

	var nilResult *Result
	_, ok = nilResult.Failure()
	assert.False(t, ok)
}

func TestValueUnmarshal(t *testing.T) {
	var r Result
	require.NoError(t, json.Unmarshal([]byte(`{
		"language": "Go",
		"primary_concepts": ["a", "b"],
		"domain": {"k": 1},
		"time_complexity": 2.5
	}`), &r))

	assert.Equal(t, "Go", r.Language.String())
	assert.False(t, r.Language.IsList())
	assert.True(t, r.PrimaryConcepts.IsList())
	assert.Equal(t, []string{"a", "b"}, r.PrimaryConcepts.Items())
	assert.Equal(t, `{"k":1}`, r.Domain.String())
	assert.Equal(t, "2.5", r.TimeComplexity.String())
	assert.True(t, r.SpaceComplexity.IsZero())
	assert.Nil(t, r.SpaceComplexity.Items())
}

func TestResultMarshalOmitsUnset(t *testing.T) {
	r := Result{
		Language:        Text("Python"),
		PrimaryConcepts: List("I/O"),
		DesignPatterns:  List(),
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"Python","primary_concepts":["I/O"],"design_patterns":[]}`, string(b))

	var back Result
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r, back)
}
