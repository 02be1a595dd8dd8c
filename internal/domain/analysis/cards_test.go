package analysis

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) *Result {
	t.Helper()
	var r Result
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return &r
}

func contents(cards []Card) map[string]string {
	out := make(map[string]string, len(cards))
	for _, c := range cards {
		out[c.Title] = c.Content
	}
	return out
}

func TestRenderFullyPopulated(t *testing.T) {
	r := decode(t, `{
		"language": "Go",
		"domain": "networking",
		"primary_concepts": ["goroutines", "channels"],
		"secondary_concepts": ["context"],
		"design_patterns": ["worker pool", "fan-in"],
		"architectural_layer": "infrastructure",
		"time_complexity": "O(n)",
		"space_complexity": "O(1)",
		"execution_flow": "reads, dispatches, collects",
		"why_abstraction_exists": "to bound concurrency",
		"prerequisite_concepts": ["slices"]
	}`)

	cards, err := Render(r, Tolerant)
	require.NoError(t, err)
	require.Len(t, cards, 11)

	want := []Card{
		{"Language", "Go"},
		{"Domain", "networking"},
		{"Architectural Layer", "infrastructure"},
		{"Time Complexity", "O(n)"},
		{"Space Complexity", "O(1)"},
		{"Primary Concepts", "goroutines, channels"},
		{"Secondary Concepts", "context"},
		{"Design Patterns", "worker pool, fan-in"},
		{"Execution Flow", "reads, dispatches, collects"},
		{"Why Abstraction Exists", "to bound concurrency"},
		{"Prerequisites", "slices"},
	}
	assert.Equal(t, want, cards)

	strict, err := Render(r, Strict)
	require.NoError(t, err)
	assert.Equal(t, want, strict)
}

func TestRenderTolerantPlaceholders(t *testing.T) {
	r := decode(t, `{"language":"Python","domain":"scripting","primary_concepts":["I/O"]}`)

	cards, err := Render(r, Tolerant)
	require.NoError(t, err)
	require.Len(t, cards, 11)

	got := contents(cards)
	assert.Equal(t, "Python", got["Language"])
	assert.Equal(t, "scripting", got["Domain"])
	assert.Equal(t, "I/O", got["Primary Concepts"])
	for _, title := range []string{
		"Architectural Layer", "Time Complexity", "Space Complexity",
		"Secondary Concepts", "Design Patterns", "Execution Flow",
		"Why Abstraction Exists", "Prerequisites",
	} {
		assert.Equal(t, Placeholder, got[title], title)
	}
}

func TestRenderTolerantOddShapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		title string
		want  string
	}{
		{"scalar in list field", `{"design_patterns":"Singleton"}`, "Design Patterns", "Singleton"},
		{"list in scalar field", `{"language":["Go","C"]}`, "Language", "Go, C"},
		{"empty string", `{"domain":""}`, "Domain", Placeholder},
		{"empty list", `{"primary_concepts":[]}`, "Primary Concepts", Placeholder},
		{"null", `{"execution_flow":null}`, "Execution Flow", Placeholder},
		{"zero", `{"time_complexity":0}`, "Time Complexity", Placeholder},
		{"false", `{"space_complexity":false}`, "Space Complexity", Placeholder},
		{"number", `{"time_complexity":1}`, "Time Complexity", "1"},
		{"mixed list", `{"prerequisite_concepts":["a",1,null,true]}`, "Prerequisites", "a, 1, , true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := Render(decode(t, tt.body), Tolerant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, contents(cards)[tt.title])
		})
	}
}

func TestRenderStrict(t *testing.T) {
	t.Run("absent scalar propagates empty value", func(t *testing.T) {
		r := decode(t, `{
			"primary_concepts": [], "secondary_concepts": [],
			"design_patterns": [], "prerequisite_concepts": []
		}`)
		cards, err := Render(r, Strict)
		require.NoError(t, err)
		got := contents(cards)
		assert.Equal(t, "", got["Language"])
		assert.Equal(t, "", got["Primary Concepts"])
	})

	t.Run("absent list fails", func(t *testing.T) {
		r := decode(t, `{"language":"Python","primary_concepts":["I/O"]}`)
		cards, err := Render(r, Strict)
		require.Error(t, err)
		assert.Nil(t, cards)
		assert.True(t, errors.Is(err, ErrMissingField))

		var mf *MissingFieldError
		require.ErrorAs(t, err, &mf)
		assert.Equal(t, "secondary_concepts", mf.Field)
	})

	t.Run("scalar in list field fails", func(t *testing.T) {
		r := decode(t, `{
			"primary_concepts": "I/O", "secondary_concepts": [],
			"design_patterns": [], "prerequisite_concepts": []
		}`)
		_, err := Render(r, Strict)
		assert.ErrorIs(t, err, ErrMissingField)
	})
}

func TestRenderIsPure(t *testing.T) {
	r := decode(t, `{"language":"Rust","design_patterns":["RAII"]}`)
	first, err := Render(r, Tolerant)
	require.NoError(t, err)
	second, err := Render(r, Tolerant)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	nilCards, err := Render(nil, Tolerant)
	require.NoError(t, err)
	assert.Len(t, nilCards, 11)
}

func TestCardTitlesOrder(t *testing.T) {
	assert.Equal(t, []string{
		"Language", "Domain", "Architectural Layer", "Time Complexity",
		"Space Complexity", "Primary Concepts", "Secondary Concepts",
		"Design Patterns", "Execution Flow", "Why Abstraction Exists", "Prerequisites",
	}, CardTitles())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Tolerant, p)

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}
