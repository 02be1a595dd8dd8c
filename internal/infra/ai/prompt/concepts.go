package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a computer science concept extraction engine.

You MUST return valid JSON only.
Do NOT include markdown.
Do NOT include explanation outside JSON.
Do NOT wrap in backticks.

If any field is not applicable, return "N/A" or [].

Return JSON with EXACT structure:

{
  "language": "",
  "domain": "",
  "primary_concepts": [],
  "secondary_concepts": [],
  "design_patterns": [],
  "architectural_layer": "",
  "time_complexity": "",
  "space_complexity": "",
  "execution_flow": "",
  "why_abstraction_exists": "",
  "prerequisite_concepts": []
}`
}

// GetUserPrompt wraps the submitted code.
func GetUserPrompt(code string) string {
	return "Code:\n" + code
}

// ParseResult decodes model output into a Result. Models sometimes ignore the
// instructions and wrap the object in a ```json fence or in prose, so everything
// outside the outermost braces is dropped.
func ParseResult(text string) (*analysis.Result, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in output", analysis.ErrInvalidOutput)
	}

	var r analysis.Result
	if err := json.Unmarshal([]byte(body[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidOutput, err)
	}
	// the model has no business reporting errors on the backend's behalf
	r.Error = analysis.Value{}
	return &r, nil
}
