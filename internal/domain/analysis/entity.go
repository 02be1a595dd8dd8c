package analysis

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type kind uint8

const (
	kindUnset kind = iota
	kindString
	kindNumber
	kindBool
	kindList
	kindObject
)

// Value is one field of an analysis result as the backend sent it. The backend is a
// third party, so a field may be missing, null, a string, a list, or something else.
type Value struct {
	kind kind
	text string
	list []string
}

// Text returns a scalar string value.
func Text(s string) Value { return Value{kind: kindString, text: s} }

// List returns a list value. A nil slice still counts as a present, empty list.
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{kind: kindList, list: out}
}

// IsZero reports whether the field was absent or null.
func (v Value) IsZero() bool { return v.kind == kindUnset }

// IsList reports whether the field arrived as a JSON array.
func (v Value) IsList() bool { return v.kind == kindList }

// Items returns the list elements, or nil for non-list values.
func (v Value) Items() []string {
	if v.kind != kindList {
		return nil
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

// String renders the value for display: lists are joined with ", ".
func (v Value) String() string {
	if v.kind == kindList {
		return strings.Join(v.list, ", ")
	}
	return v.text
}

// Truthy mirrors how a loosely typed client tests a field before displaying it:
// empty strings, zero, false and null are falsy. Lists are truthy only when they
// have at least one element.
func (v Value) Truthy() bool {
	switch v.kind {
	case kindString, kindObject:
		return v.text != ""
	case kindNumber:
		f, err := strconv.ParseFloat(v.text, 64)
		return err != nil || f != 0
	case kindBool:
		return v.text == "true"
	case kindList:
		return len(v.list) > 0
	default:
		return false
	}
}

// UnmarshalJSON accepts any JSON value.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Value{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			items = append(items, elementText(r))
		}
		*v = Value{kind: kindList, list: items}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Value{kind: kindBool, text: string(data)}
	case '{':
		*v = Value{kind: kindObject, text: compact(data)}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Value{kind: kindNumber, text: n.String()}
	}
	return nil
}

// MarshalJSON writes the value back in its original JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.text)
	case kindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case kindNumber, kindBool, kindObject:
		return []byte(v.text), nil
	default:
		return []byte("null"), nil
	}
}

func elementText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return compact(raw)
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Result is the structured description of submitted source code.
type Result struct {
	Language             Value `json:"language,omitzero"`
	Domain               Value `json:"domain,omitzero"`
	PrimaryConcepts      Value `json:"primary_concepts,omitzero"`
	SecondaryConcepts    Value `json:"secondary_concepts,omitzero"`
	DesignPatterns       Value `json:"design_patterns,omitzero"`
	ArchitecturalLayer   Value `json:"architectural_layer,omitzero"`
	TimeComplexity       Value `json:"time_complexity,omitzero"`
	SpaceComplexity      Value `json:"space_complexity,omitzero"`
	ExecutionFlow        Value `json:"execution_flow,omitzero"`
	WhyAbstractionExists Value `json:"why_abstraction_exists,omitzero"`
	PrerequisiteConcepts Value `json:"prerequisite_concepts,omitzero"`

	// Error is set by the backend instead of the fields above when it could not
	// analyze the code.
	Error Value `json:"error,omitzero"`
}

// Failure returns the backend-reported error message, if any.
func (r *Result) Failure() (string, bool) {
	if r == nil || !r.Error.Truthy() {
		return "", false
	}
	return r.Error.String(), true
}

// RecordID identifies a stored analysis.
type RecordID string

// Record is one analysis kept by the backend for history.
type Record struct {
	ID           RecordID  `json:"id"`
	Language     string    `json:"language,omitempty"`
	SourceSHA256 string    `json:"source_sha256"`
	SourceURL    string    `json:"source_url,omitempty"`
	Result       string    `json:"result"` // JSON of Result
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page is a page of stored analyses.
type Page struct {
	Data     []*Record `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}
