package ai

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ResultKind tells which shape the model answered with.
type ResultKind int

const (
	// ResultWrapped is an object carrying a "response" field.
	ResultWrapped ResultKind = iota + 1
	// ResultRaw is any other payload, JSON or plain text.
	ResultRaw
)

// RunResult is the normalized model output.
type RunResult struct {
	Kind     ResultKind
	Response string
	Raw      []byte
}

// Wrapped builds a result that carries a response string.
func Wrapped(response string) RunResult {
	return RunResult{Kind: ResultWrapped, Response: response}
}

// Raw builds a result from an arbitrary payload.
func Raw(payload []byte) RunResult {
	return RunResult{Kind: ResultRaw, Raw: payload}
}

// ParseResult classifies a payload returned by the model endpoint.
func ParseResult(payload []byte) RunResult {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Response *string `json:"response"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Response != nil {
			return Wrapped(*wrapped.Response)
		}
	}
	return Raw(payload)
}

// Text returns the textual answer. Wrapped results yield their response,
// raw JSON strings are unquoted, other JSON is compacted and anything that
// is not JSON is returned as is.
func (r RunResult) Text() string {
	if r.Kind == ResultWrapped {
		return r.Response
	}

	trimmed := bytes.TrimSpace(r.Raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}

	if json.Valid(trimmed) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}

	return strings.TrimSpace(string(r.Raw))
}
