// Package jsonutil holds helpers for JSON that arrives embedded in model
// output: fenced code blocks, surrounding prose, HTML-escaped sequences.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FencedBlock returns the body of the first fenced code block in text.
// A ```json fence is preferred over a generic ``` fence. An unterminated
// fence yields everything after the opening marker.
func FencedBlock(text string) (string, bool) {
	if body, ok := fencedAfter(text, "```json"); ok {
		return body, true
	}
	return fencedAfter(text, "```")
}

func fencedAfter(text, fence string) (string, bool) {
	i := strings.Index(text, fence)
	if i < 0 {
		return "", false
	}
	body := text[i+len(fence):]
	if j := strings.Index(body, "```"); j >= 0 {
		body = body[:j]
	}
	return strings.TrimSpace(body), true
}

// BraceWindow returns the substring spanning the first '{' through the last
// '}' of text. The window is deliberately not balance-checked; callers treat
// a failed parse of the window as a terminal miss.
func BraceWindow(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// MarshalNoEscape encodes v without escaping <, >, & into < etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes data into v, retrying once with whitespace trimmed so
// replies padded with stray control characters still parse.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	return json.Unmarshal(bytes.TrimSpace(data), v)
}
