// Package jsonutil extracts JSON objects from LLM replies.
//
// Models asked for "only JSON" still wrap it in markdown fences or add a
// sentence before or after. ExtractObject tolerates that noise but never
// invents structure: a reply without a decodable object is an error.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when a reply contains no JSON object.
var ErrNoObject = errors.New("no JSON object found in response")

// ExtractObject finds the first complete JSON object in response and decodes
// it. Numbers are decoded as json.Number so large integers survive.
func ExtractObject(response string) (map[string]any, error) {
	candidate := stripMarkdownCodeBlocks(response)

	if obj, err := decodeObject(candidate); err == nil {
		return obj, nil
	}

	for start := strings.IndexByte(candidate, '{'); start != -1; {
		end := matchingBrace(candidate, start)
		if end == -1 {
			break
		}
		if obj, err := decodeObject(candidate[start : end+1]); err == nil {
			return obj, nil
		}
		next := strings.IndexByte(candidate[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}

	return nil, fmt.Errorf("%w: %q", ErrNoObject, preview(response))
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, ErrNoObject
	}
	// Trailing garbage means this was not a lone object.
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}
	return obj, nil
}

// matchingBrace returns the index of the brace closing the object that opens
// at start, honouring string literals and escapes. -1 if unbalanced.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

func preview(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
