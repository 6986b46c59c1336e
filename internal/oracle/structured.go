package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON parses a JSON object of type T from raw model output.
// Models wrap their output in markdown fences or surround the object with
// prose, so the extractor strips fences and then falls back to scanning for
// the first balanced JSON object in the text. An optional validator runs on
// the parsed value; a validation failure is reported as ErrInvalidOutput.
func ExtractJSON[T any](raw string, validate func(*T) error) (*T, error) {
	cleaned := stripFences(raw)

	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		candidate, ok := firstBalancedObject(cleaned)
		if !ok {
			return nil, fmt.Errorf("%w: no JSON object in output", ErrInvalidOutput)
		}
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}

	if validate != nil {
		if err := validate(&result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}
	return &result, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, from the model output.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// The first line may carry a language tag like "json".
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// firstBalancedObject scans for the first '{' and returns the substring up
// to its matching '}', tracking strings and escapes so braces inside string
// values do not break the balance count.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
