package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeFenceRE captures the body of a ``` or ```json fenced block. Models
// frequently wrap the requested JSON in fences despite instructions not to.
var codeFenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// DecodeObject locates the first JSON object in content and unmarshals it
// into v. It tries, in order: the whole trimmed content, the body of a code
// fence, and a balanced-brace scan. Failure at every stage is a malformed
// response (error taxonomy item 3): the caller treats it like a transient
// failure and the originating item stays queued.
func DecodeObject(content string, v any) error {
	text := strings.TrimSpace(content)
	if text == "" {
		return ErrMalformedResponse
	}

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	if m := codeFenceRE.FindStringSubmatch(text); len(m) >= 2 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err == nil {
			return nil
		}
	}

	if obj := firstJSONObject(text); obj != "" {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
}

// firstJSONObject returns the first balanced {...} region of text, honoring
// string literals and escapes, or "" when none closes.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
