package response

import (
	"cmp"
	"encoding/json"
	"regexp"
	"slices"
	"strings"
)

var fencePattern = regexp.MustCompile("```(?:json|JSON)?\\s*([\\s\\S]*?)\\s*```")

// Extract finds the first JSON object in model output. It tries, in order:
// the whole text, each fenced code block, then each balanced {...} span.
// Arrays and scalars are not accepted.
func Extract(text string) (map[string]any, bool) {
	if obj, ok := decodeObject(strings.TrimSpace(text)); ok {
		return obj, true
	}

	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if obj, ok := decodeObject(m[1]); ok {
			return obj, true
		}
	}

	for _, span := range braceSpans(text) {
		if obj, ok := decodeObject(span); ok {
			return obj, true
		}
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" || s[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	// Reject trailing text after the object.
	if strings.TrimSpace(s[dec.InputOffset():]) != "" {
		return nil, false
	}
	return obj, obj != nil
}

// braceSpans returns every balanced {...} span ordered by where it starts,
// so top-level spans come before the spans nested in them. Braces inside
// JSON strings are ignored. The text is scanned once; an unclosed brace
// only leaves its start on the stack.
func braceSpans(text string) []string {
	type span struct{ start, end int }
	var (
		open     []int
		found    []span
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			// Quotes in prose outside any braces do not open a string.
			inString = len(open) > 0
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				continue
			}
			found = append(found, span{open[len(open)-1], i})
			open = open[:len(open)-1]
		}
	}

	slices.SortFunc(found, func(a, b span) int { return cmp.Compare(a.start, b.start) })
	spans := make([]string, len(found))
	for i, sp := range found {
		spans[i] = text[sp.start : sp.end+1]
	}
	return spans
}
