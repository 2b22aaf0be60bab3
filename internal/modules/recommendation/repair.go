package recommendation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseableResponse means no JSON array could be recovered from the
// model output. The run cannot continue.
var ErrUnparseableResponse = errors.New("unparseable model response")

var trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)

// ExtractCandidates recovers the JSON array from free-form model text. It
// tolerates surrounding prose, markdown code fences and trailing commas.
func ExtractCandidates(raw string) ([]any, error) {
	text := stripCodeFences(raw)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrUnparseableResponse)
	}

	cleaned := trailingCommaRe.ReplaceAllString(text[start:end+1], "$1")

	var out []any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

func stripCodeFences(src string) string {
	s := strings.TrimSpace(src)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop the language tag on the opening line
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(s[:nl]); tag == "" || !strings.ContainsAny(tag, "[{") {
				s = s[nl+1:]
			}
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
