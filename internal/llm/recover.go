package llm

import (
	"encoding/json"
	"strings"
)

// RecoverJSON extracts a well-formed JSON object from a free-form model
// response. The service does not guarantee pure structured output: the object
// is routinely wrapped in explanatory prose or markdown fences. The greedy
// first-'{' to last-'}' span mirrors what the extraction prompt demands (one
// object enclosing everything) and tolerates any surrounding noise.
//
// Returns the object bytes, or a KindMalformedResponse error carrying a
// bounded preview of the raw response.
func RecoverJSON(raw string) ([]byte, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, NewMalformedResponse(raw, nil)
	}

	span := []byte(raw[start : end+1])
	var probe map[string]any
	if err := json.Unmarshal(span, &probe); err != nil {
		return nil, NewMalformedResponse(raw, err)
	}
	return span, nil
}
