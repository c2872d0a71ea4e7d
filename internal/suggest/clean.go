package suggest

import (
	"bytes"
	"encoding/json"
	"strings"
)

// cleanResponse strips markdown code fences and leading/trailing whitespace
// from model output. Models often wrap JSON in ```json ... ``` blocks. This
// handles: ```json\n[...]\n```, ```\n[...]\n```, and bare JSON.
func cleanResponse(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}

	if bytes.HasPrefix(s, []byte("```")) {
		// Strip opening fence line
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}

	return s
}

// parseCandidates extracts an ordered candidate list from raw model output.
// A model that ignored the output contract is treated the same as a model
// with no suggestions: anything that does not decode to a JSON string array
// yields an empty list. Blank entries are dropped, order is preserved.
func parseCandidates(raw string) []string {
	s := cleanResponse([]byte(raw))

	var list []string
	if err := json.Unmarshal(s, &list); err != nil {
		// The array may be buried in conversational text around it.
		start := bytes.IndexByte(s, '[')
		end := bytes.LastIndexByte(s, ']')
		if start < 0 || end <= start {
			return nil
		}
		if err := json.Unmarshal(s[start:end+1], &list); err != nil {
			return nil
		}
	}

	out := make([]string, 0, len(list))
	for _, c := range list {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
