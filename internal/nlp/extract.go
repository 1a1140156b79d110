// internal/nlp/extract.go
package nlp

import "strings"

const (
	jsonFencePrefix = "```json"
	fenceMarker     = "```"
)

// ExtractJSONCandidate strips the markdown code fences Gemini wraps JSON
// replies in and trims surrounding whitespace. Pure string transform: it does
// not attempt to validate JSON-ness, and running it on already-stripped text
// is a no-op.
func ExtractJSONCandidate(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, jsonFencePrefix) {
		s = s[len(jsonFencePrefix):]
	} else if strings.HasPrefix(s, fenceMarker) {
		s = s[len(fenceMarker):]
	}

	if strings.HasSuffix(s, fenceMarker) {
		s = s[:len(s)-len(fenceMarker)]
	}

	return strings.TrimSpace(s)
}
