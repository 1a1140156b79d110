// internal/nlp/validate.go
package nlp

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"ai-ml-service/internal/common/logger"
)

// Confidence tiers encode provenance-based trust: validated answers pass the
// model-reported confidence through, unparsable-but-present text is partially
// trusted, no answer at all is zero-trust. These values are load-bearing API
// behavior; recalibrate only with callers in mind.
const (
	ConfidenceDefault     = 0.5
	ConfidenceFallback    = 0.7
	ConfidenceUnavailable = 0.0
)

// Truncation lengths for fallback synthesis, kept as-is for compatibility
// with existing consumers of the fallback shape.
const (
	summaryMaxLen   = 500
	insightsTailLen = 200
	ellipsis        = "..."
)

const (
	defaultInterpretation = "Not provided"

	unavailableError          = "Gemini service unavailable"
	unavailableInterpretation = "Failed to process query"

	queryFallbackNote = "Response was not in JSON format, providing text fallback"
	textFallbackNote  = "Fallback text response"
)

// parseMapping attempts a strict JSON parse of the extracted text and
// requires the top-level value to be a mapping.
func parseMapping(text string) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("parsed value is not an object")
	}
	return fields, nil
}

// checkSchema validates a parsed mapping against the use case's JSON Schema.
// Violations are diagnostic only: they are logged, then repaired by
// defaulting, never surfaced to the caller as an error.
func checkSchema(fields map[string]interface{}, schema map[string]interface{}, log logger.Logger) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(fields),
	)
	if err != nil {
		log.Warn("response schema validation errored", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		log.Warn("response schema incomplete", map[string]interface{}{
			"violations": violations,
		})
	}
}

// applyDefaults injects use-case defaults for required fields absent from the
// parsed mapping. Fields the model did provide are never overwritten.
func applyDefaults(fields map[string]interface{}, defaults map[string]interface{}) {
	for key, value := range defaults {
		if _, present := fields[key]; !present {
			fields[key] = value
		}
	}
}

// truncateSummary caps text at summaryMaxLen bytes, appending the ellipsis
// marker only when truncation happened.
func truncateSummary(text string) string {
	if len(text) > summaryMaxLen {
		return text[:summaryMaxLen] + ellipsis
	}
	return text
}

// insightsTail returns the last insightsTailLen bytes of text, or the whole
// text when it is shorter.
func insightsTail(text string) string {
	if len(text) > insightsTailLen {
		return text[len(text)-insightsTailLen:]
	}
	return text
}
