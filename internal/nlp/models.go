// internal/nlp/models.go
package nlp

import "encoding/json"

// Provenance tags how a structured response was produced, so downstream code
// branches on the tag instead of probing for keys.
type Provenance string

const (
	// ProvenanceValidated marks a response parsed from model JSON, with
	// required-field defaults applied. The model-reported confidence is
	// passed through untouched.
	ProvenanceValidated Provenance = "validated"
	// ProvenanceFallback marks a response synthesized from unparsable model
	// text. Confidence is fixed at ConfidenceFallback.
	ProvenanceFallback Provenance = "fallback"
	// ProvenanceUnavailable marks a response produced without any model
	// reply. Confidence is fixed at ConfidenceUnavailable.
	ProvenanceUnavailable Provenance = "unavailable"
)

// StructuredResponse is the terminal object of one pipeline invocation. It
// always carries a confidence field and either the use case's primary field
// or an error field; it serializes as the bare field mapping.
type StructuredResponse struct {
	Provenance Provenance
	Fields     map[string]interface{}
}

func (r *StructuredResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields)
}

// Confidence returns the confidence field, or 0 when it is absent or not a
// number.
func (r *StructuredResponse) Confidence() float64 {
	if v, ok := r.Fields["confidence"].(float64); ok {
		return v
	}
	return 0
}

// ErrorMessage returns the error field when present.
func (r *StructuredResponse) ErrorMessage() (string, bool) {
	if v, ok := r.Fields["error"].(string); ok {
		return v, true
	}
	return "", false
}

// Identity is the authenticated caller identity supplied by the external auth
// middleware. It is consumed as-is, never validated here.
type Identity struct {
	OrganizationID string
	UserID         string
}
