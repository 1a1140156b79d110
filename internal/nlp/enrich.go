// internal/nlp/enrich.go
package nlp

import "time"

// enrichQueryMetadata attaches caller identifiers and a processing timestamp
// to a business-query response. Keys already present from upstream are left
// alone so metadata never clobbers model-asserted data.
func enrichQueryMetadata(resp *StructuredResponse, query string, identity Identity, now time.Time) {
	setIfAbsent(resp.Fields, "original_query", query)
	setIfAbsent(resp.Fields, "organization_id", identity.OrganizationID)
	if identity.UserID != "" {
		setIfAbsent(resp.Fields, "user_id", identity.UserID)
	}
	setIfAbsent(resp.Fields, "processed_at", now.UTC().Unix())
}

func setIfAbsent(fields map[string]interface{}, key string, value interface{}) {
	if _, present := fields[key]; !present {
		fields[key] = value
	}
}
