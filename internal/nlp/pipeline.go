// internal/nlp/pipeline.go
package nlp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ai-ml-service/internal/common/logger"
	"ai-ml-service/internal/common/metrics"
	"ai-ml-service/internal/gemini"
)

// operation bundles the per-use-case pieces of the pipeline: a metric name,
// the response schema, and the defaults injected for missing required fields.
type operation struct {
	name     string
	defaults map[string]interface{}
	schema   map[string]interface{}
}

var (
	opInterpretQuery = &operation{
		name: "interpret_query",
		defaults: map[string]interface{}{
			"interpretation": defaultInterpretation,
			"confidence":     ConfidenceDefault,
		},
		schema: map[string]interface{}{
			"type":     "object",
			"required": []string{"interpretation", "confidence"},
			"properties": map[string]interface{}{
				"interpretation":       map[string]interface{}{"type": "string"},
				"sql_query":            map[string]interface{}{"type": "string"},
				"visualization_config": map[string]interface{}{"type": "object"},
				"insights":             map[string]interface{}{"type": "array"},
				"confidence":           map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
				"query_type":           map[string]interface{}{"type": "string"},
			},
		},
	}

	opGenerateInsights = &operation{
		name: "generate_insights",
		defaults: map[string]interface{}{
			"confidence": ConfidenceDefault,
		},
		schema: map[string]interface{}{
			"type":     "object",
			"required": []string{"confidence"},
			"properties": map[string]interface{}{
				"key_insights":    map[string]interface{}{"type": "array"},
				"recommendations": map[string]interface{}{"type": "array"},
				"trends":          map[string]interface{}{"type": "array"},
				"alerts":          map[string]interface{}{"type": "array"},
				"opportunities":   map[string]interface{}{"type": "array"},
				"confidence":      map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			},
		},
	}

	opOptimizeQuery = &operation{
		name: "optimize_query",
		defaults: map[string]interface{}{
			"confidence": ConfidenceDefault,
		},
		schema: map[string]interface{}{
			"type":     "object",
			"required": []string{"confidence"},
			"properties": map[string]interface{}{
				"optimized_query":    map[string]interface{}{"type": "string"},
				"suggestions":        map[string]interface{}{"type": "array"},
				"performance_impact": map[string]interface{}{"type": "string"},
				"confidence":         map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			},
		},
	}
)

// Pipeline sequences prompt building, generation, extraction, validation and
// enrichment for the three business-intelligence use cases. Invocations are
// independent and share no mutable state, so a single Pipeline is safe for
// unbounded concurrent use.
type Pipeline struct {
	gen    gemini.Generator
	logger logger.Logger
}

func NewPipeline(gen gemini.Generator, log logger.Logger) *Pipeline {
	return &Pipeline{
		gen: gen,
		logger: log.With(map[string]interface{}{
			"component": "nlp-pipeline",
		}),
	}
}

// InterpretQuery processes a natural-language business query and returns a
// structured interpretation enriched with caller metadata. Every failure mode
// resolves to a normal response graded by confidence; it never returns an
// error.
func (p *Pipeline) InterpretQuery(ctx context.Context, query string, context map[string]interface{}, identity Identity) (resp *StructuredResponse) {
	op := opInterpretQuery
	timer := prometheus.NewTimer(metrics.QueryDuration.WithLabelValues(op.name))
	defer timer.ObserveDuration()
	defer p.recoverFault(op, &resp)

	prompt := BuildQueryPrompt(query, context)

	result := p.gen.Generate(ctx, prompt)
	if !result.Available {
		resp = &StructuredResponse{
			Provenance: ProvenanceUnavailable,
			Fields: map[string]interface{}{
				"interpretation": unavailableInterpretation,
				"confidence":     ConfidenceUnavailable,
				"error":          unavailableError,
			},
		}
		metrics.QueriesProcessed.WithLabelValues(op.name, string(resp.Provenance)).Inc()
		return resp
	}

	resp = p.normalize(op, result.Text, func(raw string) map[string]interface{} {
		return map[string]interface{}{
			"interpretation": truncateSummary(raw),
			"insights":       []string{insightsTail(raw)},
			"confidence":     ConfidenceFallback,
			"query_type":     "general",
			"note":           queryFallbackNote,
		}
	})
	enrichQueryMetadata(resp, query, identity, time.Now())

	p.logger.Info("business query processed", map[string]interface{}{
		"organizationId": identity.OrganizationID,
		"provenance":     string(resp.Provenance),
		"confidence":     resp.Confidence(),
	})
	metrics.QueriesProcessed.WithLabelValues(op.name, string(resp.Provenance)).Inc()
	return resp
}

// GenerateInsights produces business insights from a data summary mapping.
func (p *Pipeline) GenerateInsights(ctx context.Context, dataSummary map[string]interface{}, identity Identity) (resp *StructuredResponse) {
	op := opGenerateInsights
	timer := prometheus.NewTimer(metrics.QueryDuration.WithLabelValues(op.name))
	defer timer.ObserveDuration()
	defer p.recoverFault(op, &resp)

	prompt := BuildInsightsPrompt(dataSummary)

	result := p.gen.Generate(ctx, prompt)
	if !result.Available {
		resp = p.unavailableResponse()
		metrics.QueriesProcessed.WithLabelValues(op.name, string(resp.Provenance)).Inc()
		return resp
	}

	resp = p.normalize(op, result.Text, func(raw string) map[string]interface{} {
		return map[string]interface{}{
			"key_insights": []string{insightsTail(raw)},
			"confidence":   ConfidenceFallback,
			"note":         textFallbackNote,
		}
	})

	p.logger.Info("insights generated", map[string]interface{}{
		"organizationId": identity.OrganizationID,
		"provenance":     string(resp.Provenance),
		"confidence":     resp.Confidence(),
	})
	metrics.QueriesProcessed.WithLabelValues(op.name, string(resp.Provenance)).Inc()
	return resp
}

// OptimizeQuery asks the model for an optimized version of a SQL query.
func (p *Pipeline) OptimizeQuery(ctx context.Context, sqlQuery string, identity Identity) (resp *StructuredResponse) {
	op := opOptimizeQuery
	timer := prometheus.NewTimer(metrics.QueryDuration.WithLabelValues(op.name))
	defer timer.ObserveDuration()
	defer p.recoverFault(op, &resp)

	prompt := BuildOptimizePrompt(sqlQuery)

	result := p.gen.Generate(ctx, prompt)
	if !result.Available {
		resp = p.unavailableResponse()
		metrics.QueriesProcessed.WithLabelValues(op.name, string(resp.Provenance)).Inc()
		return resp
	}

	resp = p.normalize(op, result.Text, func(raw string) map[string]interface{} {
		// The original query is still the safest thing to run.
		return map[string]interface{}{
			"optimized_query": sqlQuery,
			"suggestions":     []string{insightsTail(raw)},
			"confidence":      ConfidenceFallback,
			"note":            textFallbackNote,
		}
	})

	p.logger.Info("query optimization processed", map[string]interface{}{
		"organizationId": identity.OrganizationID,
		"provenance":     string(resp.Provenance),
		"confidence":     resp.Confidence(),
	})
	metrics.QueriesProcessed.WithLabelValues(op.name, string(resp.Provenance)).Inc()
	return resp
}

// HealthCheck runs the build/invoke/extract stages once with a trivial prompt
// and reports "healthy" on any non-empty reply. JSON validity is not required.
func (p *Pipeline) HealthCheck(ctx context.Context) string {
	result := p.gen.Generate(ctx, healthPrompt)
	if !result.Available {
		return "unhealthy"
	}
	if strings.TrimSpace(ExtractJSONCandidate(result.Text)) == "" {
		return "unhealthy"
	}
	return "healthy"
}

// normalize turns raw model text into a structured response: fence stripping,
// strict parse, schema check and defaulting on success, deterministic text
// fallback on parse failure.
func (p *Pipeline) normalize(op *operation, rawText string, fallback func(string) map[string]interface{}) *StructuredResponse {
	candidate := ExtractJSONCandidate(rawText)

	fields, err := parseMapping(candidate)
	if err != nil {
		metrics.FallbackResponses.WithLabelValues(op.name).Inc()
		p.logger.Warn("model response was not valid JSON, using text fallback", map[string]interface{}{
			"operation": op.name,
			"error":     err.Error(),
		})
		return &StructuredResponse{Provenance: ProvenanceFallback, Fields: fallback(rawText)}
	}

	checkSchema(fields, op.schema, p.logger)
	applyDefaults(fields, op.defaults)
	return &StructuredResponse{Provenance: ProvenanceValidated, Fields: fields}
}

func (p *Pipeline) unavailableResponse() *StructuredResponse {
	return &StructuredResponse{
		Provenance: ProvenanceUnavailable,
		Fields: map[string]interface{}{
			"confidence": ConfidenceUnavailable,
			"error":      unavailableError,
		},
	}
}

// recoverFault converts any unanticipated panic during orchestration into a
// zero-confidence error response so no internal fault ever escapes to the
// caller.
func (p *Pipeline) recoverFault(op *operation, resp **StructuredResponse) {
	r := recover()
	if r == nil {
		return
	}

	desc := fmt.Sprintf("%v", r)
	p.logger.Error("pipeline fault recovered", map[string]interface{}{
		"operation": op.name,
		"fault":     desc,
	})
	metrics.QueriesProcessed.WithLabelValues(op.name, "fault").Inc()

	fields := map[string]interface{}{
		"confidence": ConfidenceUnavailable,
		"error":      desc,
	}
	if op == opInterpretQuery {
		fields["interpretation"] = "Error processing query: " + desc
	}
	*resp = &StructuredResponse{Provenance: ProvenanceUnavailable, Fields: fields}
}
