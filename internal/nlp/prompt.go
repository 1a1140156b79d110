// internal/nlp/prompt.go
package nlp

import (
	"encoding/json"
	"fmt"
)

// noContextMarker renders in place of absent caller context so the model can
// tell "no context" apart from an empty value.
const noContextMarker = "No specific context provided"

// healthPrompt is the trivial prompt used by the liveness probe.
const healthPrompt = "Test connection"

// businessContextPrompt fixes the assistant role for all business
// intelligence prompts.
const businessContextPrompt = `You are an AI assistant specialized in Small and Medium Enterprise (SME) business intelligence.
Your role is to help business users understand their data through natural language queries.

Key capabilities:
1. Convert natural language queries to SQL queries
2. Suggest appropriate visualizations for data
3. Provide business insights and recommendations
4. Focus on SME-specific metrics and KPIs

Context: You're working with business data including sales, customers, inventory, finance, and operations.
Always provide practical, actionable insights relevant to SME business owners and managers.

When processing queries:
- Interpret the business intent behind the question
- Generate appropriate SQL if data retrieval is needed
- Suggest visualization types (charts, graphs, tables)
- Provide business context and insights
- Include confidence scores for your interpretations`

// PromptTemplate is an immutable text blueprint for one use case. Instances
// are created once at package init and never mutated.
type PromptTemplate struct {
	name   string
	layout string
}

// Render fills the template placeholders in order. Pure, always succeeds.
func (t *PromptTemplate) Render(args ...interface{}) string {
	return fmt.Sprintf(t.layout, args...)
}

func (t *PromptTemplate) Name() string { return t.name }

var (
	queryTemplate = &PromptTemplate{
		name: "business_query",
		layout: businessContextPrompt + `

Organization Context: %s

User Query: "%s"

Please provide a structured response in JSON format with the following fields:
{
    "interpretation": "What the user is asking for in business terms",
    "sql_query": "SQL query to retrieve the data (if applicable)",
    "visualization_config": {
        "type": "chart type (bar, line, pie, table, etc.)",
        "x_axis": "x-axis field",
        "y_axis": "y-axis field",
        "title": "suggested chart title"
    },
    "insights": ["List of business insights and recommendations"],
    "confidence": 0.95,
    "query_type": "Type of query (analytical, operational, strategic, etc.)"
}

Focus on SME business metrics like revenue, profit margins, customer acquisition,
inventory turnover, cash flow, and operational efficiency.`,
	}

	insightsTemplate = &PromptTemplate{
		name: "business_insights",
		layout: businessContextPrompt + `

Data Summary: %s

Based on this SME business data, provide insights in JSON format:
{
    "key_insights": ["List of key business insights"],
    "recommendations": ["Actionable recommendations"],
    "trends": ["Identified trends"],
    "alerts": ["Important alerts or concerns"],
    "opportunities": ["Growth opportunities"],
    "confidence": 0.95
}

Focus on practical insights that SME owners can act upon.`,
	}

	optimizeTemplate = &PromptTemplate{
		name: "query_optimization",
		layout: `You are a database performance expert. Analyze this SQL query and provide optimization suggestions:

SQL Query: %s

Provide response in JSON format:
{
    "optimized_query": "Optimized version of the SQL query",
    "suggestions": ["List of optimization suggestions"],
    "performance_impact": "Expected performance improvement",
    "confidence": 0.95
}`,
	}
)

// BuildQueryPrompt composes the business-query prompt. The caller context is
// serialized as JSON; absence renders the explicit marker.
func BuildQueryPrompt(query string, context map[string]interface{}) string {
	return queryTemplate.Render(serializeContext(context), query)
}

// BuildInsightsPrompt composes the insight-generation prompt from a data
// summary mapping.
func BuildInsightsPrompt(dataSummary map[string]interface{}) string {
	return insightsTemplate.Render(serializeContext(dataSummary))
}

// BuildOptimizePrompt composes the SQL-optimization prompt.
func BuildOptimizePrompt(sqlQuery string) string {
	return optimizeTemplate.Render(sqlQuery)
}

func serializeContext(context map[string]interface{}) string {
	if len(context) == 0 {
		return noContextMarker
	}
	data, err := json.Marshal(context)
	if err != nil {
		return noContextMarker
	}
	return string(data)
}
