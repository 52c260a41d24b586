package search

import (
	"fmt"
	"strings"

	"atlas/agents/internal/agent"
	"atlas/agents/internal/responses"
)

// maxDomains caps how many include/exclude domains reach the instructions.
const maxDomains = 10

const SystemInstructions = `
You are a careful web research agent.
- Use the WebSearch tool to gather up-to-date facts.
- Prefer recent, reputable sources; avoid speculation.
- Answer concisely (3–6 bullets max) and include a short 'Sources:' section with direct URLs.
- If the question is ambiguous, briefly state assumptions you made.
`

// Request is the body of POST /search. query must be present but may be empty.
type Request struct {
	Query          *string  `json:"query" validate:"required"`
	RecencyDays    *int     `json:"recency_days,omitempty" validate:"omitnil,min=1,max=3650"`
	MaxResults     *int     `json:"max_results,omitempty" validate:"omitnil,min=1,max=20"`
	Region         string   `json:"region,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

// BuildInstructions appends the preference clauses to the preamble in a
// fixed order: recency, include domains, exclude domains, region.
func BuildInstructions(prefs Request) string {
	var sb strings.Builder
	sb.WriteString(SystemInstructions)
	if prefs.RecencyDays != nil && *prefs.RecencyDays > 0 {
		fmt.Fprintf(&sb, " Prefer sources published within the last %d days.", *prefs.RecencyDays)
	}
	if len(prefs.IncludeDomains) > 0 {
		sb.WriteString(" Prefer these domains if relevant: " + strings.Join(firstN(prefs.IncludeDomains, maxDomains), ", ") + ".")
	}
	if len(prefs.ExcludeDomains) > 0 {
		sb.WriteString(" Avoid these domains unless absolutely necessary: " + strings.Join(firstN(prefs.ExcludeDomains, maxDomains), ", ") + ".")
	}
	if prefs.Region != "" {
		fmt.Fprintf(&sb, " Assume the user's region is %s.", prefs.Region)
	}
	return sb.String()
}

func BuildAgent(model string, prefs Request) *agent.Agent {
	return &agent.Agent{
		Name:         "WebSearch",
		Instructions: BuildInstructions(prefs),
		Model:        model,
		Tools:        []responses.Tool{responses.WebSearchTool()},
	}
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
