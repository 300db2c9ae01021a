package service

import (
	"encoding/json"
	"strings"

	"app/internal/model"
)

// AnalysisParser turns the raw analysis output into structured fields.
// The structured implementation expects the schema-constrained JSON and falls
// back to line-prefix matching when the upstream returns plain text, so the
// heuristic stays isolated behind this interface and can be swapped out.
type AnalysisParser interface {
	Parse(raw string) *model.AnalysisResult
}

type structuredParser struct {
	fallback AnalysisParser
}

// NewAnalysisParser returns the default parser: structured JSON first,
// heuristic text matching as fallback.
func NewAnalysisParser() AnalysisParser {
	return &structuredParser{fallback: &heuristicParser{}}
}

func (p *structuredParser) Parse(raw string) *model.AnalysisResult {
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err == nil {
		if result.Sentiment == "" {
			result.Sentiment = "neutral"
		}
		return &result
	}
	return p.fallback.Parse(raw)
}

// heuristicParser mirrors the legacy line-prefix matching over free text.
type heuristicParser struct{}

func (p *heuristicParser) Parse(raw string) *model.AnalysisResult {
	result := &model.AnalysisResult{Sentiment: "neutral"}
	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "key point") || strings.Contains(lower, "key points"):
			result.KeyPoints = append(result.KeyPoints, lineValue(line))
		case strings.HasPrefix(lower, "pain point") || strings.Contains(lower, "pain points"):
			result.PainPoints = append(result.PainPoints, lineValue(line))
		case strings.HasPrefix(lower, "objection") || strings.Contains(lower, "objections"):
			result.Objections = append(result.Objections, lineValue(line))
		case strings.HasPrefix(lower, "next step") || strings.Contains(lower, "next steps"):
			result.NextSteps = append(result.NextSteps, lineValue(line))
		case strings.Contains(lower, "sentiment"):
			if strings.Contains(lower, "positive") {
				result.Sentiment = "positive"
			} else if strings.Contains(lower, "negative") {
				result.Sentiment = "negative"
			}
		}
	}
	return result
}

// lineValue returns the text after the first colon, or the whole line.
func lineValue(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}
