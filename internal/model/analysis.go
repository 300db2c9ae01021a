package model

// AnalysisResult is the structured outcome of the conversation analysis call.
type AnalysisResult struct {
	KeyPoints  []string `json:"key_points"`
	PainPoints []string `json:"pain_points"`
	Objections []string `json:"objections"`
	NextSteps  []string `json:"next_steps"`
	Sentiment  string   `json:"sentiment"`
}
