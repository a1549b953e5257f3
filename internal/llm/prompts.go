package llm

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

const (
	SystemWriter  = "You are an expert career coach who writes concise, specific cover letters. Write only the letter text."
	SystemAnalyst = "You are a hiring manager reviewing cover letters. Respond with a single JSON object and nothing else."
)

// GenerationInput feeds the drafting prompts.
type GenerationInput struct {
	JobTitle       string
	CompanyName    string
	JobDescription string
	CurrentLetter  string
}

// AnalysisInput feeds the scoring prompt.
type AnalysisInput struct {
	CoverLetter    string
	JobDescription string
}

// CompletePrompt asks for a full letter.
func CompletePrompt(in GenerationInput) (string, error) {
	return execute("generate_complete.tmpl", in)
}

// SuggestionsPrompt asks for improvement suggestions for a draft.
func SuggestionsPrompt(in GenerationInput) (string, error) {
	return execute("generate_suggestions.tmpl", in)
}

// AnalysisPrompt asks for a scored review of a letter.
func AnalysisPrompt(in AnalysisInput) (string, error) {
	return execute("analyze.tmpl", in)
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
