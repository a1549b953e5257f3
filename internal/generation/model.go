package generation

import "errors"

// Type selects what POST /generations produces.
type Type string

const (
	TypeComplete    Type = "complete"
	TypeSuggestions Type = "suggestions"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrQuotaExceeded = errors.New("generation quota exceeded")
	// ErrBadOutput is returned when the model answer cannot be used.
	ErrBadOutput = errors.New("unusable model output")
)

type GenerateRequest struct {
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	JobDescription string `json:"jobDescription"`
	Type           Type   `json:"type"`
	// CurrentLetter is the draft that suggestions refer to.
	CurrentLetter string `json:"currentLetter"`
}

type GenerateResult struct {
	Type        Type     `json:"type"`
	Content     string   `json:"content,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Remaining   int      `json:"remaining"`
}

type AnalyzeRequest struct {
	CoverLetter    string `json:"coverLetter"`
	JobDescription string `json:"jobDescription"`
}

// Analysis is the scored review of a cover letter. Scores are 0..100.
type Analysis struct {
	OverallScore           int      `json:"overallScore"`
	Alignment              int      `json:"alignment"`
	Persuasiveness         int      `json:"persuasiveness"`
	Clarity                int      `json:"clarity"`
	Strengths              []string `json:"strengths"`
	Weaknesses             []string `json:"weaknesses"`
	ImprovementSuggestions []string `json:"improvementSuggestions"`
	OptimizedCoverLetter   string   `json:"optimizedCoverLetter"`
	Cached                 bool     `json:"cached"`
}
