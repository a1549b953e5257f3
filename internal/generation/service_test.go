package generation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"coverletter-backend/coverletter/model"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/storage/cache"
	"coverletter-backend/internal/usage"
)

type fakeLLM struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func (f *fakeLLM) Model() string { return "fake-1" }

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

var robin = model.Profile{Name: "Robin Park", Email: "robin@example.com", Location: "Lisbon"}

func newTestService(answer string, limit int) (*Service, *fakeLLM, *usage.Service) {
	client := &fakeLLM{answer: answer}
	quota := usage.NewService(usage.DefaultPolicy(limit))
	return &Service{LLM: client, Quota: quota, Cache: cache.NewMemory()}, client, quota
}

func TestGenerateCompleteCleansAndResolves(t *testing.T) {
	svc, client, quota := newTestService("Dear Hiring Manager,\n\nI am [Your Name].\n\nSincerely,\n[Your Name]\n---\nThis cover letter highlights your skills.", 5)

	out, err := svc.Generate(context.Background(), "u1", robin, GenerateRequest{
		JobTitle:       "Engineer",
		CompanyName:    "Acme",
		JobDescription: "Build widgets",
	})
	require.NoError(t, err)
	require.Equal(t, TypeComplete, out.Type)
	require.Equal(t, "Dear Hiring Manager,\n\nI am Robin Park.\n\nSincerely,\nRobin Park", out.Content)
	require.Equal(t, 4, out.Remaining)
	require.Equal(t, 1, client.calls())
	require.Equal(t, llm.SystemWriter, client.requests[0].System)
	require.Contains(t, client.requests[0].Prompt, "Build widgets")

	u, err := quota.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, u.Used)
}

func TestGenerateSuggestionsParsesBullets(t *testing.T) {
	svc, _, _ := newTestService("Here are some ideas:\n- Lead with the Acme product launch\n- Quantify the overall impact\n\nGood luck!", 5)

	out, err := svc.Generate(context.Background(), "u1", robin, GenerateRequest{
		JobDescription: "Build widgets",
		Type:           TypeSuggestions,
		CurrentLetter:  "Dear team",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Lead with the Acme product launch", "Quantify the overall impact"}, out.Suggestions)
	require.Empty(t, out.Content)
}

func TestGenerateValidatesBeforeCallingModel(t *testing.T) {
	tests := []struct {
		name string
		req  GenerateRequest
	}{
		{name: "missing job description", req: GenerateRequest{JobTitle: "Engineer", JobDescription: "   "}},
		{name: "unknown type", req: GenerateRequest{JobDescription: "Build", Type: "poem"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, client, _ := newTestService("unused", 5)
			_, err := svc.Generate(context.Background(), "u1", robin, tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.Zero(t, client.calls())
		})
	}
}

func TestGenerateQuotaExhausted(t *testing.T) {
	svc, client, quota := newTestService("Letter", 1)
	_, err := quota.Consume(context.Background(), "u1", 1)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "u1", robin, GenerateRequest{JobDescription: "Build"})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	require.Zero(t, client.calls())
}

func TestGenerateFailureDoesNotConsume(t *testing.T) {
	svc, client, quota := newTestService("", 5)
	client.err = errors.New("upstream 500")

	_, err := svc.Generate(context.Background(), "u1", robin, GenerateRequest{JobDescription: "Build"})
	require.Error(t, err)

	u, err := quota.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, u.Used)
}

const analysisAnswer = "```json\n" + `{
  "overallScore": 140,
  "alignment": "72",
  "persuasiveness": -3,
  "clarity": 88.6,
  "strengths": ["Specific examples", " "],
  "weaknesses": ["Generic opening"],
  "improvementSuggestions": ["Name the team"],
  "optimizedCoverLetter": "Dear team,\nI am [Your Name].\n---\nThis version is stronger."
}` + "\n```"

func TestAnalyzeClampsScoresAndSanitizes(t *testing.T) {
	svc, client, _ := newTestService(analysisAnswer, 5)

	out, err := svc.Analyze(context.Background(), "u1", robin, AnalyzeRequest{
		CoverLetter:    "Dear team, I build widgets.",
		JobDescription: "Widget engineer",
	})
	require.NoError(t, err)
	require.Equal(t, 100, out.OverallScore)
	require.Equal(t, 72, out.Alignment)
	require.Equal(t, 0, out.Persuasiveness)
	require.Equal(t, 89, out.Clarity)
	require.Equal(t, []string{"Specific examples"}, out.Strengths)
	require.Equal(t, "Dear team,\nI am Robin Park.", out.OptimizedCoverLetter)
	require.False(t, out.Cached)
	require.True(t, client.requests[0].JSON)
}

func TestAnalyzeCacheHitSkipsModelAndQuota(t *testing.T) {
	svc, client, quota := newTestService(analysisAnswer, 5)
	req := AnalyzeRequest{CoverLetter: "Dear team", JobDescription: "Widgets"}

	_, err := svc.Analyze(context.Background(), "u1", robin, req)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), "u1", model.Profile{Name: "Sam Lee"}, req)
	require.NoError(t, err)

	require.True(t, second.Cached)
	require.Equal(t, "Dear team,\nI am Sam Lee.", second.OptimizedCoverLetter)
	require.Equal(t, 1, client.calls())
	u, err := quota.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, u.Used)
}

func TestAnalyzeRequiresCoverLetter(t *testing.T) {
	svc, client, _ := newTestService(analysisAnswer, 5)
	_, err := svc.Analyze(context.Background(), "u1", robin, AnalyzeRequest{JobDescription: "Widgets"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, client.calls())
}

func TestAnalyzeRejectsNonJSON(t *testing.T) {
	svc, _, quota := newTestService("I think the letter is good.", 5)
	_, err := svc.Analyze(context.Background(), "u1", robin, AnalyzeRequest{CoverLetter: "Dear team"})
	require.ErrorIs(t, err, ErrBadOutput)

	u, err := quota.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, u.Used)
}

func TestParseSuggestionsWithoutBullets(t *testing.T) {
	require.Equal(t, []string{"Open with impact", "Close warmly"}, parseSuggestions("Open with impact\r\n\r\nClose warmly\n"))
	require.Equal(t, []string{"First", "Second"}, parseSuggestions("1. First\n2) Second"))
}
