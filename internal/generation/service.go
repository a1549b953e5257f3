package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coverletter-backend/coverletter/content"
	"coverletter-backend/coverletter/model"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/storage/cache"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/usage"
)

const (
	maxJobDescription = 20000
	maxCoverLetter    = 20000
	maxShortField     = 300

	DefaultCacheTTL = 24 * time.Hour
)

// Quota is the slice of usage.Service generation needs.
type Quota interface {
	CanConsume(ctx context.Context, userID string, n int) (bool, usage.Usage, error)
	Consume(ctx context.Context, userID string, n int) (usage.Usage, error)
}

// Service drafts and scores cover letters through an llm.Client.
type Service struct {
	LLM      llm.Client
	Quota    Quota
	Cache    cache.Cache
	CacheTTL time.Duration
	// Profiles resolves the stored profile used for placeholders. When nil
	// the caller's fallback profile is used as-is.
	Profiles letters.ProfileSource
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Generate writes a full letter or a list of suggestions for an existing draft.
func (s *Service) Generate(ctx context.Context, userID string, fallback model.Profile, req GenerateRequest) (GenerateResult, error) {
	req, err := normalizeGenerate(req)
	if err != nil {
		return GenerateResult{}, err
	}
	if err := s.checkQuota(ctx, userID); err != nil {
		return GenerateResult{}, err
	}

	in := llm.GenerationInput{
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: req.JobDescription,
		CurrentLetter:  req.CurrentLetter,
	}
	var prompt string
	if req.Type == TypeSuggestions {
		prompt, err = llm.SuggestionsPrompt(in)
	} else {
		prompt, err = llm.CompletePrompt(in)
	}
	if err != nil {
		return GenerateResult{}, err
	}

	raw, err := s.complete(ctx, "generation", llm.Request{System: llm.SystemWriter, Prompt: prompt})
	if err != nil {
		return GenerateResult{}, err
	}

	result := GenerateResult{Type: req.Type}
	if req.Type == TypeSuggestions {
		result.Suggestions = parseSuggestions(raw)
		if len(result.Suggestions) == 0 {
			metrics.IncGenerationFailed()
			return GenerateResult{}, fmt.Errorf("%w: no suggestions", ErrBadOutput)
		}
	} else {
		result.Content = sanitizeLetter(raw, s.profile(ctx, userID, fallback))
		if result.Content == "" {
			metrics.IncGenerationFailed()
			return GenerateResult{}, fmt.Errorf("%w: empty letter", ErrBadOutput)
		}
	}

	u, err := s.consume(ctx, userID)
	if err != nil {
		return GenerateResult{}, err
	}
	result.Remaining = u.Remaining()
	return result, nil
}

// Analyze scores a letter against a job description. Identical requests are
// served from the cache without consuming quota.
func (s *Service) Analyze(ctx context.Context, userID string, fallback model.Profile, req AnalyzeRequest) (Analysis, error) {
	req, err := normalizeAnalyze(req)
	if err != nil {
		return Analysis{}, err
	}
	if s.LLM == nil {
		return Analysis{}, llm.ErrNotConfigured
	}
	profile := s.profile(ctx, userID, fallback)
	prompt, err := llm.AnalysisPrompt(llm.AnalysisInput{
		CoverLetter:    req.CoverLetter,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		return Analysis{}, err
	}
	llmReq := llm.Request{System: llm.SystemAnalyst, Prompt: prompt, JSON: true}
	key := "analysis:" + llm.Hash(s.LLM.Model(), llmReq)

	if raw, ok := s.cached(ctx, key); ok {
		if analysis, err := parseAnalysis(raw); err == nil {
			analysis.OptimizedCoverLetter = sanitizeLetter(analysis.OptimizedCoverLetter, profile)
			analysis.Cached = true
			return analysis, nil
		}
	}

	if err := s.checkQuota(ctx, userID); err != nil {
		return Analysis{}, err
	}
	raw, err := s.complete(ctx, "analysis", llmReq)
	if err != nil {
		return Analysis{}, err
	}
	analysis, err := parseAnalysis(raw)
	if err != nil {
		metrics.IncGenerationFailed()
		telemetry.Warn("generation.analysis.bad_output", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return Analysis{}, err
	}
	if _, err := s.consume(ctx, userID); err != nil {
		return Analysis{}, err
	}
	s.store(ctx, key, raw)

	analysis.OptimizedCoverLetter = sanitizeLetter(analysis.OptimizedCoverLetter, profile)
	return analysis, nil
}

func (s *Service) profile(ctx context.Context, userID string, fallback model.Profile) model.Profile {
	if s.Profiles == nil {
		return fallback
	}
	p, err := s.Profiles.Profile(ctx, userID, fallback)
	if err != nil {
		telemetry.Warn("generation.profile_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fallback
	}
	return p
}

func (s *Service) complete(ctx context.Context, kind string, req llm.Request) (string, error) {
	if s.LLM == nil {
		return "", llm.ErrNotConfigured
	}
	start := s.now()
	raw, err := s.LLM.Complete(ctx, req)
	metrics.ObserveGenerationDurationMs(float64(s.now().Sub(start).Milliseconds()))
	if err != nil {
		metrics.IncGenerationFailed()
		telemetry.Error("generation.failed", map[string]any{
			"kind":  kind,
			"model": s.LLM.Model(),
			"error": err.Error(),
		})
		return "", err
	}
	metrics.IncGeneration()
	return raw, nil
}

func (s *Service) checkQuota(ctx context.Context, userID string) error {
	if s.Quota == nil {
		return nil
	}
	ok, _, err := s.Quota.CanConsume(ctx, userID, 1)
	if err != nil {
		return err
	}
	if !ok {
		metrics.IncQuotaRejected()
		return ErrQuotaExceeded
	}
	return nil
}

func (s *Service) consume(ctx context.Context, userID string) (usage.Usage, error) {
	if s.Quota == nil {
		return usage.Usage{}, nil
	}
	u, err := s.Quota.Consume(ctx, userID, 1)
	if errors.Is(err, usage.ErrLimitReached) {
		metrics.IncQuotaRejected()
		return usage.Usage{}, ErrQuotaExceeded
	}
	return u, err
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.Cache == nil {
		return "", false
	}
	data, err := s.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			telemetry.Warn("generation.cache.get_failed", map[string]any{"error": err.Error()})
		}
		return "", false
	}
	return string(data), true
}

func (s *Service) store(ctx context.Context, key, raw string) {
	if s.Cache == nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := s.Cache.Set(ctx, key, []byte(raw), ttl); err != nil {
		telemetry.Warn("generation.cache.set_failed", map[string]any{"error": err.Error()})
	}
}

func sanitizeLetter(text string, profile model.Profile) string {
	return content.ResolvePlaceholders(content.Clean(text), profile)
}

func normalizeGenerate(req GenerateRequest) (GenerateRequest, error) {
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.CurrentLetter = strings.TrimSpace(req.CurrentLetter)
	if req.Type == "" {
		req.Type = TypeComplete
	}
	switch {
	case req.Type != TypeComplete && req.Type != TypeSuggestions:
		return req, fmt.Errorf("%w: type must be complete or suggestions", ErrInvalidInput)
	case req.JobDescription == "":
		return req, fmt.Errorf("%w: job description is required", ErrInvalidInput)
	case len(req.JobDescription) > maxJobDescription:
		return req, fmt.Errorf("%w: job description is too long", ErrInvalidInput)
	case len(req.JobTitle) > maxShortField, len(req.CompanyName) > maxShortField:
		return req, fmt.Errorf("%w: job title and company name must be at most %d characters", ErrInvalidInput, maxShortField)
	case len(req.CurrentLetter) > maxCoverLetter:
		return req, fmt.Errorf("%w: current letter is too long", ErrInvalidInput)
	}
	return req, nil
}

func normalizeAnalyze(req AnalyzeRequest) (AnalyzeRequest, error) {
	req.CoverLetter = strings.TrimSpace(req.CoverLetter)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	switch {
	case req.CoverLetter == "":
		return req, fmt.Errorf("%w: cover letter is required", ErrInvalidInput)
	case len(req.CoverLetter) > maxCoverLetter:
		return req, fmt.Errorf("%w: cover letter is too long", ErrInvalidInput)
	case len(req.JobDescription) > maxJobDescription:
		return req, fmt.Errorf("%w: job description is too long", ErrInvalidInput)
	}
	return req, nil
}
