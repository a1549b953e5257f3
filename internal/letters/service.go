package letters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"coverletter-backend/coverletter/content"
	"coverletter-backend/coverletter/model"
	"coverletter-backend/internal/extract"
	"coverletter-backend/internal/shared/storage/object"
	"coverletter-backend/internal/shared/telemetry"
)

const (
	maxNameLen        = 200
	maxJobDescription = 20000
	defaultListLimit  = 20
	maxListLimit      = 50
	maxImportSize     = 10 << 20
)

// ProfileSource resolves the placeholder profile of a user.
type ProfileSource interface {
	Profile(ctx context.Context, userID string, fallback model.Profile) (model.Profile, error)
}

type Service struct {
	Repo     Repo
	Profiles ProfileSource
	// Store keeps imported source documents. Imports are rejected without it.
	Store object.ObjectStore
	Now   func() time.Time
}

func NewService(repo Repo, profiles ProfileSource, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Profiles: profiles, Store: store, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) profile(ctx context.Context, userID string, fallback model.Profile) (model.Profile, error) {
	if s.Profiles == nil {
		return fallback, nil
	}
	return s.Profiles.Profile(ctx, userID, fallback)
}

func normalizeInput(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	if in.Name == "" {
		in.Name = DefaultName
	}
	if utf8.RuneCountInString(in.Name) > maxNameLen {
		return in, fmt.Errorf("%w: name is too long", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.JobTitle) > maxNameLen || utf8.RuneCountInString(in.CompanyName) > maxNameLen {
		return in, fmt.Errorf("%w: job title and company name must be at most %d characters", ErrInvalidInput, maxNameLen)
	}
	if utf8.RuneCountInString(in.JobDescription) > maxJobDescription {
		return in, fmt.Errorf("%w: job description is too long", ErrInvalidInput)
	}
	if err := in.Content.Validate(); err != nil {
		return in, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return in, nil
}

// Create finalizes the content against the user's profile and stores a new letter.
func (s *Service) Create(ctx context.Context, userID string, fallback model.Profile, in Input) (Letter, error) {
	if strings.TrimSpace(userID) == "" {
		return Letter{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	in, err := normalizeInput(in)
	if err != nil {
		return Letter{}, err
	}
	profile, err := s.profile(ctx, userID, fallback)
	if err != nil {
		return Letter{}, err
	}

	now := s.now()
	letter := Letter{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           in.Name,
		JobTitle:       in.JobTitle,
		CompanyName:    in.CompanyName,
		JobDescription: in.JobDescription,
		Content:        content.Finalize(in.Content, profile),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, letter); err != nil {
		return Letter{}, fmt.Errorf("create letter: %w", err)
	}
	telemetry.Info("letter.created", map[string]any{"letter_id": letter.ID, "user_id": userID})
	return letter, nil
}

func (s *Service) Get(ctx context.Context, userID, letterID string) (Letter, error) {
	if strings.TrimSpace(letterID) == "" {
		return Letter{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, letterID)
}

// Update replaces the editable fields of a letter, finalizing the content first.
func (s *Service) Update(ctx context.Context, userID, letterID string, fallback model.Profile, in Input) (Letter, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return Letter{}, err
	}
	existing, err := s.Get(ctx, userID, letterID)
	if err != nil {
		return Letter{}, err
	}
	profile, err := s.profile(ctx, userID, fallback)
	if err != nil {
		return Letter{}, err
	}

	existing.Name = in.Name
	existing.JobTitle = in.JobTitle
	existing.CompanyName = in.CompanyName
	existing.JobDescription = in.JobDescription
	existing.Content = content.Finalize(in.Content, profile)
	existing.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, existing); err != nil {
		return Letter{}, err
	}
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, userID, letterID string) error {
	if strings.TrimSpace(letterID) == "" {
		return ErrNotFound
	}
	return s.Repo.Delete(ctx, userID, letterID)
}

// List returns the user's letters newest first. The limit is clamped to 1..50.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Letter, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Duplicate stores a copy of a letter under a new id with " (Copy)" appended
// to its name. Timestamps belong to the copy.
func (s *Service) Duplicate(ctx context.Context, userID, letterID string) (Letter, error) {
	src, err := s.Get(ctx, userID, letterID)
	if err != nil {
		return Letter{}, err
	}
	now := s.now()
	dup := Letter{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           src.Name + CopySuffix,
		JobTitle:       src.JobTitle,
		CompanyName:    src.CompanyName,
		JobDescription: src.JobDescription,
		Content:        src.Content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, dup); err != nil {
		return Letter{}, fmt.Errorf("duplicate letter: %w", err)
	}
	telemetry.Info("letter.duplicated", map[string]any{"letter_id": dup.ID, "source_id": src.ID, "user_id": userID})
	return dup, nil
}

// ImportInput describes an uploaded letter document.
type ImportInput struct {
	FileName string
	MimeType string
	Body     io.Reader
}

// Import stores an uploaded PDF, DOCX or text file, extracts its text and
// saves it as the body of a new letter.
func (s *Service) Import(ctx context.Context, userID string, fallback model.Profile, in ImportInput) (Letter, error) {
	if s.Store == nil {
		return Letter{}, errors.New("letter import not configured")
	}
	if in.Body == nil {
		return Letter{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(in.Body, maxImportSize+1))
	if err != nil {
		return Letter{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Letter{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(data) > maxImportSize {
		return Letter{}, fmt.Errorf("%w: file exceeds 10MB", ErrInvalidInput)
	}
	mimeType := extract.NormalizeMimeType(in.MimeType, in.FileName, data)
	switch mimeType {
	case extract.MimePDF, extract.MimeDOCX, extract.MimeText:
	default:
		return Letter{}, fmt.Errorf("%w: only PDF, DOCX or text files can be imported", ErrInvalidInput)
	}

	key := object.ImportKey(userID, uuid.NewString(), in.FileName)
	if _, err := s.Store.Put(ctx, key, mimeType, bytes.NewReader(data)); err != nil {
		return Letter{}, fmt.Errorf("store upload: %w", err)
	}
	text, err := extract.ExtractText(ctx, s.Store, key, mimeType, in.FileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			return Letter{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		return Letter{}, fmt.Errorf("extract upload: %w", err)
	}
	body := content.Clean(text)
	if body == "" {
		return Letter{}, fmt.Errorf("%w: no text found in file", ErrInvalidInput)
	}

	profile, err := s.profile(ctx, userID, fallback)
	if err != nil {
		return Letter{}, err
	}
	letter := model.LetterContent{Body: body}
	return s.Create(ctx, userID, fallback, Input{
		Name:    importName(in.FileName),
		Content: content.FillHeader(letter, profile),
	})
}

func importName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == "." {
		return DefaultName
	}
	if utf8.RuneCountInString(stem) > maxNameLen {
		stem = string([]rune(stem)[:maxNameLen])
	}
	return stem
}
