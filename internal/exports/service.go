package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"coverletter-backend/coverletter/content"
	"coverletter-backend/coverletter/model"
	"coverletter-backend/coverletter/render"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/storage/object"
	"coverletter-backend/internal/shared/telemetry"
)

// LetterSource loads letters owned by a user.
type LetterSource interface {
	Get(ctx context.Context, userID, letterID string) (letters.Letter, error)
}

// Service renders letters synchronously and runs queued export jobs.
type Service struct {
	Letters  LetterSource
	Profiles letters.ProfileSource
	Repo     Repo
	Store    object.ObjectStore
	Renderer *render.Renderer
	// Queue hands jobs to the worker. Jobs run in-request when nil.
	Queue    queue.Client
	Geometry render.Geometry
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) geometry() render.Geometry {
	if s.Geometry == (render.Geometry{}) {
		return render.LetterGeometry
	}
	return s.Geometry
}

// prepare loads a letter and finalizes it against the owner's current profile.
func (s *Service) prepare(ctx context.Context, userID, letterID string, fallback model.Profile) (letters.Letter, error) {
	letter, err := s.Letters.Get(ctx, userID, letterID)
	if err != nil {
		return letters.Letter{}, err
	}
	profile := fallback
	if s.Profiles != nil {
		if profile, err = s.Profiles.Profile(ctx, userID, fallback); err != nil {
			return letters.Letter{}, fmt.Errorf("load profile: %w", err)
		}
	}
	letter.Content = content.Finalize(letter.Content, profile)
	return letter, nil
}

func (s *Service) render(ctx context.Context, job render.Job) (render.Artifact, error) {
	if s.Renderer == nil {
		return render.Artifact{}, errors.New("renderer not configured")
	}
	metrics.IncExportStarted()
	start := time.Now()
	artifact, err := s.Renderer.Export(ctx, job)
	metrics.ObserveExportDurationMs(float64(time.Since(start).Milliseconds()))

	fields := map[string]any{
		"export_id":   job.ExportID,
		"letter_id":   job.LetterID,
		"user_id":     job.UserID,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		metrics.IncExportFailed()
		fields["error"] = err
		telemetry.Error("export.failed", fields)
		return render.Artifact{}, err
	}

	metrics.IncExportSaved()
	fields["render_path"] = string(artifact.Path)
	fields["size_bytes"] = len(artifact.Data)
	if artifact.Path == render.PathFallback {
		metrics.IncExportFallback()
	}
	if artifact.Overflow {
		metrics.IncExportOverflow()
		telemetry.Warn("export.overflow", fields)
	}
	telemetry.Info("export.saved", fields)
	return artifact, nil
}

// Download renders a letter and returns the PDF without storing it.
func (s *Service) Download(ctx context.Context, userID, letterID string, fallback model.Profile) (render.Artifact, error) {
	letter, err := s.prepare(ctx, userID, letterID, fallback)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.render(ctx, render.Job{
		ExportID:    uuid.NewString(),
		UserID:      userID,
		LetterID:    letter.ID,
		DisplayName: letter.Name,
		Content:     letter.Content,
	})
}

// Preview rasterises the first page of a letter as PNG.
func (s *Service) Preview(ctx context.Context, userID, letterID string, fallback model.Profile) ([]byte, error) {
	if s.Renderer == nil {
		return nil, errors.New("renderer not configured")
	}
	letter, err := s.prepare(ctx, userID, letterID, fallback)
	if err != nil {
		return nil, err
	}
	png, overflow, err := s.Renderer.Preview(letter.Name, letter.Content, s.geometry())
	if err != nil {
		return nil, err
	}
	if overflow {
		telemetry.Warn("preview.overflow", map[string]any{"letter_id": letter.ID, "user_id": userID})
	}
	return png, nil
}

// Request records a queued export and hands it to the worker, or runs it
// before returning when no queue is configured.
func (s *Service) Request(ctx context.Context, userID, letterID, requestID string) (Export, error) {
	if _, err := s.Letters.Get(ctx, userID, letterID); err != nil {
		return Export{}, err
	}
	now := s.now()
	exp := Export{
		ID:        uuid.NewString(),
		UserID:    userID,
		LetterID:  letterID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, exp); err != nil {
		return Export{}, fmt.Errorf("create export: %w", err)
	}
	telemetry.Info("export.queued", map[string]any{"export_id": exp.ID, "letter_id": letterID, "user_id": userID, "request_id": requestID})

	if s.Queue == nil {
		return s.Process(WithRequestID(ctx, requestID), exp.ID)
	}
	err := s.Queue.Send(ctx, queue.NewMessage(exp.ID, userID, letterID, requestID, now))
	if err != nil {
		exp.Status = StatusError
		exp.ErrorMessage = "failed to queue export"
		exp.UpdatedAt = s.now()
		if uerr := s.Repo.Update(ctx, exp); uerr != nil {
			telemetry.Error("export.update_failed", map[string]any{"export_id": exp.ID, "error": uerr})
		}
		return Export{}, fmt.Errorf("enqueue export: %w", err)
	}
	return exp, nil
}

// Process renders a queued export and stores the artifact. Render and save
// failures end the export in the error state and are not returned; the
// returned error covers only failures that happen before the user is
// notified, which are safe to retry. Finished exports are left as is.
func (s *Service) Process(ctx context.Context, exportID string) (Export, error) {
	exp, err := s.Repo.GetByID(ctx, exportID)
	if err != nil {
		return Export{}, err
	}
	if exp.Terminal() {
		telemetry.Info("export.already_finished", map[string]any{"export_id": exp.ID, "status": string(exp.Status)})
		return exp, nil
	}

	exp.Status = StatusRendering
	exp.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, exp); err != nil {
		return Export{}, fmt.Errorf("mark rendering: %w", err)
	}

	letter, err := s.prepare(ctx, exp.UserID, exp.LetterID, model.Profile{})
	if err != nil {
		if errors.Is(err, letters.ErrNotFound) {
			return s.finishWithError(ctx, exp, "letter no longer exists")
		}
		return Export{}, err
	}

	_, err = s.render(ctx, render.Job{
		ExportID:    exp.ID,
		UserID:      exp.UserID,
		LetterID:    exp.LetterID,
		DisplayName: letter.Name,
		Content:     letter.Content,
		// The record is saved before the renderer notifies, so a redelivered
		// message finds a finished export.
		Save: func(ctx context.Context, artifact render.Artifact) error {
			saved, err := s.save(ctx, exp, artifact)
			if err != nil {
				return err
			}
			exp = saved
			return nil
		},
	})
	if err == nil {
		return exp, nil
	}

	failed, uerr := s.finishWithError(ctx, exp, "We could not create your PDF. Please try again.")
	if uerr != nil {
		// The failure notification is out; a redelivery would send another.
		telemetry.Error("export.update_failed", map[string]any{"export_id": exp.ID, "error": uerr})
		exp.Status = StatusError
		return exp, nil
	}
	return failed, nil
}

func (s *Service) save(ctx context.Context, exp Export, artifact render.Artifact) (Export, error) {
	key := object.ExportKey(exp.UserID, exp.ID, artifact.FileName)
	size, err := s.Store.Put(ctx, key, artifact.MimeType, bytes.NewReader(artifact.Data))
	if err != nil {
		return Export{}, fmt.Errorf("store artifact: %w", err)
	}

	exp.Status = StatusSaved
	exp.RenderPath = string(artifact.Path)
	exp.FileName = artifact.FileName
	exp.StorageKey = key
	exp.SizeBytes = size
	exp.Overflow = artifact.Overflow
	exp.ErrorMessage = ""
	exp.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, exp); err != nil {
		if derr := s.Store.Delete(ctx, key); derr != nil {
			telemetry.Warn("export.cleanup_failed", map[string]any{"export_id": exp.ID, "storage_key": key, "error": derr})
		}
		return Export{}, fmt.Errorf("mark saved: %w", err)
	}
	return exp, nil
}

func (s *Service) finishWithError(ctx context.Context, exp Export, message string) (Export, error) {
	exp.Status = StatusError
	exp.ErrorMessage = message
	exp.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, exp); err != nil {
		return Export{}, fmt.Errorf("mark error: %w", err)
	}
	return exp, nil
}

func (s *Service) Get(ctx context.Context, userID, exportID string) (Export, error) {
	if strings.TrimSpace(exportID) == "" {
		return Export{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, exportID)
}

// Open returns the stored artifact of a saved export. The caller closes it.
func (s *Service) Open(ctx context.Context, userID, exportID string) (Export, io.ReadCloser, error) {
	exp, err := s.Get(ctx, userID, exportID)
	if err != nil {
		return Export{}, nil, err
	}
	if exp.Status != StatusSaved || exp.StorageKey == "" {
		return exp, nil, ErrNotReady
	}
	rc, err := s.Store.Open(ctx, exp.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return exp, nil, ErrNotFound
		}
		return exp, nil, err
	}
	return exp, rc, nil
}
