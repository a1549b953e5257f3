package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coverletter-backend/coverletter/model"
)

// State is a step of a single export.
type State string

const (
	StateIdle              State = "idle"
	StateRenderingPrimary  State = "rendering_primary"
	StateRenderingFallback State = "rendering_fallback"
	StateSaved             State = "saved"
	StateError             State = "error"
)

const (
	TitleDownloaded = "PDF Downloaded"
	TitleFailed     = "PDF Export Failed"
)

// NotificationKind separates success from failure notifications.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
)

// Notification is the user-facing message emitted once per export.
type Notification struct {
	Kind     NotificationKind `json:"kind"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	UserID   string           `json:"userId,omitempty"`
	LetterID string           `json:"letterId,omitempty"`
	ExportID string           `json:"exportId,omitempty"`
	FileName string           `json:"fileName,omitempty"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// SaveFunc persists or hands off a finished artifact.
type SaveFunc func(ctx context.Context, artifact Artifact) error

// Job is one export request.
type Job struct {
	ExportID    string
	UserID      string
	LetterID    string
	DisplayName string
	Content     model.LetterContent
	Save        SaveFunc
	// OnState observes every state transition, starting with StateIdle.
	OnState func(State)
}

// Renderer runs the primary strategy, falls back once on Retry and reports
// the outcome through exactly one notification. It is safe for concurrent
// use; each Export owns its own document and render target.
type Renderer struct {
	primary  Strategy
	fallback Strategy
	notifier Notifier
	now      func() time.Time
}

func NewRenderer(primary, fallback Strategy, notifier Notifier) *Renderer {
	return &Renderer{
		primary:  primary,
		fallback: fallback,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for dates and file names.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

type run struct {
	job   Job
	state State
}

func (x *run) enter(s State) {
	x.state = s
	if x.job.OnState != nil {
		x.job.OnState(s)
	}
}

// Export renders job.Content and saves the result.
func (r *Renderer) Export(ctx context.Context, job Job) (Artifact, error) {
	x := &run{job: job}
	x.enter(StateIdle)

	now := r.now()
	doc := BuildDocument(job.DisplayName, job.Content, now)
	fileName := FileName(job.DisplayName, now)

	x.enter(StateRenderingPrimary)
	res := invoke(ctx, r.primary, doc, Retry)
	var reasons []error
	if res.Outcome == OutcomeRetry {
		reasons = append(reasons, fmt.Errorf("%s: %w", r.primary.Path(), res.Reason))
		x.enter(StateRenderingFallback)
		res = invoke(ctx, r.fallback, doc, Err)
		if res.Outcome == OutcomeRetry {
			res = Err(res.Reason)
		}
	}
	if res.Outcome != OutcomeOK {
		reasons = append(reasons, res.Reason)
		return Artifact{}, r.fail(ctx, x, fileName, errors.Join(reasons...))
	}

	artifact := res.Artifact
	artifact.FileName = fileName
	if artifact.MimeType == "" {
		artifact.MimeType = MimePDF
	}
	if job.Save != nil {
		if err := job.Save(ctx, artifact); err != nil {
			return Artifact{}, r.fail(ctx, x, fileName, fmt.Errorf("save: %w", err))
		}
	}

	x.enter(StateSaved)
	r.notify(ctx, Notification{
		Kind:     KindSuccess,
		Title:    TitleDownloaded,
		Message:  fileName + " is ready.",
		UserID:   job.UserID,
		LetterID: job.LetterID,
		ExportID: job.ExportID,
		FileName: fileName,
	})
	return artifact, nil
}

func (r *Renderer) fail(ctx context.Context, x *run, fileName string, reason error) error {
	x.enter(StateError)
	r.notify(ctx, Notification{
		Kind:     KindError,
		Title:    TitleFailed,
		Message:  "We could not create your PDF. Please try again.",
		UserID:   x.job.UserID,
		LetterID: x.job.LetterID,
		ExportID: x.job.ExportID,
		FileName: fileName,
	})
	return fmt.Errorf("%w: %w", ErrExportFailed, reason)
}

func (r *Renderer) notify(ctx context.Context, n Notification) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(ctx, n)
}

// Preview rasterises the letter for display.
func (r *Renderer) Preview(displayName string, letter model.LetterContent, geo Geometry) ([]byte, bool, error) {
	return PreviewPNG(BuildDocument(displayName, letter, r.now()), geo)
}
