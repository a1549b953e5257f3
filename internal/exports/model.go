package exports

import (
	"errors"
	"time"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRendering Status = "rendering"
	StatusSaved     Status = "saved"
	StatusError     Status = "error"
)

var (
	ErrNotFound = errors.New("export not found")
	// ErrNotReady is returned when the artifact of an unsaved export is requested.
	ErrNotReady = errors.New("export not ready")
)

// Export tracks one asynchronous PDF export of a letter.
type Export struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	LetterID     string    `json:"letterId"`
	Status       Status    `json:"status"`
	RenderPath   string    `json:"renderPath,omitempty"`
	FileName     string    `json:"fileName,omitempty"`
	StorageKey   string    `json:"-"`
	SizeBytes    int64     `json:"sizeBytes,omitempty"`
	Overflow     bool      `json:"overflow"`
	ErrorMessage string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Terminal reports whether the export has finished.
func (e Export) Terminal() bool {
	return e.Status == StatusSaved || e.Status == StatusError
}
