package render

import "errors"

// Path names the strategy that produced an artifact.
type Path string

const (
	PathPrimary  Path = "primary"
	PathFallback Path = "fallback"
)

// MimePDF is the content type of every artifact.
const MimePDF = "application/pdf"

// Outcome classifies a strategy result.
type Outcome int

const (
	// OutcomeOK carries a finished artifact.
	OutcomeOK Outcome = iota
	// OutcomeRetry means this strategy failed and the next one should run.
	OutcomeRetry
	// OutcomeErr is terminal.
	OutcomeErr
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRetry:
		return "retry"
	default:
		return "err"
	}
}

// Artifact is a fully constructed document.
type Artifact struct {
	FileName string
	MimeType string
	Data     []byte
	Path     Path
	// Overflow is set when content ran past the bottom margin of the single
	// fallback page.
	Overflow bool
}

// Result is the return value of a rendering strategy.
type Result struct {
	Outcome  Outcome
	Artifact Artifact
	Reason   error
}

// Ok wraps a finished artifact.
func Ok(artifact Artifact) Result {
	return Result{Outcome: OutcomeOK, Artifact: artifact}
}

// Retry reports a recoverable failure.
func Retry(reason error) Result {
	return Result{Outcome: OutcomeRetry, Reason: reason}
}

// Err reports a terminal failure.
func Err(reason error) Result {
	return Result{Outcome: OutcomeErr, Reason: reason}
}

var (
	// ErrEngineUnavailable is returned when no HTML engine is configured.
	ErrEngineUnavailable = errors.New("html rendering engine unavailable")
	// ErrEmptyOutput is returned when a strategy produced no PDF bytes.
	ErrEmptyOutput = errors.New("renderer produced no pdf output")
	// ErrExportFailed wraps a terminal export failure.
	ErrExportFailed = errors.New("export failed")
)
