package render

import (
	"bytes"
	"context"
	"fmt"
)

// Strategy turns a document into a PDF artifact.
type Strategy interface {
	Path() Path
	Render(ctx context.Context, doc Document) Result
}

// PrimaryStrategy prints the HTML rendition through an HTMLEngine. Any
// failure is reported as Retry so the caller can fall back.
type PrimaryStrategy struct {
	Engine   HTMLEngine
	Geometry Geometry
}

func (s PrimaryStrategy) Path() Path { return PathPrimary }

func (s PrimaryStrategy) Render(ctx context.Context, doc Document) Result {
	if s.Engine == nil {
		return Retry(ErrEngineUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return Err(err)
	}
	page, err := HTML(doc, s.Geometry)
	if err != nil {
		return Retry(err)
	}
	data, err := s.Engine.PrintPDF(ctx, page, s.Geometry)
	if err != nil {
		if ctx.Err() != nil {
			return Err(ctx.Err())
		}
		return Retry(err)
	}
	if !looksLikePDF(data) {
		return Retry(ErrEmptyOutput)
	}
	return Ok(Artifact{MimeType: MimePDF, Data: data, Path: PathPrimary})
}

// FallbackStrategy draws the letter with the low-level PDF writer. Its
// failures are terminal.
type FallbackStrategy struct {
	Geometry Geometry
}

func (s FallbackStrategy) Path() Path { return PathFallback }

func (s FallbackStrategy) Render(ctx context.Context, doc Document) Result {
	if err := ctx.Err(); err != nil {
		return Err(err)
	}
	data, overflow, err := DrawPDF(doc, s.Geometry)
	if err != nil {
		return Err(err)
	}
	if !looksLikePDF(data) {
		return Err(ErrEmptyOutput)
	}
	return Ok(Artifact{MimeType: MimePDF, Data: data, Path: PathFallback, Overflow: overflow})
}

func looksLikePDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// invoke runs a strategy and converts a panic into a result of the given kind.
func invoke(ctx context.Context, s Strategy, doc Document, onPanic func(error) Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = onPanic(fmt.Errorf("%s renderer panic: %v", s.Path(), r))
		}
	}()
	return s.Render(ctx, doc)
}
