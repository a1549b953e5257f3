package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Client completes prompts against a language model provider.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Model names the provider model, used to key cached responses.
	Model() string
}

// Request is a single completion call.
type Request struct {
	System string
	Prompt string
	// JSON asks the provider to answer with a single JSON object.
	JSON bool
}

// Hash identifies a request for caching. Identical prompts against the same
// model share a hash.
func Hash(model string, req Request) string {
	sum := sha256.New()
	sum.Write([]byte(model))
	sum.Write([]byte{0})
	sum.Write([]byte(req.System))
	sum.Write([]byte{0})
	sum.Write([]byte(req.Prompt))
	if req.JSON {
		sum.Write([]byte{1})
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient stands in when no provider is configured.
type PlaceholderClient struct{}

func (PlaceholderClient) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

func (PlaceholderClient) Model() string { return "none" }
