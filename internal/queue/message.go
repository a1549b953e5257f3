package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// MessageVersion is the current export message schema version.
const MessageVersion = 1

// ErrUnsupportedVersion is returned for messages from a newer producer.
var ErrUnsupportedVersion = errors.New("unsupported export message version")

// Client hands export jobs to a worker.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Message asks a worker to render and store one export.
type Message struct {
	ExportID   string `json:"exportId"`
	UserID     string `json:"userId"`
	LetterID   string `json:"letterId,omitempty"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewMessage stamps an export job with the current schema version.
func NewMessage(exportID, userID, letterID, requestID string, at time.Time) Message {
	return Message{
		ExportID:   exportID,
		UserID:     userID,
		LetterID:   letterID,
		RequestID:  requestID,
		EnqueuedAt: at.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a payload. Version 0 is accepted as the unversioned
// legacy shape.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return Message{}, ErrUnsupportedVersion
	}
	msg.ExportID = strings.TrimSpace(msg.ExportID)
	return msg, nil
}
