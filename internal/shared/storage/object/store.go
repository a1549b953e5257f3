package object

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves and retrieves binary objects by key.
type ObjectStore interface {
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// ExportKey is where a rendered export artifact lives. User ids are hashed
// so keys never carry raw identifiers.
func ExportKey(userID, exportID, fileName string) string {
	return path.Join(ownerPrefix(userID), "exports", exportID, safeName(fileName))
}

// ImportKey is where an uploaded source document for a letter import lives.
func ImportKey(userID, importID, fileName string) string {
	return path.Join(ownerPrefix(userID), "imports", importID, safeName(fileName))
}

func ownerPrefix(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// safeName flattens separators; names that try to traverse become "file".
func safeName(fileName string) string {
	if strings.Contains(fileName, "..") {
		return "file"
	}
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(fileName))
	if name == "" {
		return "file"
	}
	return name
}

// ValidKey rejects empty, absolute and traversing keys.
func ValidKey(storageKey string) bool {
	clean := path.Clean(strings.ReplaceAll(storageKey, "\\", "/"))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}
	return true
}
