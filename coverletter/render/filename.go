package render

import (
	"regexp"
	"strings"
	"time"
)

const defaultFileStem = "cover_letter"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// FileName derives the download name `<sanitized-name>_<YYYY-MM-DD>.pdf`.
func FileName(displayName string, now time.Time) string {
	stem := strings.Trim(unsafeFileChars.ReplaceAllString(displayName, "_"), "_")
	if stem == "" {
		stem = defaultFileStem
	}
	if len(stem) > 80 {
		stem = strings.TrimRight(stem[:80], "_")
	}
	return stem + "_" + now.UTC().Format("2006-01-02") + ".pdf"
}
