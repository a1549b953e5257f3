package content

import "strings"

// Separator marks the start of trailing model commentary.
const Separator = "---"

// commentaryPhrases are matched against the lowercase form of each line.
var commentaryPhrases = []string{
	"this cover letter",
	"this letter highlights",
	"this letter emphasizes",
	"this version",
	"overall",
	"in summary",
	"feel free to customize",
	"feel free to adjust",
	"feel free to modify",
	"let me know if",
	"i hope this helps",
	"key improvements",
	"note:",
}

// Clean strips model meta-commentary from generated text.
//
// When the text contains Separator everything from its first occurrence on is
// dropped. Otherwise any line that starts with or contains a commentary phrase
// is removed. The result is trimmed.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	if idx := strings.Index(text, Separator); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isCommentary(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isCommentary(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return false
	}
	for _, phrase := range commentaryPhrases {
		if strings.HasPrefix(lower, phrase) || strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
