package generation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// rawAnalysis accepts scores as numbers or numeric strings.
type rawAnalysis struct {
	OverallScore           json.Number `json:"overallScore"`
	Alignment              json.Number `json:"alignment"`
	Persuasiveness         json.Number `json:"persuasiveness"`
	Clarity                json.Number `json:"clarity"`
	Strengths              []string    `json:"strengths"`
	Weaknesses             []string    `json:"weaknesses"`
	ImprovementSuggestions []string    `json:"improvementSuggestions"`
	OptimizedCoverLetter   string      `json:"optimizedCoverLetter"`
}

// parseAnalysis decodes a model answer, tolerating markdown code fences.
func parseAnalysis(raw string) (Analysis, error) {
	body := stripFences(raw)
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var parsed rawAnalysis
	if err := dec.Decode(&parsed); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	return Analysis{
		OverallScore:           clampScore(parsed.OverallScore),
		Alignment:              clampScore(parsed.Alignment),
		Persuasiveness:         clampScore(parsed.Persuasiveness),
		Clarity:                clampScore(parsed.Clarity),
		Strengths:              cleanList(parsed.Strengths),
		Weaknesses:             cleanList(parsed.Weaknesses),
		ImprovementSuggestions: cleanList(parsed.ImprovementSuggestions),
		OptimizedCoverLetter:   parsed.OptimizedCoverLetter,
	}, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampScore(n json.Number) int {
	v, err := n.Float64()
	if err != nil || math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseSuggestions turns a bulleted answer into one entry per bullet. Lines
// without a bullet are dropped when any bullet is present, which discards the
// intro and sign-off models tend to add.
func parseSuggestions(raw string) []string {
	var bullets, plain []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := cutBullet(line); ok {
			if item != "" {
				bullets = append(bullets, item)
			}
			continue
		}
		plain = append(plain, line)
	}
	if len(bullets) > 0 {
		return bullets
	}
	return plain
}

func cutBullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest), true
		}
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(line) && (line[digits] == '.' || line[digits] == ')') {
		return strings.TrimSpace(line[digits+1:]), true
	}
	return "", false
}
