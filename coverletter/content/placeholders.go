package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"coverletter-backend/coverletter/model"
)

// Canonical placeholder forms.
const (
	PlaceholderName     = "[Your Name]"
	PlaceholderEmail    = "[Email Address]"
	PlaceholderLocation = "[Your Address]"
	PlaceholderPhone    = "[Phone Number]"
)

type placeholderField struct {
	canonical string
	aliases   []string
	minLen    int
	value     func(model.Profile) string
}

var placeholderFields = []placeholderField{
	{
		canonical: PlaceholderName,
		aliases:   []string{"your name", "full name"},
		minLen:    2,
		value:     func(p model.Profile) string { return p.Name },
	},
	{
		canonical: PlaceholderEmail,
		aliases:   []string{"email address", "your email", "your email address"},
		minLen:    5,
		value:     func(p model.Profile) string { return p.Email },
	},
	{
		canonical: PlaceholderLocation,
		aliases:   []string{"your address", "your location"},
		minLen:    2,
		value:     func(p model.Profile) string { return p.Location },
	},
	{
		// The profile carries no phone number; tokens are normalized only.
		canonical: PlaceholderPhone,
		aliases:   []string{"phone number", "your phone number", "your phone"},
		value:     func(model.Profile) string { return "" },
	},
}

var (
	placeholderPattern *regexp.Regexp
	placeholderByAlias map[string]placeholderField
)

func init() {
	placeholderByAlias = make(map[string]placeholderField)
	var alternatives []string
	for _, field := range placeholderFields {
		for _, alias := range field.aliases {
			placeholderByAlias[alias] = field
			alternatives = append(alternatives, regexp.QuoteMeta(alias))
		}
	}
	placeholderPattern = regexp.MustCompile(`\[(?i:(` + strings.Join(alternatives, "|") + `))\]`)
}

// ResolvePlaceholders replaces bracketed placeholder tokens with profile
// values. Tokens match regardless of case. A field whose profile value is
// missing or shorter than its minimum length keeps its canonical placeholder.
// Phone tokens always become PlaceholderPhone.
//
// A substituted value can join the text around it into a new token, so
// passes repeat until the text is stable. Every such pass consumes a bracket
// pair, which bounds the loop.
func ResolvePlaceholders(text string, profile model.Profile) string {
	if text == "" {
		return ""
	}
	resolved := make(map[string]string, len(placeholderFields))
	for _, field := range placeholderFields {
		resolved[field.canonical] = resolveField(field, profile)
	}
	for range strings.Count(text, "[") + 1 {
		next := resolveOnce(text, resolved)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func resolveOnce(text string, resolved map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		field, ok := placeholderByAlias[strings.ToLower(token[1:len(token)-1])]
		if !ok {
			return token
		}
		return resolved[field.canonical]
	})
}

func resolveField(field placeholderField, profile model.Profile) string {
	if field.minLen == 0 {
		return field.canonical
	}
	value := strings.TrimSpace(field.value(profile))
	if !validValue(value, field.minLen) {
		return field.canonical
	}
	return value
}

// validValue rejects short values, bracketed values and bare placeholder
// names such as "Full Name".
func validValue(value string, minLen int) bool {
	if utf8.RuneCountInString(value) < minLen {
		return false
	}
	if _, alias := placeholderByAlias[strings.ToLower(value)]; alias {
		return false
	}
	return !strings.ContainsAny(value, "[]")
}

// HasPlaceholders reports whether text still carries a recognized placeholder.
func HasPlaceholders(text string) bool {
	return placeholderPattern.MatchString(text)
}
