package content

import (
	"strings"

	"coverletter-backend/coverletter/model"
)

// Finalize prepares a letter for saving or export: the body is cleaned of
// model commentary and every text field has its placeholders resolved against
// the profile.
func Finalize(letter model.LetterContent, profile model.Profile) model.LetterContent {
	out := letter.Trimmed()
	out.Body = ResolvePlaceholders(Clean(out.Body), profile)
	out.Closing = ResolvePlaceholders(out.Closing, profile)

	out.Header.FullName = ResolvePlaceholders(out.Header.FullName, profile)
	out.Header.Email = ResolvePlaceholders(out.Header.Email, profile)
	out.Header.Location = ResolvePlaceholders(out.Header.Location, profile)
	out.Header.Phone = ResolvePlaceholders(out.Header.Phone, profile)
	return out
}

// FillHeader copies profile values into empty header fields.
func FillHeader(letter model.LetterContent, profile model.Profile) model.LetterContent {
	profile = model.Profile{
		Name:     strings.TrimSpace(profile.Name),
		Email:    strings.TrimSpace(profile.Email),
		Location: strings.TrimSpace(profile.Location),
	}
	if letter.Header.FullName == "" && validValue(profile.Name, 2) {
		letter.Header.FullName = profile.Name
	}
	if letter.Header.Email == "" && validValue(profile.Email, 5) {
		letter.Header.Email = profile.Email
	}
	if letter.Header.Location == "" && validValue(profile.Location, 2) {
		letter.Header.Location = profile.Location
	}
	return letter
}
