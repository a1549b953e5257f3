package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// DefaultClosing is used when a letter has no sign-off.
const DefaultClosing = "Sincerely,"

const (
	maxBodyLength = 20000
	maxFieldLen   = 300
)

// LetterContent is the structured representation of a cover letter.
type LetterContent struct {
	Header    LetterHeader    `json:"header" yaml:"header"`
	Recipient LetterRecipient `json:"recipient" yaml:"recipient"`
	Body      string          `json:"body" yaml:"body"`
	Closing   string          `json:"closing" yaml:"closing"`
}

// LetterHeader holds the sender block. All fields are optional.
type LetterHeader struct {
	FullName string `json:"fullName" yaml:"fullName"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
	Location string `json:"location" yaml:"location"`
	Date     string `json:"date" yaml:"date"`
}

// LetterRecipient holds the addressee block. All fields are optional.
type LetterRecipient struct {
	Name     string `json:"name" yaml:"name"`
	Company  string `json:"company" yaml:"company"`
	Position string `json:"position" yaml:"position"`
	Address  string `json:"address" yaml:"address"`
}

// Profile is the read-only substitution source for placeholders.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// ClosingOrDefault returns the closing, falling back to DefaultClosing.
func (c LetterContent) ClosingOrDefault() string {
	if closing := strings.TrimSpace(c.Closing); closing != "" {
		return closing
	}
	return DefaultClosing
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (c LetterContent) Trimmed() LetterContent {
	return LetterContent{
		Header: LetterHeader{
			FullName: strings.TrimSpace(c.Header.FullName),
			Email:    strings.TrimSpace(c.Header.Email),
			Phone:    strings.TrimSpace(c.Header.Phone),
			Location: strings.TrimSpace(c.Header.Location),
			Date:     strings.TrimSpace(c.Header.Date),
		},
		Recipient: LetterRecipient{
			Name:     strings.TrimSpace(c.Recipient.Name),
			Company:  strings.TrimSpace(c.Recipient.Company),
			Position: strings.TrimSpace(c.Recipient.Position),
			Address:  strings.TrimSpace(c.Recipient.Address),
		},
		Body:    strings.TrimSpace(c.Body),
		Closing: strings.TrimSpace(c.Closing),
	}
}

// Validate enforces size limits. Empty fields are allowed everywhere.
func (c LetterContent) Validate() error {
	if utf8.RuneCountInString(c.Body) > maxBodyLength {
		return errors.New("body is too long")
	}
	fields := map[string]string{
		"header.fullName":    c.Header.FullName,
		"header.email":       c.Header.Email,
		"header.phone":       c.Header.Phone,
		"header.location":    c.Header.Location,
		"header.date":        c.Header.Date,
		"recipient.name":     c.Recipient.Name,
		"recipient.company":  c.Recipient.Company,
		"recipient.position": c.Recipient.Position,
		"recipient.address":  c.Recipient.Address,
		"closing":            c.Closing,
	}
	for name, value := range fields {
		if utf8.RuneCountInString(value) > maxFieldLen {
			return errors.New(name + " is too long")
		}
	}
	return nil
}

// Paragraphs returns the non-empty body lines; each line break starts a new
// paragraph.
func (c LetterContent) Paragraphs() []string {
	body := strings.ReplaceAll(c.Body, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
