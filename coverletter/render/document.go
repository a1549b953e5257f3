package render

import (
	"strings"
	"time"

	"coverletter-backend/coverletter/content"
	"coverletter-backend/coverletter/model"
)

const (
	defaultRecipient = "Hiring Manager"
	dateLayout       = "January 2, 2006"
)

// Document is the render-ready form of a letter shared by every output path.
type Document struct {
	Title          string
	SenderName     string
	SenderLines    []string
	Date           string
	RecipientLines []string
	Greeting       string
	Paragraphs     []string
	Closing        string
	Signature      string
}

// BuildDocument lays out a letter's fields in reading order. Missing sender
// details become bracketed placeholders, missing recipient details are
// omitted and the date defaults to now.
func BuildDocument(title string, letter model.LetterContent, now time.Time) Document {
	letter = letter.Trimmed()

	name := orDefault(letter.Header.FullName, content.PlaceholderName)
	sender := []string{
		orDefault(letter.Header.Email, content.PlaceholderEmail),
		orDefault(letter.Header.Phone, content.PlaceholderPhone),
	}
	if letter.Header.Location != "" {
		sender = append(sender, letter.Header.Location)
	}

	recipientName := orDefault(letter.Recipient.Name, defaultRecipient)
	recipient := []string{recipientName}
	for _, line := range []string{letter.Recipient.Position, letter.Recipient.Company, letter.Recipient.Address} {
		if line != "" {
			recipient = append(recipient, line)
		}
	}

	greeting := "Dear " + recipientName + ","
	paragraphs := letter.Paragraphs()
	if len(paragraphs) > 0 && isGreeting(paragraphs[0]) {
		greeting = paragraphs[0]
		paragraphs = paragraphs[1:]
	}

	return Document{
		Title:          strings.TrimSpace(title),
		SenderName:     name,
		SenderLines:    sender,
		Date:           orDefault(letter.Header.Date, now.Format(dateLayout)),
		RecipientLines: recipient,
		Greeting:       greeting,
		Paragraphs:     paragraphs,
		Closing:        letter.ClosingOrDefault(),
		Signature:      name,
	}
}

// PlainText renders the document as plain text in reading order.
func (d Document) PlainText() string {
	var b strings.Builder
	b.WriteString(d.SenderName)
	b.WriteString("\n")
	b.WriteString(strings.Join(d.SenderLines, " | "))
	b.WriteString("\n\n")
	b.WriteString(d.Date)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(d.RecipientLines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(d.Greeting)
	b.WriteString("\n\n")
	for _, p := range d.Paragraphs {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	b.WriteString(d.Closing)
	b.WriteString("\n")
	b.WriteString(d.Signature)
	return b.String()
}

func isGreeting(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "dear ") || strings.HasPrefix(lower, "to whom it may concern")
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
