package letters

import (
	"time"

	"coverletter-backend/coverletter/model"
)

// DefaultName is used when a letter is saved without a name.
const DefaultName = "Untitled Cover Letter"

// CopySuffix is appended to the name of a duplicated letter.
const CopySuffix = " (Copy)"

type Letter struct {
	ID             string              `json:"id"`
	UserID         string              `json:"-"`
	Name           string              `json:"name"`
	JobTitle       string              `json:"jobTitle"`
	CompanyName    string              `json:"companyName"`
	JobDescription string              `json:"jobDescription"`
	Content        model.LetterContent `json:"content"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// Input is the user-editable part of a letter.
type Input struct {
	Name           string              `json:"name"`
	JobTitle       string              `json:"jobTitle"`
	CompanyName    string              `json:"companyName"`
	JobDescription string              `json:"jobDescription"`
	Content        model.LetterContent `json:"content"`
}
