package users

import (
	"time"

	"coverletter-backend/coverletter/model"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	PictureURL string    `json:"pictureUrl"`
	Location   string    `json:"location"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile returns the placeholder substitution source for this user.
func (u User) Profile() model.Profile {
	return model.Profile{Name: u.FullName, Email: u.Email, Location: u.Location}
}

// ProfileUpdate carries the user-editable fields. Nil leaves a field as is.
type ProfileUpdate struct {
	FullName *string `json:"fullName"`
	Location *string `json:"location"`
}

func (p ProfileUpdate) apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
}
