package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"coverletter-backend/coverletter/model"
)

const maxProfileField = 200

var ErrInvalidProfile = errors.New("invalid profile")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth so letters and usage have a stable owner.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// Profile returns the placeholder source for userID. Unknown users, guests
// included, get fallback with empty fields left empty.
func (s *Service) Profile(ctx context.Context, userID string, fallback model.Profile) (model.Profile, error) {
	if s == nil || s.Repo == nil || strings.HasPrefix(userID, "guest:") {
		return fallback, nil
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return model.Profile{}, err
	}
	profile := user.Profile()
	if profile.Name == "" {
		profile.Name = fallback.Name
	}
	if profile.Email == "" {
		profile.Email = fallback.Email
	}
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if update.FullName != nil {
		v := strings.TrimSpace(*update.FullName)
		update.FullName = &v
	}
	if update.Location != nil {
		v := strings.TrimSpace(*update.Location)
		update.Location = &v
	}
	for name, value := range map[string]*string{"fullName": update.FullName, "location": update.Location} {
		if value != nil && utf8.RuneCountInString(*value) > maxProfileField {
			return User{}, fmt.Errorf("%w: %s is too long", ErrInvalidProfile, name)
		}
	}
	return s.Repo.UpdateProfile(ctx, userID, update)
}
