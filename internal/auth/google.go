package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"coverletter-backend/internal/account"
	sharedauth "coverletter-backend/internal/shared/auth"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/users"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserUpserter records signed-in users. *users.Service satisfies it.
type UserUpserter interface {
	UpsertFromAuth(ctx context.Context, user users.User) error
}

// GuestClaimer moves a guest's letters to the account that just signed in.
// *account.Service satisfies it.
type GuestClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (account.ClaimResult, error)
}

// GoogleConfig holds the OAuth client settings.
type GoogleConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	UIRedirectURL string
}

func (c GoogleConfig) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// GoogleService runs the Google sign-in flow and issues API tokens.
type GoogleService struct {
	cfg         GoogleConfig
	oauth       *oauth2.Config
	userInfoURL string
	stateTTL    time.Duration
	states      *stateStore
	users       UserUpserter
	claimer     GuestClaimer
	now         func() time.Time
}

// NewGoogleService builds a GoogleService. userStore and claimer may be nil.
func NewGoogleService(cfg GoogleConfig, userStore UserUpserter, claimer GuestClaimer) *GoogleService {
	return &GoogleService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		stateTTL:    5 * time.Minute,
		states:      newStateStore(),
		users:       userStore,
		claimer:     claimer,
		now:         time.Now,
	}
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

// start accepts an optional guestId so letters written before sign-in
// follow the user into their account.
func (s *GoogleService) start(c *gin.Context) {
	if !s.cfg.complete() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	var guestUserID string
	if raw := c.Query("guestId"); raw != "" {
		id, err := account.GuestUserID(raw)
		if err != nil {
			respond.Invalid(c, "invalid guest id", respond.FieldIssue{Field: "guestId", Issue: "invalid"})
			return
		}
		guestUserID = id
	}

	state := uuid.NewString()
	s.states.put(state, pendingLogin{expires: s.now().Add(s.stateTTL), guestUserID: guestUserID}, s.now())
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	pending, ok := s.states.take(state, s.now())
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		telemetry.Warn("auth.google.exchange_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		telemetry.Warn("auth.google.userinfo_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	userID := "google:" + info.Sub
	if err := s.recordUser(ctx, userID, info); err != nil {
		telemetry.Error("auth.google.upsert_failed", map[string]any{"user_id": userID, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record user", nil)
		return
	}
	s.claimGuest(ctx, pending.guestUserID, userID)

	jwt, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:     userID,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	redirectURL, err := appendToken(s.cfg.UIRedirectURL, jwt)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

func (s *GoogleService) recordUser(ctx context.Context, userID string, info googleUserInfo) error {
	if s.users == nil || info.Email == "" {
		return nil
	}
	now := s.now().UTC()
	return s.users.UpsertFromAuth(ctx, users.User{
		ID:         userID,
		Email:      info.Email,
		FullName:   info.Name,
		PictureURL: info.Picture,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// claimGuest never fails the login; the UI can still call claim-guest.
func (s *GoogleService) claimGuest(ctx context.Context, guestUserID, userID string) {
	if s.claimer == nil || guestUserID == "" {
		return
	}
	result, err := s.claimer.ClaimGuest(ctx, guestUserID, userID)
	if err != nil {
		telemetry.Warn("auth.google.claim_failed", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}
	telemetry.Info("auth.google.guest_claimed", map[string]any{
		"user_id":          userID,
		"migrated_letters": result.MigratedLetters,
	})
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

var errNoSubject = errors.New("userinfo has no subject")

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return googleUserInfo{}, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	// v2 userinfo returns "id"; OpenID Connect returns "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	if info.Sub == "" {
		return googleUserInfo{}, errNoSubject
	}
	return info, nil
}

type pendingLogin struct {
	expires     time.Time
	guestUserID string
}

// stateStore keeps in-flight OAuth states. Each state is single use.
type stateStore struct {
	mu    sync.Mutex
	items map[string]pendingLogin
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]pendingLogin)}
}

// put also drops states nobody came back for.
func (s *stateStore) put(state string, p pendingLogin, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.items {
		if now.After(v.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = p
}

func (s *stateStore) take(state string, now time.Time) (pendingLogin, bool) {
	s.mu.Lock()
	p, ok := s.items[state]
	delete(s.items, state)
	s.mu.Unlock()
	if !ok || now.After(p.expires) {
		return pendingLogin{}, false
	}
	return p, true
}

func (s *stateStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
