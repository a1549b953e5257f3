package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/auth"
	"coverletter-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	isGuestKey     = "isGuest"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"

	maxGuestIDLen = 64
)

var publicPrefixes = []string{"/api/v1/auth/google/", "/api/v1/health", "/metrics"}

var (
	errNoIdentity   = errors.New("missing identity")
	errBadToken     = errors.New("missing or invalid token")
	errBadGuestID   = errors.New("invalid guest id")
	guestIDReplacer = strings.NewReplacer("-", "", "_", "")
)

// Identity is the caller as established by Auth.
type Identity struct {
	UserID  string
	Guest   bool
	Email   string
	Name    string
	Picture string
}

// Auth resolves the caller from a bearer JWT or, failing that, the
// X-Guest-Id header. Outside dev, guest ids must be short alphanumeric
// strings since they end up in storage keys.
func Auth(env string) gin.HandlerFunc {
	strictGuests := env != "dev" && env != "local"
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		id, err := resolveIdentity(c.Request, strictGuests)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

func resolveIdentity(r *http.Request, strictGuests bool) (Identity, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return Identity{}, errBadToken
		}
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			return Identity{}, errBadToken
		}
		return Identity{UserID: claims.Sub, Email: claims.Email, Name: claims.Name, Picture: claims.Picture}, nil
	}

	guestID := strings.TrimSpace(r.Header.Get("X-Guest-Id"))
	if guestID == "" {
		return Identity{}, errNoIdentity
	}
	if strictGuests && !validGuestID(guestID) {
		return Identity{}, errBadGuestID
	}
	return Identity{UserID: "guest:" + guestID, Guest: true}, nil
}

func validGuestID(id string) bool {
	if len(id) > maxGuestIDLen {
		return false
	}
	for _, r := range guestIDReplacer.Replace(id) {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(userIDKey, id.UserID)
	c.Set(isGuestKey, id.Guest)
	for key, val := range map[string]string{userEmailKey: id.Email, userNameKey: id.Name, userPictureKey: id.Picture} {
		if val != "" {
			c.Set(key, val)
		}
	}
}

func isPublicPath(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IdentityFromContext returns what Auth stored for this request.
func IdentityFromContext(c *gin.Context) Identity {
	return Identity{
		UserID:  UserIDFromContext(c),
		Guest:   IsGuest(c),
		Email:   UserEmailFromContext(c),
		Name:    UserNameFromContext(c),
		Picture: UserPictureFromContext(c),
	}
}

// IsGuest reports whether the caller authenticated with a guest header.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(isGuestKey)
	guest, _ := val.(bool)
	return guest
}

func UserIDFromContext(c *gin.Context) string      { return contextString(c, userIDKey) }
func UserEmailFromContext(c *gin.Context) string   { return contextString(c, userEmailKey) }
func UserNameFromContext(c *gin.Context) string    { return contextString(c, userNameKey) }
func UserPictureFromContext(c *gin.Context) string { return contextString(c, userPictureKey) }

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	s, _ := val.(string)
	return s
}
