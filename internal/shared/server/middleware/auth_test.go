package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/auth"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/letters", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c), "guest": IsGuest(c)})
	})
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.OPTIONS("/api/v1/letters/current", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/letters/current", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthGuestHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters", nil)
	req.Header.Set("X-Guest-Id", "abc")
	resp := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != `{"guest":true,"userId":"guest:abc"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAuthBearerToken(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "mw-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: "user-9"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != `{"guest":false,"userId":"user-9"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAuthRejectsMissingIdentityAndBadToken(t *testing.T) {
	router := newAuthRouter()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/letters", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}
}

func TestAuthSkipsPublicPaths(t *testing.T) {
	resp := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health, got %d", resp.Code)
	}
}

func TestAuthGuestIDRulesOutsideDev(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("production"))
	router.GET("/api/v1/letters", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": IdentityFromContext(c).UserID})
	})

	tests := []struct {
		guestID string
		status  int
	}{
		{"3f2b8c1e-9d4a-4c5e-8f7a-2b1c3d4e5f60", http.StatusOK},
		{"guest_1", http.StatusOK},
		{"../../etc", http.StatusUnauthorized},
		{"has space", http.StatusUnauthorized},
		{strings.Repeat("a", 65), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/letters", nil)
		req.Header.Set("X-Guest-Id", tt.guestID)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.status {
			t.Fatalf("guest %q: expected %d, got %d", tt.guestID, tt.status, resp.Code)
		}
	}
}

func TestIdentityFromContextCarriesClaims(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "mw-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: "google:1", Email: "r@example.com", Name: "Robin Park"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	gin.SetMode(gin.TestMode)
	var got Identity
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/profile", func(c *gin.Context) {
		got = IdentityFromContext(c)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	want := Identity{UserID: "google:1", Email: "r@example.com", Name: "Robin Park"}
	if got != want {
		t.Fatalf("identity = %+v, want %+v", got, want)
	}
}
