package account

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

// claimGuest needs a signed-in caller plus the guest id they used before
// logging in.
func (h *Handler) claimGuest(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	authedUserID := strings.TrimSpace(middleware.UserIDFromContext(c))
	if middleware.IsGuest(c) || authedUserID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	raw := c.GetHeader("X-Guest-Id")
	guestUserID, err := GuestUserID(raw)
	if err != nil {
		issue := "invalid"
		if strings.TrimSpace(raw) == "" {
			issue = "required"
		}
		respond.Invalid(c, "missing or invalid X-Guest-Id header", respond.FieldIssue{Field: "X-Guest-Id", Issue: issue})
		return
	}

	result, err := h.Svc.ClaimGuest(c.Request.Context(), guestUserID, authedUserID)
	if err != nil {
		telemetry.Error("account.claim_failed", map[string]any{
			"user_id":    authedUserID,
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "claim_failed", "failed to claim guest data", nil)
		return
	}
	respond.OK(c, result)
}
