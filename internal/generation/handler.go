package generation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/users"
)

// Handler exposes drafting and analysis endpoints.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generations", h.generate)
	rg.POST("/analyses", h.analyze)
}

func (h *Handler) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Invalid(c, "invalid request body")
		return
	}
	out, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), users.ContextProfile(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Invalid(c, "invalid request body")
		return
	}
	out, err := h.Svc.Analyze(c.Request.Context(), middleware.UserIDFromContext(c), users.ContextProfile(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Invalid(c, err.Error())
	case errors.Is(err, ErrQuotaExceeded):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "monthly generation limit reached", []respond.FieldIssue{
			{Field: "usage", Issue: "quota_exceeded"},
		})
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "text generation is not configured", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, "timeout", "text generation timed out", nil)
	case errors.Is(err, ErrBadOutput):
		respond.Error(c, http.StatusBadGateway, "llm_error", "the model returned an unusable answer", nil)
	default:
		respond.Error(c, http.StatusBadGateway, "llm_error", "text generation failed", nil)
	}
}
