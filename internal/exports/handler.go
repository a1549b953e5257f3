package exports

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/coverletter/render"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/users"
)

// HeaderRenderPath reports which renderer produced a synchronous download.
const HeaderRenderPath = "X-Render-Path"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/letters/:id/pdf", h.download)
	rg.GET("/letters/:id/preview.png", h.preview)
	rg.POST("/letters/:id/exports", h.request)
	rg.GET("/exports/:id", h.get)
	rg.GET("/exports/:id/download", h.downloadSaved)
}

func (h *Handler) download(c *gin.Context) {
	letterID := c.Param("id")
	middleware.LogField(c, middleware.FieldLetterID, letterID)

	artifact, err := h.Svc.Download(WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c)), middleware.UserIDFromContext(c), letterID, users.ContextProfile(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(HeaderRenderPath, string(artifact.Path))
	middleware.LogField(c, middleware.FieldRenderPath, string(artifact.Path))
	respond.Attachment(c, artifact.FileName, artifact.MimeType, artifact.Data)
}

func (h *Handler) preview(c *gin.Context) {
	letterID := c.Param("id")
	middleware.LogField(c, middleware.FieldLetterID, letterID)

	png, err := h.Svc.Preview(c.Request.Context(), middleware.UserIDFromContext(c), letterID, users.ContextProfile(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Inline(c, "image/png", png)
}

func (h *Handler) request(c *gin.Context) {
	letterID := c.Param("id")
	middleware.LogField(c, middleware.FieldLetterID, letterID)

	exp, err := h.Svc.Request(c.Request.Context(), middleware.UserIDFromContext(c), letterID, middleware.RequestIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.LogField(c, middleware.FieldExportID, exp.ID)
	middleware.LogField(c, middleware.FieldTransition, "->"+string(exp.Status))
	status := http.StatusAccepted
	if exp.Terminal() {
		status = http.StatusCreated
	}
	respond.JSON(c, status, exp)
}

func (h *Handler) get(c *gin.Context) {
	exp, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.LogField(c, middleware.FieldExportID, exp.ID)
	middleware.LogField(c, middleware.FieldLetterID, exp.LetterID)
	respond.JSON(c, http.StatusOK, exp)
}

func (h *Handler) downloadSaved(c *gin.Context) {
	exp, rc, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	middleware.LogField(c, middleware.FieldExportID, exp.ID)
	middleware.LogField(c, middleware.FieldLetterID, exp.LetterID)

	data, err := io.ReadAll(rc)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read export", nil)
		return
	}
	c.Header(HeaderRenderPath, exp.RenderPath)
	respond.Attachment(c, exp.FileName, render.MimePDF, data)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, letters.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "letter not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "export not found", nil)
	case errors.Is(err, ErrNotReady):
		respond.Error(c, http.StatusConflict, "not_ready", "export is not ready", nil)
	case errors.Is(err, render.ErrExportFailed):
		respond.Error(c, http.StatusBadGateway, "export_failed", render.TitleFailed, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "export failed", nil)
	}
}
