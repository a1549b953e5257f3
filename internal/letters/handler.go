package letters

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/users"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires letter routes to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches letter routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/letters", h.create)
	rg.POST("/letters/import", h.importFile)
	rg.GET("/letters", h.list)
	rg.GET("/letters/:id", h.get)
	rg.PUT("/letters/:id", h.update)
	rg.DELETE("/letters/:id", h.delete)
	rg.POST("/letters/:id/duplicate", h.duplicate)
}

func (h *Handler) create(c *gin.Context) {
	var req Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Invalid(c, "invalid request body")
		return
	}
	letter, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), users.ContextProfile(c), req)
	if err != nil {
		writeError(c, err, "failed to create letter")
		return
	}
	respond.JSON(c, http.StatusCreated, letter)
}

func (h *Handler) importFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Invalid(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Invalid(c, "unable to read file")
		return
	}
	defer file.Close()

	letter, err := h.Svc.Import(c.Request.Context(), middleware.UserIDFromContext(c), users.ContextProfile(c), ImportInput{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Body:     file,
	})
	if err != nil {
		writeError(c, err, "failed to import letter")
		return
	}
	respond.JSON(c, http.StatusCreated, letter)
}

func (h *Handler) list(c *gin.Context) {
	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list letters")
		return
	}
	resp := make([]gin.H, 0, len(items))
	for _, letter := range items {
		resp = append(resp, gin.H{
			"id":          letter.ID,
			"name":        letter.Name,
			"jobTitle":    letter.JobTitle,
			"companyName": letter.CompanyName,
			"createdAt":   letter.CreatedAt,
			"updatedAt":   letter.UpdatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	letter, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), letterIDParam(c))
	if err != nil {
		writeError(c, err, "failed to fetch letter")
		return
	}
	respond.JSON(c, http.StatusOK, letter)
}

func (h *Handler) update(c *gin.Context) {
	var req Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Invalid(c, "invalid request body")
		return
	}
	letter, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), letterIDParam(c), users.ContextProfile(c), req)
	if err != nil {
		writeError(c, err, "failed to update letter")
		return
	}
	respond.JSON(c, http.StatusOK, letter)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), letterIDParam(c)); err != nil {
		writeError(c, err, "failed to delete letter")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) duplicate(c *gin.Context) {
	letter, err := h.Svc.Duplicate(c.Request.Context(), middleware.UserIDFromContext(c), letterIDParam(c))
	if err != nil {
		writeError(c, err, "failed to duplicate letter")
		return
	}
	respond.JSON(c, http.StatusCreated, letter)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "letter not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Invalid(c, err.Error())
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func letterIDParam(c *gin.Context) string {
	id := c.Param("id")
	middleware.LogField(c, middleware.FieldLetterID, id)
	return id
}
