package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAttachmentSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Attachment(c, "Acme_Letter_2024-03-05.pdf", "application/pdf", []byte("%PDF-1.4"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=Acme_Letter_2024-03-05.pdf` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/letters/x", nil)

	Error(c, http.StatusNotFound, "not_found", "letter not found", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	want := `{"error":{"code":"not_found","message":"letter not found"}}`
	if rec.Body.String() != want {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestInvalidListsIssues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/account/claim-guest", nil)

	Invalid(c, "invalid guest id", FieldIssue{Field: "X-Guest-Id", Issue: "invalid"})

	want := `{"error":{"code":"validation_error","message":"invalid guest id","details":[{"field":"X-Guest-Id","issue":"invalid"}]}}`
	if rec.Code != http.StatusBadRequest || rec.Body.String() != want {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if !c.IsAborted() {
		t.Fatal("expected context to be aborted")
	}
}
