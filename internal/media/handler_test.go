package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/storage/object/local"
)

func TestFileHandlerServesStoredObject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := local.New(t.TempDir(), "http://localhost:8080")
	if _, err := store.Save(context.Background(), "documents/abc/file.pdf", "application/pdf", strings.NewReader("%PDF-1.4 body")); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := gin.New()
	NewFileHandler(store).RegisterRoutes(r.Group("/api/v1"))

	cases := []struct {
		path     string
		wantCode int
	}{
		{path: "/api/v1/files/documents/abc/file.pdf", wantCode: http.StatusOK},
		{path: "/api/v1/files/documents/abc/missing.pdf", wantCode: http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.wantCode {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.wantCode, w.Code)
		}
		if tc.wantCode == http.StatusOK {
			if got := w.Header().Get("Content-Type"); got != "application/pdf" {
				t.Fatalf("expected application/pdf, got %q", got)
			}
			if w.Body.String() != "%PDF-1.4 body" {
				t.Fatalf("unexpected body %q", w.Body.String())
			}
		}
	}
}
