package errors_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	"github.com/dalemusser/donationhub/internal/app/system/apperr"
	"github.com/dalemusser/donationhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriter_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantLogged bool
	}{
		{"validation", apperr.Validation("Missing fields"), http.StatusBadRequest, "Missing fields", false},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("Case not found")), http.StatusNotFound, "Case not found", false},
		{"forbidden", apperr.Forbidden("Admin only"), http.StatusForbidden, "Admin only", false},
		{"conflict", apperr.Conflict("Username exists"), http.StatusBadRequest, "Username exists", false},
		{"storage", fmt.Errorf("insert: connection reset"), http.StatusInternalServerError, "Server error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			ew := apierrors.NewWriter(zap.New(core))

			req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
			rec := testutil.NewRecorder()
			ew.Error(rec, req, tt.err, "Server error")

			rec.AssertStatus(t, tt.wantStatus)
			if got := rec.ErrorMessage(t); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
			if logged := logs.Len() > 0; logged != tt.wantLogged {
				t.Errorf("logged = %v, want %v", logged, tt.wantLogged)
			}
			if strings.Contains(rec.Body.String(), "connection reset") {
				t.Error("storage detail leaked into response")
			}
		})
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := apierrors.NewHandler()
	rec := testutil.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	rec.AssertStatus(t, http.StatusNotFound)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	apierrors.OK(rec)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"ok":true}` {
		t.Errorf("body = %s", got)
	}
}
