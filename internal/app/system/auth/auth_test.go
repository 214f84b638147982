package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.uber.org/zap"
)

func newTestMiddleware() *Middleware {
	return NewMiddleware(NewTokens(testSecret, time.Hour), zap.NewNop())
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestRequireSignedIn(t *testing.T) {
	m := newTestMiddleware()
	valid, err := m.Tokens.Issue(testUser(models.RoleDonor))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"no header", "", http.StatusUnauthorized, "No token provided"},
		{"no scheme", valid, http.StatusUnauthorized, "Bad token format"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Bad token format"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			m.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				if got := errorBody(t, rec); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestRequireSignedIn_InjectsIdentity(t *testing.T) {
	m := newTestMiddleware()
	u := testUser(models.RoleStaff)
	raw, _ := m.Tokens.Issue(u)

	var got *Identity
	h := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != u.ID || got.Role != models.RoleStaff {
		t.Fatalf("identity = %+v, want %s staff", got, u.ID.Hex())
	}
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name       string
		identity   *Identity
		wantStatus int
		wantError  string
	}{
		{"anonymous", nil, http.StatusUnauthorized, "No token provided"},
		{"donor", &Identity{Role: models.RoleDonor}, http.StatusForbidden, "Admin only"},
		{"staff", &Identity{Role: models.RoleStaff}, http.StatusForbidden, "Admin only"},
		{"admin", &Identity{Role: models.RoleAdmin}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cases", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()

			RequireCapability(authz.CapAdmin)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				if got := errorBody(t, rec); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestLoadUser_Optional(t *testing.T) {
	m := newTestMiddleware()
	raw, _ := m.Tokens.Issue(testUser(models.RoleAdmin))

	tests := []struct {
		name     string
		header   string
		wantUser bool
	}{
		{"anonymous", "", false},
		{"invalid token", "Bearer nope", false},
		{"valid token", "Bearer " + raw, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var found bool
			h := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, found = CurrentUser(r)
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if found != tt.wantUser {
				t.Errorf("user found = %v, want %v", found, tt.wantUser)
			}
		})
	}
}
