package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser returns an admin identity with a fresh id.
func AdminUser() *auth.Identity {
	return &auth.Identity{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin}
}

// StaffUser returns a staff identity with a fresh id.
func StaffUser() *auth.Identity {
	return &auth.Identity{ID: primitive.NewObjectID(), Username: "staff", Role: models.RoleStaff}
}

// DonorUser returns a donor identity with a fresh id.
func DonorUser() *auth.Identity {
	return &auth.Identity{ID: primitive.NewObjectID(), Username: "donor", Role: models.RoleDonor}
}

// IdentityFor converts a stored user into the identity a token would carry.
func IdentityFor(u models.User) *auth.Identity {
	return &auth.Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// WithUser injects u into the request context, bypassing token verification.
func WithUser(r *http.Request, u *auth.Identity) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), u))
}

// NewJSONRequest builds a request whose body is body encoded as JSON.
// A string body is sent verbatim.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks that the response body contains expected.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body %q: %v", r.Body.String(), err)
	}
}

// ErrorMessage returns the "error" field of a JSON error body.
func (r *ResponseRecorder) ErrorMessage(t testing.TB) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	r.DecodeJSON(t, &body)
	return body.Error
}
