package reqid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMiddleware_GeneratesID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a UUID: %v", seen, err)
	}
	if rec.Header().Get(Header) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(Header), seen)
	}
}

func TestMiddleware_ReusesInbound(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "gateway-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "gateway-42" {
		t.Errorf("id = %q, want gateway-42", seen)
	}
}

func TestMiddleware_ReplacesOversizedInbound(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(seen) > maxInboundLen {
		t.Errorf("oversized inbound id was kept (%d bytes)", len(seen))
	}
}
