// Package auth verifies bearer tokens and carries the caller's identity
// through the request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Identity is the verified caller injected into r.Context().
type Identity struct {
	ID       primitive.ObjectID
	Username string
	Role     models.Role
}

// Can reports whether the identity holds capability c.
func (i *Identity) Can(c authz.Capability) bool {
	return i != nil && authz.Allows(i.Role, c)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the identity and a found flag.
func CurrentUser(r *http.Request) (*Identity, bool) {
	return FromContext(r.Context())
}

// FromContext is CurrentUser for code holding only a context.
func FromContext(ctx context.Context) (*Identity, bool) {
	u, ok := ctx.Value(currentUserKey).(*Identity)
	return u, ok && u != nil
}

// WithIdentity returns ctx carrying u.
func WithIdentity(ctx context.Context, u *Identity) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// Middleware turns Authorization headers into identities.
type Middleware struct {
	Tokens *Tokens
	Log    *zap.Logger
}

// NewMiddleware builds a Middleware around tokens.
func NewMiddleware(tokens *Tokens, logger *zap.Logger) *Middleware {
	return &Middleware{Tokens: tokens, Log: logger}
}

// LoadUser attaches the identity when a valid bearer token is present and
// otherwise lets the request through anonymously.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			if u, err := m.authenticate(r); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a valid bearer token with 401.
// An identity already present in the context is accepted as is.
func (m *Middleware) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := m.authenticate(r)
		if err != nil {
			msg := "Invalid token"
			switch {
			case errors.Is(err, ErrNoToken):
				msg = "No token provided"
			case errors.Is(err, ErrBadFormat):
				msg = "Bad token format"
			}
			if m.Log != nil {
				m.Log.Debug("bearer token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), u)))
	})
}

// RequireCapability answers 401 without an identity and 403 when the identity
// lacks c. It runs after RequireSignedIn.
func RequireCapability(c authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "No token provided")
				return
			}
			if !u.Can(c) {
				msg := "Forbidden"
				if c == authz.CapAdmin {
					msg = "Admin only"
				}
				writeError(w, http.StatusForbidden, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) authenticate(r *http.Request) (*Identity, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return nil, ErrNoToken
	}
	scheme, raw, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, ErrBadFormat
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, " ") {
		return nil, ErrBadFormat
	}
	return m.Tokens.Verify(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
