// Package reqid assigns every request an id, echoes it in X-Request-ID, and
// makes it available to error logging.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header is the propagation header.
const Header = "X-Request-ID"

const maxInboundLen = 128

type ctxKey struct{}

// Middleware reuses a client-supplied id when it is reasonably short and
// otherwise generates a UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > maxInboundLen {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
	})
}

// WithValue stores id in ctx.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the request id, or "" when none was assigned.
func FromCtx(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Field is a zap field carrying the request id from ctx.
func Field(ctx context.Context) zap.Field {
	return zap.String("request_id", FromCtx(ctx))
}
