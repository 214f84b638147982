// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/donationhub/internal/app/system/apperr"
	"github.com/dalemusser/donationhub/internal/app/system/reqid"
	"go.uber.org/zap"
)

// Writer turns handler errors into JSON error responses and logs the ones
// the caller cannot fix.
type Writer struct {
	Log *zap.Logger
}

// NewWriter constructs a Writer that logs to logger.
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Log: logger}
}

// Error maps err onto a status and writes {"error": msg}. Client errors
// carry their own message; anything else is logged and answered with
// fallback.
func (ew *Writer) Error(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		ew.Log.Error("request failed",
			reqid.Field(r.Context()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	Message(w, status, apperr.Message(err, fallback))
}

// BadRequest writes a 400 with msg.
func (ew *Writer) BadRequest(w http.ResponseWriter, msg string) {
	Message(w, http.StatusBadRequest, msg)
}

// Handler answers requests that match no route.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound writes a JSON 404.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	Message(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed writes a JSON 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Message(w, http.StatusMethodNotAllowed, "Method not allowed")
}
