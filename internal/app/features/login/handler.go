// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	userstore "github.com/dalemusser/donationhub/internal/app/store/users"
	"github.com/dalemusser/donationhub/internal/app/system/apperr"
	"github.com/dalemusser/donationhub/internal/app/system/auditlog"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/authutil"
	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/dalemusser/donationhub/internal/app/system/metrics"
	"github.com/dalemusser/donationhub/internal/app/system/ratelimit"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves account registration and sign-in.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Users    *userstore.Store
	Tokens   *auth.Tokens
	Limiter  *ratelimit.LoginLimiter
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.Writer
}

func NewHandler(db *mongo.Database, tokens *auth.Tokens, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Users:    userstore.New(db),
		Tokens:   tokens,
		Limiter:  limiter,
		AuditLog: audit,
		ErrLog:   apierrors.NewWriter(logger),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string      `json:"token"`
	Role     models.Role `json:"role"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
}

// HandleRegister creates an account. Anonymous callers always get the donor
// role; admin and staff accounts can only be created with an admin token.
//
// POST /api/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		h.ErrLog.BadRequest(w, "Missing fields")
		return
	}

	role := models.RoleDonor
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			h.ErrLog.BadRequest(w, "Invalid role")
			return
		}
		role = parsed
	}

	actor, signedIn := auth.CurrentUser(r)
	if role.Privileged() && (!signedIn || !actor.Can(authz.CapAssignRoles)) {
		apierrors.Message(w, http.StatusForbidden, "Admin only")
		return
	}

	if err := authutil.ValidatePassword(req.Password); err != nil {
		h.ErrLog.BadRequest(w, err.Error())
		return
	}
	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Register failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
		Name:         req.Name,
	})
	if err != nil {
		h.ErrLog.Error(w, r, err, "Register failed")
		return
	}

	var actorID *primitive.ObjectID
	if signedIn {
		actorID = &actor.ID
	}
	h.AuditLog.UserRegistered(ctx, r, actorID, u.ID, u.Username, u.Role.String())

	apierrors.JSON(w, http.StatusCreated, map[string]any{
		"message": "User created",
		"userId":  u.ID,
	})
}

// HandleLogin checks credentials and issues a bearer token. Unknown users and
// wrong passwords get the same answer.
//
// POST /api/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		h.ErrLog.BadRequest(w, "Missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Username); !ok {
			metrics.LoginAttempts.WithLabelValues("throttled").Inc()
			h.AuditLog.LoginFailedRateLimit(ctx, r, req.Username, reason)
			apierrors.Message(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	u, err := h.Users.GetByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Username)
		h.ErrLog.BadRequest(w, "Invalid credentials")
		return
	case err != nil:
		h.ErrLog.Error(w, r, err, "Login failed")
		return
	}

	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Username)
		h.ErrLog.BadRequest(w, "Invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(u)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Login failed")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetUser(req.Username)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Username)

	apierrors.JSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Role:     u.Role,
		Username: u.Username,
		Name:     u.Name,
	})
}
