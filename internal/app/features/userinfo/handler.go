// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	userstore "github.com/dalemusser/donationhub/internal/app/store/users"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in caller's profile.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Users  *userstore.Store
	ErrLog *apierrors.Writer
}

// NewHandler creates a new userinfo handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Users:  userstore.New(db),
		ErrLog: apierrors.NewWriter(logger),
	}
}

type userInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ServeUserInfo returns the caller's identity. The role comes from the
// stored account, so a role change shows here before the token expires.
//
// Response format:
//
//	{ "id": "...", "username": "...", "role": "...", "name": "...", "isAdmin": bool }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Message(w, http.StatusUnauthorized, "No token provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Server error")
		return
	}

	apierrors.JSON(w, http.StatusOK, userInfo{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Role:     string(u.Role),
		Name:     u.Name,
		IsAdmin:  authz.Allows(u.Role, authz.CapAdmin),
	})
}
