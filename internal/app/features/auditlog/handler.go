// internal/app/features/auditlog/handler.go
package auditlog

import (
	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	"github.com/dalemusser/donationhub/internal/app/store/audit"
	userstore "github.com/dalemusser/donationhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Events *audit.Store
	Users  *userstore.Store
	ErrLog *apierrors.Writer
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Events: audit.New(db),
		Users:  userstore.New(db),
		ErrLog: apierrors.NewWriter(logger),
	}
}
