// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	"github.com/dalemusser/donationhub/internal/app/store/queries/reportqueries"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *apierrors.Writer
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, ErrLog: apierrors.NewWriter(logger)}
}

// ServeDashboard returns donor and case counts and the donated total.
//
//	{ "donorsCount": 3, "casesCount": 2, "totalDonations": 450 }
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	s, err := reportqueries.DashboardSummary(ctx, h.DB)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Dashboard error")
		return
	}
	apierrors.JSON(w, http.StatusOK, s)
}
