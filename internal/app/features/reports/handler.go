// internal/app/features/reports/handler.go
package reports

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

// reportResponse extends the dashboard summary with per-case totals.
type reportResponse struct {
	reportqueries.Summary
	CaseTotals []reportqueries.CaseTotal `json:"caseTotals"`
}

// ServeReport returns the dashboard summary plus donated totals per case.
//
// GET /api/reports (admin)
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	summary, err := reportqueries.DashboardSummary(ctx, h.DB)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Reports error")
		return
	}
	totals, err := reportqueries.ReportByCase(ctx, h.DB)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Reports error")
		return
	}

	apierrors.JSON(w, http.StatusOK, reportResponse{Summary: summary, CaseTotals: totals})
}
