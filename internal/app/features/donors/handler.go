// internal/app/features/donors/handler.go
package donors

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	donorstore "github.com/dalemusser/donationhub/internal/app/store/donors"
	"github.com/dalemusser/donationhub/internal/app/store/queries/reportqueries"
	"github.com/dalemusser/donationhub/internal/app/system/auditlog"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Donors   *donorstore.Store
	Ledger   *ledger.Ledger
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.Writer
}

func NewHandler(db *mongo.Database, l *ledger.Ledger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Donors:   donorstore.New(db),
		Ledger:   l,
		AuditLog: audit,
		ErrLog:   apierrors.NewWriter(logger),
	}
}

type donorRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ServeList returns every donor with the number of donations they made.
//
// GET /api/donors
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := reportqueries.DonationCountsByDonor(ctx, h.DB)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Donors error")
		return
	}
	apierrors.JSON(w, http.StatusOK, rows)
}

// HandleCreate adds a donor.
//
// POST /api/donors
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req donorRequest
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Donors.Create(ctx, models.Donor{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		h.ErrLog.Error(w, r, err, "Add donor failed")
		return
	}
	apierrors.JSON(w, http.StatusCreated, d)
}

// HandleDelete removes a donor with all of their donations, taking the
// amounts back off the affected cases.
//
// DELETE /api/donors/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.BadRequest(w, "Invalid donor id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Ledger.RemoveDonor(ctx, id)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Delete donor failed")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.AuditLog.DonorDeleted(ctx, r, actor.ID, id, res.Donor.Name, res.DonationsRemoved)
	}
	apierrors.OK(w)
}
