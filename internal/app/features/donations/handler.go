// internal/app/features/donations/handler.go
package donations

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	"github.com/dalemusser/donationhub/internal/app/system/auditlog"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Ledger   *ledger.Ledger
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.Writer
}

func NewHandler(db *mongo.Database, l *ledger.Ledger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Ledger:   l,
		AuditLog: audit,
		ErrLog:   apierrors.NewWriter(logger),
	}
}

type recordRequest struct {
	DonorID     string     `json:"donorId"`
	CaseID      string     `json:"caseId"`
	Amount      *float64   `json:"amount"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
}

type amendRequest struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
}

func donationID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ServeList returns every donation, most recent first, with donor and case
// names.
//
// GET /api/donations
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := ledger.Collect(h.Ledger.ListAll(ctx))
	if err != nil {
		h.ErrLog.Error(w, r, err, "Donations error")
		return
	}
	apierrors.JSON(w, http.StatusOK, list)
}

// ServeMine returns the donations the caller recorded.
//
// GET /api/donations/me
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Message(w, http.StatusUnauthorized, "No token provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := ledger.Collect(h.Ledger.ListByUser(ctx, user.ID))
	if err != nil {
		h.ErrLog.Error(w, r, err, "Donations (me) error")
		return
	}
	apierrors.JSON(w, http.StatusOK, list)
}

// HandleRecord records a donation and credits its case.
//
// POST /api/donations
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Message(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var req recordRequest
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}
	if req.DonorID == "" || req.CaseID == "" || req.Amount == nil {
		h.ErrLog.BadRequest(w, "Missing fields")
		return
	}
	donorID, err := primitive.ObjectIDFromHex(req.DonorID)
	if err != nil {
		h.ErrLog.BadRequest(w, "Invalid donor id")
		return
	}
	caseID, err := primitive.ObjectIDFromHex(req.CaseID)
	if err != nil {
		h.ErrLog.BadRequest(w, "Invalid case id")
		return
	}

	in := ledger.RecordInput{
		DonorID:     donorID,
		CaseID:      caseID,
		Amount:      *req.Amount,
		Description: req.Description,
		RecordedBy:  user.ID,
	}
	if req.Date != nil {
		in.Date = req.Date.UTC()
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Ledger.Record(ctx, in)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Add donation failed")
		return
	}
	apierrors.JSON(w, http.StatusCreated, d)
}

// HandleAmend changes the amount or description of a donation, moving its
// case by the difference.
//
// PUT /api/donations/{id}
func (h *Handler) HandleAmend(w http.ResponseWriter, r *http.Request) {
	id, ok := donationID(r)
	if !ok {
		h.ErrLog.BadRequest(w, "Invalid donation id")
		return
	}
	var req amendRequest
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Ledger.Amend(ctx, id, ledger.AmendInput{Amount: req.Amount, Description: req.Description})
	if err != nil {
		h.ErrLog.Error(w, r, err, "Update donation failed")
		return
	}
	apierrors.JSON(w, http.StatusOK, d)
}

// HandleRemove deletes a donation and debits its case.
//
// DELETE /api/donations/{id}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := donationID(r)
	if !ok {
		h.ErrLog.BadRequest(w, "Invalid donation id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Ledger.Remove(ctx, id)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Delete donation failed")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.AuditLog.DonationRemoved(ctx, r, actor.ID, d.ID, d.CaseID, d.Amount)
	}
	apierrors.OK(w)
}
