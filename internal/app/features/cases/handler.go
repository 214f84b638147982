// internal/app/features/cases/handler.go
package cases

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/donationhub/internal/app/features/errors"
	casestore "github.com/dalemusser/donationhub/internal/app/store/cases"
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
	Cases    *casestore.Store
	Ledger   *ledger.Ledger
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.Writer
}

func NewHandler(db *mongo.Database, l *ledger.Ledger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Cases:    casestore.New(db),
		Ledger:   l,
		AuditLog: audit,
		ErrLog:   apierrors.NewWriter(logger),
	}
}

// caseRequest is the body of create and update. receivedAmount is not read;
// only donations move it.
type caseRequest struct {
	CaseName       *string  `json:"caseName"`
	Description    *string  `json:"description"`
	NeedType       *string  `json:"needType"`
	RequiredAmount *float64 `json:"requiredAmount"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func caseID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ServeList returns every case.
//
// GET /api/cases
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Cases.List(ctx)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Cases error")
		return
	}
	apierrors.JSON(w, http.StatusOK, list)
}

// HandleCreate adds a case with a zero received amount.
//
// POST /api/cases (admin)
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Cases.Create(ctx, models.Case{
		CaseName:       deref(req.CaseName),
		Description:    deref(req.Description),
		NeedType:       deref(req.NeedType),
		RequiredAmount: deref(req.RequiredAmount),
	})
	if err != nil {
		h.ErrLog.Error(w, r, err, "Add case failed")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.AuditLog.CaseCreated(ctx, r, actor.ID, c.ID, c.CaseName)
	}
	apierrors.JSON(w, http.StatusCreated, c)
}

// HandleUpdate edits the descriptive fields and target of a case.
//
// PUT /api/cases/{id} (admin)
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(r)
	if !ok {
		h.ErrLog.BadRequest(w, "Invalid case id")
		return
	}
	var req caseRequest
	if err := apierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Cases.Update(ctx, id, casestore.CaseUpdate{
		CaseName:       req.CaseName,
		Description:    req.Description,
		NeedType:       req.NeedType,
		RequiredAmount: req.RequiredAmount,
	})
	if err != nil {
		h.ErrLog.Error(w, r, err, "Update case failed")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.AuditLog.CaseUpdated(ctx, r, actor.ID, c.ID, changedFields(req))
	}
	apierrors.JSON(w, http.StatusOK, c)
}

func changedFields(req caseRequest) string {
	var fields []string
	if req.CaseName != nil {
		fields = append(fields, "caseName")
	}
	if req.Description != nil {
		fields = append(fields, "description")
	}
	if req.NeedType != nil {
		fields = append(fields, "needType")
	}
	if req.RequiredAmount != nil {
		fields = append(fields, "requiredAmount")
	}
	return strings.Join(fields, ",")
}

// HandleDelete removes a case and every donation made to it.
//
// DELETE /api/cases/{id} (admin)
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(r)
	if !ok {
		h.ErrLog.BadRequest(w, "Invalid case id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Ledger.RemoveCase(ctx, id)
	if err != nil {
		h.ErrLog.Error(w, r, err, "Delete case failed")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.AuditLog.CaseDeleted(ctx, r, actor.ID, id, res.Case.CaseName, res.DonationsRemoved)
	}
	apierrors.OK(w)
}
