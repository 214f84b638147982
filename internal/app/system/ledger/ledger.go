// Package ledger records, amends and removes donations while keeping every
// case's received_amount equal to the sum of its donations. It is the only
// caller of casestore.AdjustReceived.
//
// Each mutation runs through txn.Run. On a server without transactions the
// ledger undoes completed steps in reverse order when a later step fails.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	casestore "github.com/dalemusser/donationhub/internal/app/store/cases"
	donationstore "github.com/dalemusser/donationhub/internal/app/store/donations"
	donorstore "github.com/dalemusser/donationhub/internal/app/store/donors"
	"github.com/dalemusser/donationhub/internal/app/system/apperr"
	"github.com/dalemusser/donationhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/donationhub/internal/app/system/metrics"
	"github.com/dalemusser/donationhub/internal/app/system/txn"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errBadAmount = apperr.Validation("Amount must be a number > 0")

// Ledger coordinates the donor, case and donation stores.
type Ledger struct {
	db        *mongo.Database
	log       *zap.Logger
	donors    *donorstore.Store
	cases     *casestore.Store
	donations *donationstore.Store

	runTxn func(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error
}

func New(db *mongo.Database, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		db:        db,
		log:       log,
		donors:    donorstore.New(db),
		cases:     casestore.New(db),
		donations: donationstore.New(db),
		runTxn:    txn.Run,
	}
}

// RecordInput describes a new donation. A zero Date means now.
type RecordInput struct {
	DonorID     primitive.ObjectID
	CaseID      primitive.ObjectID
	Amount      float64
	Description string
	RecordedBy  primitive.ObjectID
	Date        time.Time
}

// AmendInput carries the donation fields an edit may change. Nil fields are
// left alone.
type AmendInput struct {
	Amount      *float64
	Description *string
}

// CaseRemoval describes what RemoveCase deleted.
type CaseRemoval struct {
	Case             models.Case
	DonationsRemoved int64
}

// DonorRemoval describes what RemoveDonor deleted.
type DonorRemoval struct {
	Donor            models.Donor
	DonationsRemoved int64
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// run executes fn as one unit and counts the outcome under op.
func (l *Ledger) run(ctx context.Context, op string, fn func(ctx context.Context, u *undo) error) error {
	err := l.runTxn(ctx, l.db, l.log, func(ctx context.Context) error {
		u := &undo{}
		if err := fn(ctx, u); err != nil {
			if !txn.InTransaction(ctx) {
				u.run(ctx, l.log, op)
			}
			return err
		}
		return nil
	})
	metrics.LedgerOps.WithLabelValues(op, metrics.Outcome(err)).Inc()
	return err
}

// adjust moves a case counter by delta and registers the inverse move. A
// donation whose case no longer exists has no counter to keep in step, so a
// missing case is logged and skipped.
func (l *Ledger) adjust(ctx context.Context, u *undo, caseID primitive.ObjectID, delta float64) error {
	if delta == 0 {
		return nil
	}
	err := l.cases.AdjustReceived(ctx, caseID, delta)
	if errors.Is(err, apperr.ErrNotFound) {
		l.log.Warn("donation references a missing case",
			zap.String("case_id", caseID.Hex()),
			zap.Float64("delta", delta))
		return nil
	}
	if err != nil {
		return err
	}
	u.push("revert received amount", func(ctx context.Context) error {
		return l.cases.AdjustReceived(ctx, caseID, -delta)
	})
	return nil
}

// Record stores a donation and adds its amount to the case. Both the donor
// and the case must exist.
func (l *Ledger) Record(ctx context.Context, in RecordInput) (models.Donation, error) {
	if !validAmount(in.Amount) {
		return models.Donation{}, errBadAmount
	}
	d := models.Donation{
		DonorID:     in.DonorID,
		CaseID:      in.CaseID,
		Amount:      in.Amount,
		Description: htmlsanitize.PlainText(in.Description),
		RecordedBy:  in.RecordedBy,
		Date:        in.Date,
	}

	var out models.Donation
	err := l.run(ctx, "record", func(ctx context.Context, u *undo) error {
		if _, err := l.donors.GetByID(ctx, d.DonorID); err != nil {
			return err
		}
		// AdjustReceived reports a missing case before anything is written.
		if err := l.cases.AdjustReceived(ctx, d.CaseID, d.Amount); err != nil {
			return err
		}
		u.push("revert received amount", func(ctx context.Context) error {
			return l.cases.AdjustReceived(ctx, d.CaseID, -d.Amount)
		})

		saved, err := l.donations.Insert(ctx, d)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return models.Donation{}, err
	}
	return out, nil
}

// Amend edits a donation. When the amount changes the case moves by the
// difference, computed from the document as it was just before the write.
func (l *Ledger) Amend(ctx context.Context, id primitive.ObjectID, in AmendInput) (models.Donation, error) {
	if in.Amount != nil && !validAmount(*in.Amount) {
		return models.Donation{}, errBadAmount
	}
	upd := donationstore.Update{Amount: in.Amount}
	if in.Description != nil {
		desc := htmlsanitize.PlainText(*in.Description)
		upd.Description = &desc
	}

	var out models.Donation
	err := l.run(ctx, "amend", func(ctx context.Context, u *undo) error {
		prior, err := l.donations.UpdateReturningPrior(ctx, id, upd)
		if err != nil {
			return err
		}
		u.push("restore donation fields", func(ctx context.Context) error {
			_, err := l.donations.UpdateReturningPrior(ctx, id, donationstore.Update{
				Amount:      &prior.Amount,
				Description: &prior.Description,
			})
			return err
		})

		out = prior
		if upd.Amount != nil {
			out.Amount = *upd.Amount
		}
		if upd.Description != nil {
			out.Description = *upd.Description
		}
		return l.adjust(ctx, u, prior.CaseID, out.Amount-prior.Amount)
	})
	if err != nil {
		return models.Donation{}, err
	}
	return out, nil
}

// Remove deletes a donation and takes its amount back off the case.
func (l *Ledger) Remove(ctx context.Context, id primitive.ObjectID) (models.Donation, error) {
	var removed models.Donation
	err := l.run(ctx, "remove", func(ctx context.Context, u *undo) error {
		d, err := l.donations.DeleteReturning(ctx, id)
		if err != nil {
			return err
		}
		u.push("restore donation", func(ctx context.Context) error {
			return l.donations.Restore(ctx, d)
		})
		removed = d
		return l.adjust(ctx, u, d.CaseID, -d.Amount)
	})
	if err != nil {
		return models.Donation{}, err
	}
	return removed, nil
}

// RemoveCase deletes a case together with all of its donations.
func (l *Ledger) RemoveCase(ctx context.Context, id primitive.ObjectID) (CaseRemoval, error) {
	var res CaseRemoval
	err := l.run(ctx, "remove_case", func(ctx context.Context, u *undo) error {
		c, err := l.cases.DeleteReturning(ctx, id)
		if err != nil {
			return err
		}
		u.push("restore case", func(ctx context.Context) error {
			return l.cases.Restore(ctx, c)
		})

		removed, err := l.donations.FindByCase(ctx, id)
		if err != nil {
			return err
		}
		if err := l.removeDonations(ctx, u, removed); err != nil {
			return err
		}
		res = CaseRemoval{Case: c, DonationsRemoved: int64(len(removed))}
		return nil
	})
	if err != nil {
		return CaseRemoval{}, err
	}
	return res, nil
}

// RemoveDonor deletes a donor together with all of their donations, and
// takes each removed donation's amount off its case.
func (l *Ledger) RemoveDonor(ctx context.Context, id primitive.ObjectID) (DonorRemoval, error) {
	var res DonorRemoval
	err := l.run(ctx, "remove_donor", func(ctx context.Context, u *undo) error {
		d, err := l.donors.DeleteReturning(ctx, id)
		if err != nil {
			return err
		}
		u.push("restore donor", func(ctx context.Context) error {
			return l.donors.Restore(ctx, d)
		})

		removed, err := l.donations.FindByDonor(ctx, id)
		if err != nil {
			return err
		}
		if err := l.removeDonations(ctx, u, removed); err != nil {
			return err
		}

		sums := map[primitive.ObjectID]float64{}
		for _, r := range removed {
			sums[r.CaseID] += r.Amount
		}
		caseIDs := make([]primitive.ObjectID, 0, len(sums))
		for cid := range sums {
			caseIDs = append(caseIDs, cid)
		}
		slices.SortFunc(caseIDs, func(a, b primitive.ObjectID) int {
			return bytes.Compare(a[:], b[:])
		})
		for _, cid := range caseIDs {
			if err := l.adjust(ctx, u, cid, -sums[cid]); err != nil {
				return err
			}
		}

		res = DonorRemoval{Donor: d, DonationsRemoved: int64(len(removed))}
		return nil
	})
	if err != nil {
		return DonorRemoval{}, err
	}
	return res, nil
}

// removeDonations deletes ds and registers their re-insertion.
func (l *Ledger) removeDonations(ctx context.Context, u *undo, ds []models.Donation) error {
	if len(ds) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	if _, err := l.donations.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	u.push("restore donations", func(ctx context.Context) error {
		return l.donations.Restore(ctx, ds...)
	})
	return nil
}

// Reconcile moves a case counter by delta outside of any donation write. It
// exists for repairing drift found by ledgerctl. observed is the counter value
// the drift was computed from; if the counter has moved since, nothing is
// applied and casestore.ErrReceivedMoved is returned.
func (l *Ledger) Reconcile(ctx context.Context, caseID primitive.ObjectID, observed, delta float64) error {
	return l.run(ctx, "reconcile", func(ctx context.Context, _ *undo) error {
		return l.cases.AdjustReceivedIf(ctx, caseID, observed, delta)
	})
}

// ListAll yields every donation, most recent first, with donor and case
// names. Each range over the result runs a fresh query.
func (l *Ledger) ListAll(ctx context.Context) iter.Seq2[models.DonationView, error] {
	return l.views(ctx, bson.M{})
}

// ListByUser yields the donations recorded by userID, most recent first.
func (l *Ledger) ListByUser(ctx context.Context, userID primitive.ObjectID) iter.Seq2[models.DonationView, error] {
	return l.views(ctx, bson.M{"recorded_by": userID})
}

func (l *Ledger) views(ctx context.Context, filter bson.M) iter.Seq2[models.DonationView, error] {
	return func(yield func(models.DonationView, error) bool) {
		cur, err := l.donations.ViewCursor(ctx, filter)
		if err != nil {
			yield(models.DonationView{}, err)
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var v models.DonationView
			if err := cur.Decode(&v); err != nil {
				yield(models.DonationView{}, fmt.Errorf("decode donation view: %w", err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(models.DonationView{}, fmt.Errorf("iterate donation views: %w", err))
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.DonationView, error]) ([]models.DonationView, error) {
	out := []models.DonationView{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
