package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dalemusser/donationhub/internal/app/store/audit"
	casestore "github.com/dalemusser/donationhub/internal/app/store/cases"
	"github.com/dalemusser/donationhub/internal/app/store/queries/reportqueries"
	"github.com/dalemusser/donationhub/internal/app/system/auditlog"
	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var dryRun bool

// ledgerctl reconcile
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reset drifted received amounts to the sum of their donations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *mongo.Database, logger *zap.Logger) error {
			_, err := reconcile(cmd.Context(), db, logger, cmd.OutOrStdout(), dryRun)
			return err
		})
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the corrections without applying them")
}

// reconcile applies Delta to every drifted case and returns how many were
// fixed. Corrections go through the ledger so they are counted and audited
// like any other counter change.
func reconcile(ctx context.Context, db *mongo.Database, logger *zap.Logger, w io.Writer, dry bool) (int, error) {
	drift, err := reportqueries.CaseDrift(ctx, db)
	if err != nil {
		return 0, err
	}
	if len(drift) == 0 {
		fmt.Fprintln(w, "nothing to reconcile")
		return 0, nil
	}
	printDrift(w, drift)
	if dry {
		fmt.Fprintf(w, "dry run: %d case(s) would be corrected\n", len(drift))
		return 0, nil
	}

	l := ledger.New(db, logger)
	al := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.Off, Admin: auditlog.All})

	fixed, skipped, err := applyDrift(ctx, l, al, w, drift)
	if err != nil {
		return fixed, err
	}
	fmt.Fprintf(w, "reconciled %d case(s)\n", fixed)
	if skipped > 0 {
		fmt.Fprintf(w, "skipped %d case(s) that changed concurrently, re-run verify\n", skipped)
	}
	return fixed, nil
}

// applyDrift corrects each case only if its counter still holds the value the
// drift was computed from. Cases written to in the meantime are skipped.
func applyDrift(ctx context.Context, l *ledger.Ledger, al *auditlog.Logger, w io.Writer, drift []reportqueries.Drift) (fixed, skipped int, err error) {
	for _, d := range drift {
		err := l.Reconcile(ctx, d.CaseID, d.Received, d.Delta())
		if errors.Is(err, casestore.ErrReceivedMoved) {
			fmt.Fprintf(w, "case %s changed concurrently, re-run verify\n", d.CaseID.Hex())
			skipped++
			continue
		}
		if err != nil {
			return fixed, skipped, fmt.Errorf("reconcile case %s: %w", d.CaseID.Hex(), err)
		}
		al.LedgerReconciled(ctx, d.CaseID, d.Delta())
		fixed++
	}
	return fixed, skipped, nil
}
