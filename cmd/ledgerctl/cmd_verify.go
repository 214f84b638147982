package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dalemusser/donationhub/internal/app/store/queries/reportqueries"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ledgerctl verify
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare each case's received amount with the sum of its donations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *mongo.Database, _ *zap.Logger) error {
			drift, err := verify(cmd.Context(), db, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if len(drift) > 0 {
				return errDrift
			}
			return nil
		})
	},
}

func verify(ctx context.Context, db *mongo.Database, w io.Writer) ([]reportqueries.Drift, error) {
	drift, err := reportqueries.CaseDrift(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(drift) == 0 {
		fmt.Fprintln(w, "ok: every case matches its donations")
		return drift, nil
	}
	printDrift(w, drift)
	return drift, nil
}

func printDrift(w io.Writer, drift []reportqueries.Drift) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE ID\tNAME\tRECEIVED\tLEDGER\tDELTA")
	for _, d := range drift {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%+.2f\n", d.CaseID.Hex(), d.CaseName, d.Received, d.LedgerSum, d.Delta())
	}
	_ = tw.Flush()
}
