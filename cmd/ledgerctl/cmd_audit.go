package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/donationhub/internal/app/store/audit"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	auditLimit    int64
	auditCategory string
)

// ledgerctl audit
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *mongo.Database, _ *zap.Logger) error {
			return listAudit(cmd.Context(), db, cmd.OutOrStdout(), auditCategory, auditLimit)
		})
	},
}

func init() {
	auditCmd.Flags().Int64VarP(&auditLimit, "limit", "n", 20, "number of events to show")
	auditCmd.Flags().StringVar(&auditCategory, "category", "", "only show events in this category (auth or admin)")
}

func listAudit(ctx context.Context, db *mongo.Database, w io.Writer, category string, limit int64) error {
	events, err := audit.New(db).Query(ctx, audit.QueryFilter{Category: category, Limit: limit})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCATEGORY\tEVENT\tOK\tDETAILS")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.Category, e.EventType, e.Success, formatDetails(e.Details))
	}
	return tw.Flush()
}

func formatDetails(d map[string]string) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+d[k])
	}
	return strings.Join(parts, " ")
}
