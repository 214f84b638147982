// Package reportqueries provides read-only aggregate queries over donations,
// cases and donors for the dashboard, reports and ledger maintenance.
//
// Totals are always computed from the donations collection. Case counters are
// only read here to compare them against those totals.
package reportqueries

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dalemusser/donationhub/internal/app/system/txn"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UnknownCase names a case total whose case no longer exists.
const UnknownCase = "Unknown"

// driftEpsilon absorbs float rounding when comparing a counter to a sum.
const driftEpsilon = 1e-6

// Summary is the dashboard headline.
type Summary struct {
	DonorCount   int64   `json:"donorsCount"`
	CaseCount    int64   `json:"casesCount"`
	TotalDonated float64 `json:"totalDonations"`
}

// CaseTotal is the donated total for one case.
type CaseTotal struct {
	CaseID         primitive.ObjectID `json:"caseId"`
	CaseName       string             `json:"caseName"`
	TotalAmount    float64            `json:"totalAmount"`
	RequiredAmount float64            `json:"requiredAmount"`
}

// DonorRow is a donor with the number of donations they have made.
type DonorRow struct {
	models.Donor
	DonationsCount int64 `json:"donationsCount"`
}

// Drift is a case whose received counter disagrees with its donations.
type Drift struct {
	CaseID    primitive.ObjectID `json:"caseId"`
	CaseName  string             `json:"caseName"`
	Received  float64            `json:"receivedAmount"`
	LedgerSum float64            `json:"ledgerSum"`
}

// Delta is the adjustment that brings Received back to LedgerSum.
func (d Drift) Delta() float64 {
	return d.LedgerSum - d.Received
}

type groupRow struct {
	ID    primitive.ObjectID `bson:"_id"`
	Total float64            `bson:"total"`
	Count int64              `bson:"count"`
}

// groupDonations sums and counts donations grouped by field.
func groupDonations(ctx context.Context, db *mongo.Database, field string) ([]groupRow, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   "$" + field,
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}},
	}
	cur, err := db.Collection("donations").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("group donations by %s: %w", field, err)
	}
	defer cur.Close(ctx)

	var rows []groupRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode donation groups: %w", err)
	}
	return rows, nil
}

// sumField returns the sum of field across coll.
func sumField(ctx context.Context, db *mongo.Database, coll, field string) (float64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$" + field}}},
	}
	cur, err := db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("sum %s.%s: %w", coll, field, err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return 0, cur.Err()
	}
	var row struct {
		Total float64 `bson:"total"`
	}
	if err := cur.Decode(&row); err != nil {
		return 0, fmt.Errorf("decode sum: %w", err)
	}
	return row.Total, nil
}

// DashboardSummary counts donors and cases and totals every donation.
func DashboardSummary(ctx context.Context, db *mongo.Database) (Summary, error) {
	var s Summary
	var err error

	if s.DonorCount, err = db.Collection("donors").CountDocuments(ctx, bson.M{}); err != nil {
		return Summary{}, fmt.Errorf("count donors: %w", err)
	}
	if s.CaseCount, err = db.Collection("cases").CountDocuments(ctx, bson.M{}); err != nil {
		return Summary{}, fmt.Errorf("count cases: %w", err)
	}
	if s.TotalDonated, err = sumField(ctx, db, "donations", "amount"); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// ReceivedSum totals the received counters of every case.
func ReceivedSum(ctx context.Context, db *mongo.Database) (float64, error) {
	return sumField(ctx, db, "cases", "received_amount")
}

func loadCases(ctx context.Context, db *mongo.Database, filter bson.M) (map[primitive.ObjectID]models.Case, error) {
	cur, err := db.Collection("cases").Find(ctx, filter, options.Find().SetProjection(bson.M{
		"case_name":       1,
		"required_amount": 1,
		"received_amount": 1,
	}))
	if err != nil {
		return nil, fmt.Errorf("find cases: %w", err)
	}
	defer cur.Close(ctx)

	var cases []models.Case
	if err := cur.All(ctx, &cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	out := make(map[primitive.ObjectID]models.Case, len(cases))
	for _, c := range cases {
		out[c.ID] = c
	}
	return out, nil
}

// ReportByCase returns donated totals per case, largest first. Cases with no
// donations are omitted. Totals for deleted cases carry UnknownCase and a zero
// required amount.
func ReportByCase(ctx context.Context, db *mongo.Database) ([]CaseTotal, error) {
	groups, err := groupDonations(ctx, db, "case_id")
	if err != nil {
		return nil, err
	}
	out := []CaseTotal{}
	if len(groups) == 0 {
		return out, nil
	}

	ids := make([]primitive.ObjectID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	cases, err := loadCases(ctx, db, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	for _, g := range groups {
		ct := CaseTotal{CaseID: g.ID, CaseName: UnknownCase, TotalAmount: g.Total}
		if c, ok := cases[g.ID]; ok {
			ct.CaseName = c.CaseName
			ct.RequiredAmount = c.RequiredAmount
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return bytes.Compare(out[i].CaseID[:], out[j].CaseID[:]) < 0
	})
	return out, nil
}

// DonationCountsByDonor returns every donor, ordered by name, with their
// donation count. Donors who never gave have a count of zero.
func DonationCountsByDonor(ctx context.Context, db *mongo.Database) ([]DonorRow, error) {
	groups, err := groupDonations(ctx, db, "donor_id")
	if err != nil {
		return nil, err
	}
	counts := make(map[primitive.ObjectID]int64, len(groups))
	for _, g := range groups {
		counts[g.ID] = g.Count
	}

	cur, err := db.Collection("donors").Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "name_ci", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, fmt.Errorf("find donors: %w", err)
	}
	defer cur.Close(ctx)

	var donors []models.Donor
	if err := cur.All(ctx, &donors); err != nil {
		return nil, fmt.Errorf("decode donors: %w", err)
	}
	out := make([]DonorRow, len(donors))
	for i, d := range donors {
		out[i] = DonorRow{Donor: d, DonationsCount: counts[d.ID]}
	}
	return out, nil
}

// CaseDrift returns the cases whose received counter differs from the sum of
// their donations, ordered by case name.
//
// Both collections are read from one snapshot where the server allows it.
// Otherwise cases are read before donations, so a recording that lands
// between the two reads shows up as a counter that has since moved.
func CaseDrift(ctx context.Context, db *mongo.Database) ([]Drift, error) {
	var (
		cases map[primitive.ObjectID]models.Case
		sums  map[primitive.ObjectID]float64
	)
	err := txn.Snapshot(ctx, db, nil, func(ctx context.Context) error {
		var err error
		if cases, err = loadCases(ctx, db, bson.M{}); err != nil {
			return err
		}
		groups, err := groupDonations(ctx, db, "case_id")
		if err != nil {
			return err
		}
		sums = make(map[primitive.ObjectID]float64, len(groups))
		for _, g := range groups {
			sums[g.ID] = g.Total
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := []Drift{}
	for id, c := range cases {
		if math.Abs(c.ReceivedAmount-sums[id]) <= driftEpsilon {
			continue
		}
		out = append(out, Drift{
			CaseID:    id,
			CaseName:  c.CaseName,
			Received:  c.ReceivedAmount,
			LedgerSum: sums[id],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CaseName != out[j].CaseName {
			return out[i].CaseName < out[j].CaseName
		}
		return bytes.Compare(out[i].CaseID[:], out[j].CaseID[:]) < 0
	})
	return out, nil
}
