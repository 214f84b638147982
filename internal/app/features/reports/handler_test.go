package reports_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/donationhub/internal/app/features/reports"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/dalemusser/donationhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type caseTotal struct {
	CaseID         string  `json:"caseId"`
	CaseName       string  `json:"caseName"`
	TotalAmount    float64 `json:"totalAmount"`
	RequiredAmount float64 `json:"requiredAmount"`
}

type reportBody struct {
	DonorsCount    int64       `json:"donorsCount"`
	CasesCount     int64       `json:"casesCount"`
	TotalDonations float64     `json:"totalDonations"`
	CaseTotals     []caseTotal `json:"caseTotals"`
}

func TestServeReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Ali")
	relief := fixtures.CreateCase(ctx, "Relief", 1000)
	fixtures.CreateCase(ctx, "Empty", 50)
	l := ledger.New(db, zap.NewNop())
	if _, err := l.Record(ctx, ledger.RecordInput{DonorID: donor.ID, CaseID: relief.ID, Amount: 120}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	fixtures.CreateDonation(ctx, donor.ID, primitive.NewObjectID(), primitive.NilObjectID, 30, time.Now())

	h := reports.NewHandler(db, zap.NewNop())
	rec := testutil.NewRecorder()
	h.ServeReport(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/reports", nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	var body reportBody
	rec.DecodeJSON(t, &body)
	if body.DonorsCount != 1 || body.CasesCount != 2 || body.TotalDonations != 150 {
		t.Errorf("summary = %+v", body)
	}
	if len(body.CaseTotals) != 2 {
		t.Fatalf("caseTotals = %+v, want 2 rows", body.CaseTotals)
	}
	if got := body.CaseTotals[0]; got.CaseName != "Relief" || got.TotalAmount != 120 || got.RequiredAmount != 1000 {
		t.Errorf("caseTotals[0] = %+v", got)
	}
	if got := body.CaseTotals[1]; got.CaseName != "Unknown" || got.TotalAmount != 30 || got.RequiredAmount != 0 {
		t.Errorf("caseTotals[1] = %+v", got)
	}
}

func TestRoutes_AdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mw := auth.NewMiddleware(auth.NewTokens("reports-test-secret-32-bytes-long!", 0), zap.NewNop())
	router := reports.Routes(reports.NewHandler(db, zap.NewNop()), mw)

	tests := []struct {
		name       string
		user       *auth.Identity
		wantStatus int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"donor", testutil.DonorUser(), http.StatusForbidden},
		{"staff", testutil.StaffUser(), http.StatusForbidden},
		{"admin", testutil.AdminUser(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = testutil.WithUser(req, tt.user)
			}
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
		})
	}

	// An empty database still reports an empty list, not null.
	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/", nil), testutil.AdminUser())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertContains(t, `"caseTotals":[]`)
}
