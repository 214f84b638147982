package cases_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/donationhub/internal/app/features/cases"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/dalemusser/donationhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSecret = "cases-test-secret-at-least-32-bytes"

func newTestHandler(db *mongo.Database) *cases.Handler {
	return cases.NewHandler(db, ledger.New(db, zap.NewNop()), nil, zap.NewNop())
}

func newRouter(h *cases.Handler) http.Handler {
	return cases.Routes(h, auth.NewMiddleware(auth.NewTokens(testSecret, 0), zap.NewNop()))
}

func TestRoutes_AdminGate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newRouter(newTestHandler(db))
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name       string
		method     string
		target     string
		user       *auth.Identity
		wantStatus int
	}{
		{"list without token", http.MethodGet, "/", nil, http.StatusUnauthorized},
		{"list as donor", http.MethodGet, "/", testutil.DonorUser(), http.StatusOK},
		{"create without token", http.MethodPost, "/", nil, http.StatusUnauthorized},
		{"create as staff", http.MethodPost, "/", testutil.StaffUser(), http.StatusForbidden},
		{"create as donor", http.MethodPost, "/", testutil.DonorUser(), http.StatusForbidden},
		{"update as staff", http.MethodPut, "/" + id, testutil.StaffUser(), http.StatusForbidden},
		{"delete as donor", http.MethodDelete, "/" + id, testutil.DonorUser(), http.StatusForbidden},
		{"delete missing as admin", http.MethodDelete, "/" + id, testutil.AdminUser(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, tt.method, tt.target, map[string]any{"caseName": "Relief"})
			if tt.user != nil {
				req = testutil.WithUser(req, tt.user)
			}
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
			if tt.wantStatus == http.StatusForbidden {
				if got := rec.ErrorMessage(t); got != "Admin only" {
					t.Errorf("error = %q, want %q", got, "Admin only")
				}
			}
		})
	}
}

func TestHandleCreate_IgnoresReceivedAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/cases", map[string]any{
		"caseName":       "Relief",
		"needType":       "food",
		"requiredAmount": 1000,
		"receivedAmount": 5000,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	var c models.Case
	rec.DecodeJSON(t, &c)
	if c.CaseName != "Relief" || c.RequiredAmount != 1000 || c.ReceivedAmount != 0 {
		t.Errorf("created = %+v", c)
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	tests := []struct {
		name    string
		body    map[string]any
		wantErr string
	}{
		{"missing name", map[string]any{"requiredAmount": 10}, "Case name is required"},
		{"negative target", map[string]any{"caseName": "Relief", "requiredAmount": -1}, "Required amount must be a number ≥ 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/cases", tt.body), testutil.AdminUser())
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, req)
			rec.AssertStatus(t, http.StatusBadRequest)
			if got := rec.ErrorMessage(t); got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestHandleUpdate_LeavesReceivedAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Ali")
	c := fixtures.CreateCase(ctx, "Relief", 1000)
	if _, err := h.Ledger.Record(ctx, ledger.RecordInput{DonorID: donor.ID, CaseID: c.ID, Amount: 75}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	req := testutil.NewJSONRequest(t, http.MethodPut, "/api/cases/"+c.ID.Hex(), map[string]any{
		"description":    "Winter kits",
		"requiredAmount": 1200,
		"receivedAmount": 0,
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AdminUser()), "id", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var got models.Case
	rec.DecodeJSON(t, &got)
	if got.CaseName != "Relief" || got.Description != "Winter kits" || got.RequiredAmount != 1200 || got.ReceivedAmount != 75 {
		t.Errorf("updated = %+v", got)
	}
}

func TestHandleUpdate_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	id := primitive.NewObjectID().Hex()

	req := testutil.NewJSONRequest(t, http.MethodPut, "/api/cases/"+id, map[string]any{"caseName": "X"})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AdminUser()), "id", id)
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete_RemovesDonations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Ali")
	c := fixtures.CreateCase(ctx, "Relief", 1000)
	if _, err := h.Ledger.Record(ctx, ledger.RecordInput{DonorID: donor.ID, CaseID: c.ID, Amount: 75}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	req := testutil.WithUser(httptest.NewRequest(http.MethodDelete, "/api/cases/"+c.ID.Hex(), nil), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	n, _ := db.Collection("donations").CountDocuments(ctx, bson.M{"case_id": c.ID})
	if n != 0 {
		t.Errorf("donations left = %d", n)
	}
	n, _ = db.Collection("cases").CountDocuments(ctx, bson.M{"_id": c.ID})
	if n != 0 {
		t.Error("case still present")
	}
}
