package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/authutil"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test documents directly, bypassing stores and the ledger.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose password is password.
func (f *Fixtures) CreateUser(ctx context.Context, username, password string, role models.Role) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Name:         "Test " + username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDonor inserts a donor with a placeholder phone number.
func (f *Fixtures) CreateDonor(ctx context.Context, name string) models.Donor {
	f.t.Helper()

	d := models.Donor{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Phone:     "0500000000",
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("donors").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donor: %v", err)
	}
	return d
}

// CreateCase inserts a case with a zero received amount.
func (f *Fixtures) CreateCase(ctx context.Context, name string, required float64) models.Case {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Case{
		ID:             primitive.NewObjectID(),
		CaseName:       name,
		CaseNameCI:     text.Fold(name),
		RequiredAmount: required,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("cases").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test case: %v", err)
	}
	return c
}

// CreateDonation inserts a raw donation without touching the case counter.
// Use the ledger when the running total must follow.
func (f *Fixtures) CreateDonation(ctx context.Context, donorID, caseID, recordedBy primitive.ObjectID, amount float64, date time.Time) models.Donation {
	f.t.Helper()

	d := models.Donation{
		ID:         primitive.NewObjectID(),
		DonorID:    donorID,
		CaseID:     caseID,
		Amount:     amount,
		RecordedBy: recordedBy,
		Date:       date.UTC(),
	}
	if _, err := f.db.Collection("donations").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donation: %v", err)
	}
	return d
}
