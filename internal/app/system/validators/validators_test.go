package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/validators"
	"github.com/dalemusser/donationhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "donors", "cases", "donations", "audit_events"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	validDonation := func() bson.M {
		return bson.M{
			"donor_id":    primitive.NewObjectID(),
			"case_id":     primitive.NewObjectID(),
			"amount":      25.0,
			"recorded_by": primitive.NewObjectID(),
			"date":        now,
		}
	}

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user valid", "users", bson.M{"username": "alice", "password_hash": "x", "role": "donor"}, false},
		{"user missing hash", "users", bson.M{"username": "alice", "role": "donor"}, true},
		{"user bad role", "users", bson.M{"username": "alice", "password_hash": "x", "role": "superadmin"}, true},
		{"user blank username", "users", bson.M{"username": "   ", "password_hash": "x", "role": "staff"}, true},
		{"donor valid", "donors", bson.M{"name": "Sara", "name_ci": "sara", "phone": "0501"}, false},
		{"donor missing phone", "donors", bson.M{"name": "Sara", "name_ci": "sara"}, true},
		{"case valid", "cases", bson.M{"case_name": "Relief", "case_name_ci": "relief", "required_amount": 1000.0, "received_amount": 0.0}, false},
		{"case negative required", "cases", bson.M{"case_name": "Relief", "case_name_ci": "relief", "required_amount": -1.0, "received_amount": 0.0}, true},
		{"donation valid", "donations", validDonation(), false},
		{"donation zero amount", "donations", func() bson.M { d := validDonation(); d["amount"] = 0.0; return d }(), true},
		{"donation string case id", "donations", func() bson.M { d := validDonation(); d["case_id"] = "abc"; return d }(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if tt.wantErr && err == nil {
				t.Fatalf("insert into %s succeeded, want validation error", tt.coll)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("insert into %s failed: %v", tt.coll, err)
			}
		})
	}
}
