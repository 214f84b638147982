package indexes_test

import (
	"testing"

	"github.com/dalemusser/donationhub/internal/app/system/indexes"
	"github.com/dalemusser/donationhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := map[string]bool{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		names[idx["name"].(string)] = true
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"users":        {"uniq_users_username", "idx_users_role_created"},
		"donors":       {"idx_donors_name_ci"},
		"cases":        {"idx_cases_name_ci"},
		"donations":    {"idx_donations_date", "idx_donations_case", "idx_donations_donor", "idx_donations_recorded_by_date"},
		"audit_events": {"idx_audit_timestamp", "idx_audit_category_type_timestamp"},
	}
	for coll, names := range want {
		got := indexNames(t, db, coll)
		for _, n := range names {
			if !got[n] {
				t.Errorf("%s: missing index %s (have %v)", coll, n, got)
			}
		}
	}
}

func TestEnsureAll_UniqueUsernameEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"username": "alice"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := users.InsertOne(ctx, bson.M{"username": "alice"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("second insert err = %v, want duplicate key", err)
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("donations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "case_id", Value: 1}},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "donations")
	if !got["idx_donations_case"] || got["case_id_1"] {
		t.Errorf("expected case_id index renamed, have %v", got)
	}
}
