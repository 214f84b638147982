package workers

import (
	"testing"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/dalemusser/donationhub/internal/app/system/metrics"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/dalemusser/donationhub/internal/testutil"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDriftMonitor_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Ali")
	balanced := fixtures.CreateCase(ctx, "Balanced", 100)
	drifting := fixtures.CreateCase(ctx, "Drifting", 100)
	clerk := fixtures.CreateUser(ctx, "clerk", "clerkpass", models.RoleStaff)

	l := ledger.New(db, zap.NewNop())
	if _, err := l.Record(ctx, ledger.RecordInput{DonorID: donor.ID, CaseID: balanced.ID, Amount: 30, RecordedBy: clerk.ID}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	fixtures.CreateDonation(ctx, donor.ID, drifting.ID, clerk.ID, 25, time.Now())

	core, logs := observer.New(zap.WarnLevel)
	w := NewDriftMonitor(db, zap.New(core), time.Hour)

	const warning = "case received amount differs from its donations"

	drift, err := w.Check(ctx)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("first sighting reported as drift: %+v", drift)
	}
	if n := logs.FilterMessage(warning).Len(); n != 0 {
		t.Errorf("expected no warning after one check, got %d", n)
	}

	drift, err = w.Check(ctx)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(drift) != 1 || drift[0].CaseID != drifting.ID {
		t.Fatalf("expected drift on Drifting only, got %+v", drift)
	}
	if n := logs.FilterMessage(warning).Len(); n != 1 {
		t.Errorf("expected 1 drift warning, got %d", n)
	}
	if g := promtestutil.ToFloat64(metrics.LedgerDriftCases); g != 1 {
		t.Errorf("drift gauge = %v, want 1", g)
	}

	// A counter that moved between checks is not confirmed yet.
	if _, err := db.Collection("cases").UpdateByID(ctx, drifting.ID, bson.M{"$inc": bson.M{"received_amount": 5.0}}); err != nil {
		t.Fatalf("move counter: %v", err)
	}
	drift, err = w.Check(ctx)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(drift) != 0 {
		t.Errorf("changed drift reported without a second sighting: %+v", drift)
	}

	if _, err := db.Collection("cases").UpdateByID(ctx, drifting.ID, bson.M{"$set": bson.M{"received_amount": 25.0}}); err != nil {
		t.Fatalf("repair: %v", err)
	}
	for i := 0; i < 2; i++ {
		drift, err = w.Check(ctx)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if len(drift) != 0 {
			t.Errorf("expected no drift after repair, got %+v", drift)
		}
	}
	if g := promtestutil.ToFloat64(metrics.LedgerDriftCases); g != 0 {
		t.Errorf("drift gauge = %v, want 0", g)
	}
}

func TestDriftMonitor_StartStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	w := NewDriftMonitor(db, zap.NewNop(), 10*time.Millisecond)

	w.Start()
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
