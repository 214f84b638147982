// internal/app/system/workers/driftmonitor.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/donationhub/internal/app/store/queries/reportqueries"
	"github.com/dalemusser/donationhub/internal/app/system/metrics"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DriftMonitor is a background worker that periodically compares each case's
// received amount with the sum of its donations. It only reports; repairs are
// made with ledgerctl reconcile.
//
// A case is reported once it shows the same drift in two consecutive checks,
// so a donation caught half-written between the two reads is not flagged.
type DriftMonitor struct {
	db       *mongo.Database
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu   sync.Mutex
	seen map[primitive.ObjectID]reportqueries.Drift
}

// NewDriftMonitor creates a new drift monitor that checks every interval.
func NewDriftMonitor(db *mongo.Database, logger *zap.Logger, interval time.Duration) *DriftMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriftMonitor{
		db:       db,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background check loop.
func (w *DriftMonitor) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("ledger drift monitor started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *DriftMonitor) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("ledger drift monitor stopped")
	})
}

func (w *DriftMonitor) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			_, _ = w.Check(context.Background())
		}
	}
}

// Check runs one comparison, updates the drift gauge, and returns the cases
// whose drift is unchanged since the previous check.
func (w *DriftMonitor) Check(ctx context.Context) ([]reportqueries.Drift, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	drift, err := reportqueries.CaseDrift(ctx, w.db)
	if err != nil {
		w.log.Error("ledger drift check failed", zap.Error(err))
		return nil, err
	}

	w.mu.Lock()
	prev := w.seen
	w.seen = make(map[primitive.ObjectID]reportqueries.Drift, len(drift))
	confirmed := []reportqueries.Drift{}
	for _, d := range drift {
		w.seen[d.CaseID] = d
		if p, ok := prev[d.CaseID]; ok && p.Received == d.Received && p.LedgerSum == d.LedgerSum {
			confirmed = append(confirmed, d)
		} else {
			w.log.Debug("possible ledger drift, rechecking next run",
				zap.String("case_id", d.CaseID.Hex()))
		}
	}
	w.mu.Unlock()

	metrics.LedgerDriftCases.Set(float64(len(confirmed)))
	for _, d := range confirmed {
		w.log.Warn("case received amount differs from its donations",
			zap.String("case_id", d.CaseID.Hex()),
			zap.String("case_name", d.CaseName),
			zap.Float64("received", d.Received),
			zap.Float64("ledger_sum", d.LedgerSum))
	}
	return confirmed, nil
}
