package ledger

import (
	"context"

	"github.com/dalemusser/donationhub/internal/app/system/metrics"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

// undo records the inverse of each completed write so a failed operation can
// be rolled back by hand when the server has no transactions.
type undo struct {
	steps []undoStep
}

func (u *undo) push(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// run executes the recorded steps newest first. A failing step is logged and
// counted; the remaining steps still run.
func (u *undo) run(ctx context.Context, log *zap.Logger, op string) {
	if len(u.steps) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()

	for i := len(u.steps) - 1; i >= 0; i-- {
		s := u.steps[i]
		if err := s.fn(ctx); err != nil {
			metrics.LedgerCompensations.WithLabelValues("failed").Inc()
			log.Error("ledger compensation failed",
				zap.String("op", op),
				zap.String("step", s.name),
				zap.Error(err))
			continue
		}
		metrics.LedgerCompensations.WithLabelValues("ok").Inc()
		log.Warn("ledger compensation applied",
			zap.String("op", op),
			zap.String("step", s.name))
	}
}
