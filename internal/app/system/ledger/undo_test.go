package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestUndo_RunsNewestFirstAndContinuesPastFailures(t *testing.T) {
	var order []string
	u := &undo{}
	u.push("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	u.push("second", func(context.Context) error {
		order = append(order, "second")
		return errors.New("boom")
	})
	u.push("third", func(context.Context) error {
		order = append(order, "third")
		return nil
	})

	u.run(context.Background(), zap.NewNop(), "test")

	want := []string{"third", "second", "first"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestUndo_StepsOutliveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	u := &undo{}
	u.push("check", func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	})
	u.run(ctx, zap.NewNop(), "test")

	if sawErr != nil {
		t.Errorf("compensation ran with a done context: %v", sawErr)
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{0.01, true},
		{100, true},
		{0, false},
		{-5, false},
	}
	for _, tt := range tests {
		if got := validAmount(tt.v); got != tt.want {
			t.Errorf("validAmount(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
