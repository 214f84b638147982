// Package txn runs multi-document writes inside a MongoDB transaction and
// degrades to plain sequential execution on deployments without transaction
// support (standalone servers).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on db's client. When the server cannot
// run transactions, fn is executed once more without a session; callers that
// need all-or-nothing behaviour in that mode check InTransaction and register
// their own compensating steps.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unavailable, running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// Snapshot runs the reads in fn against a single point-in-time view of the
// database. Servers without snapshot sessions (standalone, pre-5.0) run fn as
// plain reads instead.
func Snapshot(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession(options.Session().SetSnapshot(true))
	if err != nil {
		return fn(ctx)
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		return fn(sc)
	})
	if err != nil && snapshotNotSupported(err) {
		if log != nil {
			log.Debug("snapshot reads unavailable, reading without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

func snapshotNotSupported(err error) bool {
	if IsNotSupported(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 72 { // InvalidOptions
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "snapshot")
}

// InTransaction reports whether ctx carries an active session started by Run.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation
			51,  // NoReplicationEnabled
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(a, b string) bool {
		return strings.Contains(msg, a) && strings.Contains(msg, b)
	}
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal operation", "transaction")
}
