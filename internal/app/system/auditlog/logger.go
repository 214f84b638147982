// Package auditlog records authentication and administrative events to
// MongoDB and/or zap according to configuration.
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/donationhub/internal/app/store/audit"
	"github.com/dalemusser/donationhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination values for Config fields.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config selects where each category goes.
type Config struct {
	// Auth covers login and registration.
	Auth string
	// Admin covers case management, donor and donation removal, reconciliation.
	Admin string
}

// Logger writes audit events. A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ValidDestination reports whether v is one of all|db|log|off.
func ValidDestination(v string) bool {
	switch v {
	case All, DB, Log, Off:
		return true
	}
	return false
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log routes event according to its category's setting. Unknown categories
// go everywhere. Storage failures are logged and never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = All
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if (setting == All || setting == Log) && l.zapLog != nil {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func requestEvent(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{Category: category, EventType: eventType, Success: success}
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication Events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = &userID
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attempted string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_username": attempted}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID = &userID
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, attempted, reason string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = reason
	e.Details = map[string]string{"attempted_username": attempted}
	l.Log(ctx, e)
}

// UserRegistered logs a new account. actorID is nil for self-registration.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, actorID *primitive.ObjectID, userID primitive.ObjectID, username, role string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventUserRegistered, true)
	e.UserID = &userID
	e.ActorID = actorID
	e.Details = map[string]string{"username": username, "role": role}
	l.Log(ctx, e)
}

func (l *Logger) DefaultAdminCreated(ctx context.Context, userID primitive.ObjectID) {
	e := requestEvent(nil, audit.CategoryAuth, audit.EventDefaultAdminCreated, true)
	e.UserID = &userID
	e.IP = "startup"
	l.Log(ctx, e)
}

// --- Admin Events ---

func (l *Logger) CaseCreated(ctx context.Context, r *http.Request, actorID, caseID primitive.ObjectID, caseName string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventCaseCreated, true)
	e.ActorID = &actorID
	e.Details = map[string]string{"case_id": caseID.Hex(), "case_name": caseName}
	l.Log(ctx, e)
}

func (l *Logger) CaseUpdated(ctx context.Context, r *http.Request, actorID, caseID primitive.ObjectID, fieldsChanged string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventCaseUpdated, true)
	e.ActorID = &actorID
	e.Details = map[string]string{"case_id": caseID.Hex(), "fields_changed": fieldsChanged}
	l.Log(ctx, e)
}

func (l *Logger) CaseDeleted(ctx context.Context, r *http.Request, actorID, caseID primitive.ObjectID, caseName string, donationsRemoved int64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventCaseDeleted, true)
	e.ActorID = &actorID
	e.Details = map[string]string{
		"case_id":           caseID.Hex(),
		"case_name":         caseName,
		"donations_removed": strconv.FormatInt(donationsRemoved, 10),
	}
	l.Log(ctx, e)
}

func (l *Logger) DonorDeleted(ctx context.Context, r *http.Request, actorID, donorID primitive.ObjectID, donorName string, donationsRemoved int64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventDonorDeleted, true)
	e.ActorID = &actorID
	e.Details = map[string]string{
		"donor_id":          donorID.Hex(),
		"donor_name":        donorName,
		"donations_removed": strconv.FormatInt(donationsRemoved, 10),
	}
	l.Log(ctx, e)
}

func (l *Logger) DonationRemoved(ctx context.Context, r *http.Request, actorID, donationID, caseID primitive.ObjectID, amount float64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventDonationRemoved, true)
	e.ActorID = &actorID
	e.Details = map[string]string{
		"donation_id": donationID.Hex(),
		"case_id":     caseID.Hex(),
		"amount":      strconv.FormatFloat(amount, 'f', -1, 64),
	}
	l.Log(ctx, e)
}

// LedgerReconciled logs a counter correction applied from ledgerctl.
func (l *Logger) LedgerReconciled(ctx context.Context, caseID primitive.ObjectID, delta float64) {
	e := requestEvent(nil, audit.CategoryAdmin, audit.EventLedgerReconciled, true)
	e.IP = "ledgerctl"
	e.Details = map[string]string{
		"case_id": caseID.Hex(),
		"delta":   strconv.FormatFloat(delta, 'f', -1, 64),
	}
	l.Log(ctx, e)
}
