// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/donationhub/internal/app/store/audit"
	userstore "github.com/dalemusser/donationhub/internal/app/store/users"
	"github.com/dalemusser/donationhub/internal/app/system/auditlog"
	"github.com/dalemusser/donationhub/internal/app/system/authutil"
	"github.com/dalemusser/donationhub/internal/app/system/timeouts"
	"github.com/dalemusser/donationhub/internal/app/system/workers"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// defaultAdminUsername is the account created on an empty users collection.
const defaultAdminUsername = "admin"

// driftMonitor is started in Startup and stopped in Shutdown.
var driftMonitor *workers.DriftMonitor

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// DonationHub seeds a default admin account so a fresh deployment can sign in,
// then starts the ledger drift monitor.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.DefaultAdmin {
		if err := ensureDefaultAdmin(ctx, deps, appCfg.DefaultAdminPassword, newAuditLogger(deps, appCfg, logger), logger); err != nil {
			return err
		}
	}

	if appCfg.DriftCheckInterval > 0 {
		driftMonitor = workers.NewDriftMonitor(deps.MongoDatabase, logger, appCfg.DriftCheckInterval)
		driftMonitor.Start()
	}
	return nil
}

func newAuditLogger(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

// ensureDefaultAdmin creates admin/<password> when no user exists. A users
// collection with any account in it is left alone.
func ensureDefaultAdmin(ctx context.Context, deps DBDeps, password string, al *auditlog.Logger, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	users := userstore.New(deps.MongoDatabase)
	n, err := users.Count(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}
	u, err := users.Create(ctx, models.User{
		Username:     defaultAdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Name:         "Administrator",
	})
	if errors.Is(err, userstore.ErrUsernameTaken) {
		// Another instance won the race.
		return nil
	}
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	logger.Warn("created default admin account; change its password",
		zap.String("username", u.Username),
		zap.String("user_id", u.ID.Hex()))
	al.DefaultAdminCreated(ctx, u.ID)
	return nil
}
