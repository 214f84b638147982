// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/auditlog"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minJWTSecretLen is the shortest signing secret accepted at startup.
const minJWTSecretLen = 32

// appConfigKeys defines the configuration keys for DonationHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: DONATIONHUB_MONGO_URI, DONATIONHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "donation_db", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	{Name: "jwt_secret", Default: "", Desc: "HS256 signing secret for bearer tokens (required, at least 32 bytes)"},
	{Name: "token_ttl", Default: "8h", Desc: "Bearer token lifetime (e.g., 8h, 30m)"},

	{Name: "default_admin", Default: true, Desc: "Create admin/<default_admin_password> when no users exist"},
	{Name: "default_admin_password", Default: "admin", Desc: "Password for the bootstrap admin account"},

	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated list of origins allowed to call the API"},
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per client IP per minute"},

	{Name: "drift_check_interval", Default: "15m", Desc: "How often to compare case totals with donations (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, DONATIONHUB_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DONATIONHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		TokenTTL:  appValues.Duration("token_ttl", auth.DefaultTokenTTL),

		DefaultAdmin:         appValues.Bool("default_admin"),
		DefaultAdminPassword: appValues.String("default_admin_password"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		LoginRateLimit:     appValues.Int("login_rate_limit"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		DriftCheckInterval: appValues.Duration("drift_check_interval", 15*time.Minute),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// DonationHub checks the MongoDB URI format and refuses to sign tokens with
// a missing or short secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if len(appCfg.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes", minJWTSecretLen)
	}
	if appCfg.TokenTTL <= 0 || appCfg.TokenTTL > 7*24*time.Hour {
		return fmt.Errorf("token_ttl must be between 1s and 168h, got %s", appCfg.TokenTTL)
	}
	if appCfg.DefaultAdmin && appCfg.DefaultAdminPassword == "" {
		return fmt.Errorf("default_admin_password must be set when default_admin is enabled")
	}
	if appCfg.DriftCheckInterval < 0 {
		return fmt.Errorf("drift_check_interval must not be negative")
	}
	if appCfg.LoginRateLimit < 1 {
		return fmt.Errorf("login_rate_limit must be at least 1")
	}
	for name, v := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		if !auditlog.ValidDestination(v) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, v)
		}
	}
	return nil
}
