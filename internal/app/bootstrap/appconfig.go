// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration; ports, TLS, log level and
// environment belong to WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HS256 signing secret; required
	TokenTTL  time.Duration // lifetime of issued tokens

	// Default admin bootstrap (only when the users collection is empty)
	DefaultAdmin         bool
	DefaultAdminPassword string

	// Browser access
	CORSAllowedOrigins []string

	// Login attempts allowed per client IP per minute
	LoginRateLimit int

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// How often the background drift monitor runs; 0 disables it
	DriftCheckInterval time.Duration
}
