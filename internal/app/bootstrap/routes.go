// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/donationhub/internal/app/features/auditlog"
	casesfeature "github.com/dalemusser/donationhub/internal/app/features/cases"
	dashboardfeature "github.com/dalemusser/donationhub/internal/app/features/dashboard"
	donationsfeature "github.com/dalemusser/donationhub/internal/app/features/donations"
	donorsfeature "github.com/dalemusser/donationhub/internal/app/features/donors"
	errorsfeature "github.com/dalemusser/donationhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/donationhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/donationhub/internal/app/features/login"
	reportsfeature "github.com/dalemusser/donationhub/internal/app/features/reports"
	userinfofeature "github.com/dalemusser/donationhub/internal/app/features/userinfo"
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/ledger"
	"github.com/dalemusser/donationhub/internal/app/system/metrics"
	"github.com/dalemusser/donationhub/internal/app/system/ratelimit"
	"github.com/dalemusser/donationhub/internal/app/system/reqid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// loginLimiter is created by BuildHandler and stopped in Shutdown.
var loginLimiter *ratelimit.LoginLimiter

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// DonationHub serves a JSON API under /api guarded by bearer tokens, plus
// /health and /metrics for operators.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tokens := auth.NewTokens(appCfg.JWTSecret, appCfg.TokenTTL)
	mw := auth.NewMiddleware(tokens, logger)
	audit := newAuditLogger(deps, appCfg, logger)
	l := ledger.New(db, logger)

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(reqid.Middleware)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: appCfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{reqid.Header},
		MaxAge:         300,
	}))
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		// Authentication
		if loginLimiter != nil {
			loginLimiter.Stop()
		}
		loginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit)
		loginHandler := loginfeature.NewHandler(db, tokens, loginLimiter, audit, logger)
		api.Mount("/register", loginfeature.RegisterRoutes(loginHandler, mw))
		api.Mount("/login", loginfeature.Routes(loginHandler))

		userinfoHandler := userinfofeature.NewHandler(db, logger)
		api.Mount("/me", userinfofeature.Routes(userinfoHandler, mw))

		dashboardHandler := dashboardfeature.NewHandler(db, logger)
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, mw))

		donorsHandler := donorsfeature.NewHandler(db, l, audit, logger)
		api.Mount("/donors", donorsfeature.Routes(donorsHandler, mw))

		casesHandler := casesfeature.NewHandler(db, l, audit, logger)
		api.Mount("/cases", casesfeature.Routes(casesHandler, mw))

		donationsHandler := donationsfeature.NewHandler(db, l, audit, logger)
		api.Mount("/donations", donationsfeature.Routes(donationsHandler, mw))

		reportsHandler := reportsfeature.NewHandler(db, logger)
		api.Mount("/reports", reportsfeature.Routes(reportsHandler, mw))

		auditHandler := auditlogfeature.NewHandler(db, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, mw))
	})

	return r, nil
}
