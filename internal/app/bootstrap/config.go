// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for EnrollHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ENROLLHUB_MONGO_URI, ENROLLHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "enrollhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "enrollhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "admin_login_id", Default: "admin", Desc: "Operator login id"},
	{Name: "admin_password", Default: "dev-only-change-me", Desc: "Operator password (must be strong in production)"},

	// Balance sweep
	{Name: "balance_stale_days", Default: 30, Desc: "Days before an unreset balance is zeroed by the sweep"},
	{Name: "sweep_interval", Default: "1h", Desc: "Interval between timer-forced sweeps (floor 60s)"},
	{Name: "sweep_min_gap", Default: "5m", Desc: "Throttle between opportunistic sweeps (floor 10s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ENROLLHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		AdminLoginID:  appValues.String("admin_login_id"),
		AdminPassword: appValues.String("admin_password"),

		BalanceStaleAfter: time.Duration(appValues.Int("balance_stale_days")) * 24 * time.Hour,
		SweepInterval:     appValues.Duration("sweep_interval", sweeper.DefaultRunInterval),
		SweepMinGap:       appValues.Duration("sweep_min_gap", sweeper.DefaultMinGap),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// EnrollHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect. Sweep floors are clamped in the
// sweeper and worker constructors, so out-of-range values warn but do not
// abort.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.BalanceStaleAfter <= 0 {
		return fmt.Errorf("balance_stale_days must be positive")
	}
	if appCfg.SweepMinGap < sweeper.MinGapFloor {
		logger.Warn("sweep_min_gap below floor; clamping",
			zap.Duration("configured", appCfg.SweepMinGap),
			zap.Duration("floor", sweeper.MinGapFloor))
	}
	if appCfg.SweepInterval < sweeper.IntervalFloor {
		logger.Warn("sweep_interval below floor; clamping",
			zap.Duration("configured", appCfg.SweepInterval),
			zap.Duration("floor", sweeper.IntervalFloor))
	}

	return nil
}
