// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging level); AppConfig is
// everything specific to EnrollHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Operator session configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Operator credential (single login; role evaluation is external)
	AdminLoginID  string
	AdminPassword string

	// Balance sweep configuration
	BalanceStaleAfter time.Duration // how old a reset must be before the sweep zeroes the balance
	SweepInterval     time.Duration // timer interval for forced sweeps (floor 60s)
	SweepMinGap       time.Duration // throttle between opportunistic sweeps (floor 10s)
}
