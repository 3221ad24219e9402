package app

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Issuer string // Optional: issuer shown in authenticator apps and ticket iss (default: RodneyAuth)

	DatabaseDriver   string        // Optional: sqlite, postgres or memory (default: sqlite)
	DatabaseFile     string        // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseURL      string        // Required for postgres: postgres:// connection URL
	DatabaseMaxConns int32         // Optional: postgres pool size (default: pgx default)
	DatabaseIdleTime time.Duration // Optional: postgres max idle time per connection

	PepperFile    string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	SessionTTL    time.Duration // Optional: session lifetime (default: 7 days)
	SessionCookie string        // Optional: session cookie name (default: rodney_session)
	CookieSecure  bool          // Optional: mark cookies Secure (default: on outside dev and test)

	SeedOnStart     bool   // Optional: create the default accounts on startup
	SeedPassword    string // Optional: password for seeded accounts (default: ChangeMe123!)
	SeedAdmin       SeedIdentity
	SeedManager     SeedIdentity
	SeedMember      SeedIdentity
	SeedAdminSecret string // Optional: base32 TOTP secret pre-enrolled on the admin account

	Env           string // Environment (dev, test, staging, prod) (default: dev)
	LogLevel      string // Log level (debug, info, warn, error) (default: info)
	LogFormat     string // Log format (json, text) (default: json)
	Port          int    // HTTP server port (default: 8080)
	BuildVersion  string
	ShutdownGrace time.Duration // Graceful shutdown timeout (default: 10s)

	HousekeepingInterval time.Duration // Expired session sweep interval (default: 0, disabled)
}

// SeedIdentity names one seeded account.
type SeedIdentity struct {
	Email string
	Name  string
}

func loadSeedIdentity(role, email, name string) SeedIdentity {
	return SeedIdentity{
		Email: getEnvOrDefault("SEED_"+role+"_EMAIL", email),
		Name:  getEnvOrDefault("SEED_"+role+"_NAME", name),
	}
}

// LoadDotEnv loads KEY=VALUE pairs from files (default .env) into the
// environment without overriding what is already set. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "RodneyAuth"),
		DatabaseDriver:       strings.ToLower(getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:          os.Getenv("AUTH_DATABASE_URL"),
		DatabaseMaxConns:     int32(getEnvIntOrDefault("AUTH_DATABASE_MAX_CONNS", 0)), // #nosec G115 - small config value
		DatabaseIdleTime:     getEnvDurationOrDefault("AUTH_DATABASE_MAX_IDLE_TIME", 0),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SessionTTL:           getEnvDurationOrDefault("AUTH_SESSION_TTL", 7*24*time.Hour),
		SessionCookie:        getEnvOrDefault("AUTH_SESSION_COOKIE", "rodney_session"),
		SeedOnStart:          getEnvBoolOrDefault("AUTH_SEED_ON_START", false),
		SeedPassword:         getEnvOrDefault("SEED_DEFAULT_PASSWORD", "ChangeMe123!"),
		SeedAdmin:            loadSeedIdentity("ADMIN", "admin@rodneyauth.local", "Rodney Admin"),
		SeedManager:          loadSeedIdentity("MANAGER", "manager@rodneyauth.local", "Security Manager"),
		SeedMember:           loadSeedIdentity("MEMBER", "member@rodneyauth.local", "Team Member"),
		SeedAdminSecret:      os.Getenv("SEED_ADMIN_TOTP_SECRET"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		BuildVersion:         getEnvOrDefault("BUILD_VERSION", BuildVersion),
		ShutdownGrace:        getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 0),
	}

	devLike := cfg.Env == "dev" || cfg.Env == "test"
	cfg.CookieSecure = getEnvBoolOrDefault("AUTH_COOKIE_SECURE", !devLike)

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
