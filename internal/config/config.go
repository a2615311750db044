// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the data-protection layer.
type Config struct {
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// StorePath is the filesystem path of the on-device SQLite store.
	StorePath string

	// CipherAlgorithm selects the at-rest codec: "xor" (legacy obfuscator,
	// compatible with existing ciphertext) or "chacha20-poly1305".
	CipherAlgorithm string

	// KeyRotationInterval is how long a secret key stays current before
	// NeedsRotation reports true.
	KeyRotationInterval time.Duration

	// ConsentValidityMonths is the number of months a consent record stays
	// valid before re-consent is required.
	ConsentValidityMonths int
	// ConsentPolicyVersion is the privacy-policy version new consent records
	// are stamped with; records carrying an older version are stale.
	ConsentPolicyVersion string
	// AccessLogMaxEntries bounds the data-access audit log (FIFO eviction).
	AccessLogMaxEntries int
	// AccessLogRetention is how long access-log entries are kept before
	// PruneAccessLog removes them.
	AccessLogRetention time.Duration

	// GatewayDevMode bypasses the outbound allowlist so any http/https
	// destination is reachable. Never enable in production builds.
	GatewayDevMode bool
	// GatewayAllowedDomains lists the domains outbound calls may target;
	// subdomains of a listed domain are allowed too.
	GatewayAllowedDomains []string
	// GatewayTimeout is the per-attempt timeout for outbound calls.
	GatewayTimeout time.Duration
	// GatewayMaxAttempts bounds retries on transient network failure.
	GatewayMaxAttempts int
	// GatewayRetryDelay is the fixed delay between retry attempts.
	GatewayRetryDelay time.Duration

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Store
		StorePath: env.GetString("STORE_PATH", "dataguard.db"),

		// Cipher
		CipherAlgorithm: env.GetString("CIPHER_ALGORITHM", "xor"),

		// Key lifecycle
		KeyRotationInterval: env.GetDuration("KEY_ROTATION_DAYS", 90, 24*time.Hour),

		// Consent
		ConsentValidityMonths: env.GetInt("CONSENT_VALIDITY_MONTHS", 12),
		ConsentPolicyVersion:  env.GetString("CONSENT_POLICY_VERSION", "1.0"),
		AccessLogMaxEntries:   env.GetInt("ACCESS_LOG_MAX_ENTRIES", 100),
		AccessLogRetention:    env.GetDuration("ACCESS_LOG_RETENTION_DAYS", 365, 24*time.Hour),

		// Outbound gateway
		GatewayDevMode: env.GetBool("GATEWAY_DEV_MODE", false),
		GatewayAllowedDomains: splitDomains(env.GetString(
			"GATEWAY_ALLOWED_DOMAINS",
			"openrouter.ai,googleapis.com,firebaseio.com",
		)),
		GatewayTimeout:     env.GetDuration("GATEWAY_TIMEOUT_SECONDS", 30, time.Second),
		GatewayMaxAttempts: env.GetInt("GATEWAY_MAX_ATTEMPTS", 3),
		GatewayRetryDelay:  env.GetDuration("GATEWAY_RETRY_DELAY_MS", 2000, time.Millisecond),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "dataguard"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// splitDomains parses a comma-separated domain list, dropping empty entries.
func splitDomains(s string) []string {
	parts := strings.Split(s, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		if d := strings.TrimSpace(p); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
