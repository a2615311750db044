// Package app provides the dependency injection container assembling the
// data-protection components.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/pathshala/dataguard/internal/cipher"
	"github.com/pathshala/dataguard/internal/config"
	consentUsecase "github.com/pathshala/dataguard/internal/consent/usecase"
	apperrors "github.com/pathshala/dataguard/internal/errors"
	"github.com/pathshala/dataguard/internal/gateway"
	"github.com/pathshala/dataguard/internal/inputguard"
	keyvaultService "github.com/pathshala/dataguard/internal/keyvault/service"
	keyvaultUsecase "github.com/pathshala/dataguard/internal/keyvault/usecase"
	"github.com/pathshala/dataguard/internal/metrics"
	"github.com/pathshala/dataguard/internal/ratelimit"
	"github.com/pathshala/dataguard/internal/store"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created
// on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	store           store.Store
	sqliteStore     *store.SQLiteStore
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	metricsServer   *metrics.Server

	// Components
	vault           *keyvaultUsecase.Vault
	codec           cipher.Codec
	structuredCodec *cipher.StructuredCodec
	guard           *inputguard.Guard
	ledger          *consentUsecase.Ledger
	rateLimiter     *ratelimit.Limiter
	gateway         *gateway.Gateway

	// Initialization flags and mutex for thread-safety
	mu                sync.Mutex
	loggerInit        sync.Once
	storeInit         sync.Once
	metricsInit       sync.Once
	metricsServerInit sync.Once
	vaultInit         sync.Once
	codecInit         sync.Once
	guardInit         sync.Once
	ledgerInit        sync.Once
	rateLimiterInit   sync.Once
	gatewayInit       sync.Once
	initErrors        map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in
// configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Store returns the key-value store. It opens the SQLite store on first
// access and degrades to an in-memory store when the file cannot be opened,
// so callers always get a working store; the degradation is logged and the
// stored error is retrievable via StoreErr.
func (c *Container) Store() store.Store {
	c.storeInit.Do(func() {
		c.store = c.initStore()
	})
	return c.store
}

// StoreErr reports whether the persistent store failed to open and the
// container fell back to the in-memory store.
func (c *Container) StoreErr() error {
	return c.initErrors["store"]
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsInit.Do(func() {
		err = c.initMetrics()
		if err != nil {
			c.initErrors["metrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metrics"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// MetricsServer returns the HTTP server exposing the Prometheus endpoint.
// It fails when metrics are disabled or the provider could not be created.
func (c *Container) MetricsServer() (*metrics.Server, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, apperrors.New("metrics are disabled, set METRICS_ENABLED=true")
	}
	c.metricsServerInit.Do(func() {
		c.metricsServer = metrics.NewServer(c.config.MetricsPort, c.Logger(), provider)
	})
	return c.metricsServer, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled or failed to initialize it returns a no-op recorder.
func (c *Container) BusinessMetrics() metrics.BusinessMetrics {
	if _, err := c.MetricsProvider(); err != nil {
		c.Logger().Warn("metrics unavailable, using no-op recorder",
			slog.String("error", err.Error()))
		return metrics.NewNoOpBusinessMetrics()
	}
	return c.businessMetrics
}

// Vault returns the key vault instance.
func (c *Container) Vault() *keyvaultUsecase.Vault {
	c.vaultInit.Do(func() {
		c.vault = keyvaultUsecase.NewVault(
			c.Store(),
			keyvaultService.NewGenerator(),
			c.Logger(),
			c.config.KeyRotationInterval,
		)
	})
	return c.vault
}

// Codec returns the at-rest codec selected by configuration.
func (c *Container) Codec() cipher.Codec {
	c.codecInit.Do(func() {
		c.codec = cipher.New(c.config.CipherAlgorithm)
		c.structuredCodec = cipher.NewStructuredCodec(c.codec)
	})
	return c.codec
}

// StructuredCodec returns the JSON object codec built on Codec.
func (c *Container) StructuredCodec() *cipher.StructuredCodec {
	c.Codec()
	return c.structuredCodec
}

// Guard returns the input guard instance.
func (c *Container) Guard() *inputguard.Guard {
	c.guardInit.Do(func() {
		c.guard = inputguard.NewGuard(c.Logger(), c.BusinessMetrics())
	})
	return c.guard
}

// Ledger returns the consent ledger instance.
func (c *Container) Ledger() *consentUsecase.Ledger {
	c.ledgerInit.Do(func() {
		c.ledger = consentUsecase.NewLedger(
			c.Store(),
			c.Logger(),
			c.config.ConsentValidityMonths,
			c.config.ConsentPolicyVersion,
			c.config.AccessLogMaxEntries,
		)
	})
	return c.ledger
}

// RateLimiter returns the per-key rate limiter instance.
func (c *Container) RateLimiter() *ratelimit.Limiter {
	c.rateLimiterInit.Do(func() {
		c.rateLimiter = ratelimit.NewLimiter(c.Logger())
	})
	return c.rateLimiter
}

// Gateway returns the outbound HTTP gateway instance.
func (c *Container) Gateway() *gateway.Gateway {
	c.gatewayInit.Do(func() {
		c.gateway = gateway.NewGateway(
			&http.Client{},
			c.Guard(),
			c.Logger(),
			c.BusinessMetrics(),
			gateway.Options{
				AllowedDomains: c.config.GatewayAllowedDomains,
				DevMode:        c.config.GatewayDevMode,
				Timeout:        c.config.GatewayTimeout,
				MaxAttempts:    c.config.GatewayMaxAttempts,
				RetryDelay:     c.config.GatewayRetryDelay,
			},
		)
	})
	return c.gateway
}

// EraseInstallation removes every trace of the user from the device: all
// stored data first, then the key material. If the process dies between the
// two steps the leftover key refers to nothing and is removed on the next
// call.
func (c *Container) EraseInstallation(ctx context.Context) error {
	var errs []error
	if err := c.Ledger().EraseAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.Vault().Wipe(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.Join(errs...), "installation erase incomplete")
	}
	c.Logger().Info("installation erased")
	return nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, apperrors.Wrap(err, "metrics server shutdown"))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, apperrors.Wrap(err, "metrics provider shutdown"))
		}
	}
	if c.sqliteStore != nil {
		if err := c.sqliteStore.Close(); err != nil {
			errs = append(errs, apperrors.Wrap(err, "store close"))
		}
	}

	if len(errs) > 0 {
		return apperrors.Join(errs...)
	}
	return nil
}

// initLogger creates and configures a structured logger based on the log
// level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initStore opens the SQLite store, falling back to an in-memory store when
// the file cannot be opened or migrated.
func (c *Container) initStore() store.Store {
	st, err := store.OpenSQLiteStore(c.config.StorePath)
	if err != nil {
		c.initErrors["store"] = err
		c.Logger().Error("persistent store unavailable, falling back to in-memory store",
			slog.String("path", c.config.StorePath),
			slog.String("error", err.Error()))
		return store.NewMemoryStore()
	}
	c.sqliteStore = st
	return st
}

// initMetrics creates the metrics provider and business metrics recorder
// when metrics are enabled.
func (c *Container) initMetrics() error {
	if !c.config.MetricsEnabled {
		c.businessMetrics = metrics.NewNoOpBusinessMetrics()
		return nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return apperrors.Wrap(err, "failed to create metrics provider")
	}
	business, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return apperrors.Wrap(err, "failed to create business metrics")
	}

	c.metricsProvider = provider
	c.businessMetrics = business
	return nil
}
