// Package bootstrap builds the shared runtime pieces both binaries need from
// a loaded config: the API client, the owner session and the stub store.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/slotify/internal/config"
	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/internal/stubapi"
	"github.com/wolfman30/slotify/pkg/logging"
)

// BuildLogger returns the process logger. It writes to stderr so command
// output on stdout stays clean.
func BuildLogger(cfg *appconfig.Config) *logging.Logger {
	if cfg == nil {
		return logging.Default()
	}
	return logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, nil)
}

// BuildHTTPClient applies the configured timeout and, for a dev server with a
// self-signed certificate, skips TLS verification.
func BuildHTTPClient(cfg *appconfig.Config) *http.Client {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.InsecureTLS {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local dev certificate
		client.Transport = transport
	}
	return client
}

// BuildAPIClient wires the Slotify client with the HTTP fallback for
// booking creation.
func BuildAPIClient(cfg *appconfig.Config, logger *logging.Logger, m *metrics.ClientMetrics) *slotify.SlotifyClient {
	return slotify.NewSlotifyClient(cfg.APIBaseURL,
		slotify.WithHTTPClient(BuildHTTPClient(cfg)),
		slotify.WithFallbackBaseURL(cfg.APIFallbackURL),
		slotify.WithLogger(logger),
		slotify.WithMetrics(m),
	)
}

// BuildSession turns the configured token into a session, or nil when no
// token is set.
func BuildSession(cfg *appconfig.Config) (*slotify.Session, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, nil
	}
	session, err := slotify.NewSession(cfg.APIToken)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session: %w", err)
	}
	return session, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildStubStore picks the stub's slot store. "redis" falls back to memory
// when Redis cannot be reached.
func BuildStubStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (stubapi.Store, func()) {
	noop := func() {}
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.StubStore {
	case "redis":
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("stub store: redis", "addr", cfg.RedisAddr)
			return stubapi.NewRedisStore(client), func() { _ = client.Close() }
		}
		logger.Warn("stub store: redis unavailable, using memory")
	case "", "memory":
	default:
		logger.Warn("stub store: unknown kind, using memory", "kind", cfg.StubStore)
	}
	logger.Info("stub store: memory")
	return stubapi.NewMemoryStore(), noop
}
