// Command mfa-server serves the MFA enrollment and verification API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	mfamod "github.com/repclub/mfakit/modules/mfa"
	"github.com/repclub/mfakit/pkg/config"
	"github.com/repclub/mfakit/pkg/email"
	"github.com/repclub/mfakit/pkg/httpserver"
	"github.com/repclub/mfakit/pkg/logger"
	"github.com/repclub/mfakit/pkg/pg"
	"github.com/repclub/mfakit/pkg/ratelimiter"
	"github.com/repclub/mfakit/pkg/redis"
	"github.com/repclub/mfakit/pkg/requestid"
	"github.com/repclub/mfakit/svc/mfa"
	"github.com/repclub/mfakit/svc/mfa/pgstore"
	"github.com/repclub/mfakit/svc/mfa/redisstore"
)

const serviceName = "mfa-server"

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	// Storage is "postgres" (with redis for pending state and lockouts) or
	// "memory" for local development.
	Storage string `env:"MFA_STORAGE" envDefault:"postgres"`

	// VerifyRateLimit caps POST /verify per client IP and user per minute.
	VerifyRateLimit int `env:"MFA_VERIFY_RATE_LIMIT" envDefault:"30"`
}

func (c appConfig) Validate() error {
	switch c.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("MFA_STORAGE must be postgres or memory, got %q", c.Storage)
	}
	if c.VerifyRateLimit <= 0 {
		return fmt.Errorf("MFA_VERIFY_RATE_LIMIT must be positive, got %d", c.VerifyRateLimit)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		appCfg   appConfig
		mfaCfg   mfa.Config
		httpCfg  httpserver.Config
		emailCfg email.Config
	)
	if err := errors.Join(
		config.Load(&appCfg),
		config.Load(&mfaCfg),
		config.Load(&httpCfg),
		config.Load(&emailCfg),
	); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, serviceName),
		logger.WithLevelName(appCfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sealer, err := mfaCfg.Sealer()
	if err != nil {
		return err
	}

	sender, err := email.New(emailCfg)
	if err != nil {
		return err
	}

	deps, err := openStorage(ctx, appCfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	svc, err := mfa.NewService(mfaCfg, deps.store, deps.pending, sealer,
		mfa.WithLogger(log),
		mfa.WithNotifier(mfa.NewEmailNotifier(sender)),
		mfa.WithLimiterStore(deps.limiter),
	)
	if err != nil {
		return err
	}

	verifyLimiter, err := ratelimiter.NewBucket(deps.limiter, ratelimiter.Config{
		Capacity:       appCfg.VerifyRateLimit,
		RefillRate:     appCfg.VerifyRateLimit,
		RefillInterval: time.Minute,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second, deps.checks...))
	r.Mount("/mfa", mfamod.New(svc,
		mfamod.WithLogger(log),
		mfamod.WithVerifyLimiter(verifyLimiter),
	).Handle())

	log.InfoContext(ctx, "starting", slog.String("storage", appCfg.Storage), slog.String("issuer", mfaCfg.Issuer))
	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

type storage struct {
	store   mfa.Store
	pending mfa.PendingStore
	limiter ratelimiter.Store
	checks  []httpserver.Check
	closers []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, appCfg appConfig, log *slog.Logger) (*storage, error) {
	if appCfg.Storage == "memory" {
		log.WarnContext(ctx, "using in-memory storage, enrollments are lost on restart")
		mem := mfa.NewMemoryStore(nil)
		limiter := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(time.Minute))
		return &storage{store: mem, pending: mem, limiter: limiter, closers: []func(){limiter.Close}}, nil
	}

	var (
		pgCfg    pg.Config
		redisCfg redis.Config
	)
	if err := errors.Join(config.Load(&pgCfg), config.Load(&redisCfg)); err != nil {
		return nil, err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	s := &storage{closers: []func(){pool.Close}}

	if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
		s.close()
		return nil, err
	}

	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = client.Close() })

	s.store = pgstore.New(pool)
	s.pending = redisstore.New(redis.NewStorage(client, redisCfg.KeyPrefix))
	s.limiter = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix(redisCfg.KeyPrefix+"attempts:"))
	s.checks = []httpserver.Check{
		{Name: "postgres", Fn: pg.Healthcheck(pool)},
		{Name: "redis", Fn: redis.Healthcheck(client)},
	}
	return s, nil
}
