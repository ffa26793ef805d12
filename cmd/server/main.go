package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/auth"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/config"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/httpapi"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/logging"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/notify"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/ratelimit"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store/memory"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	var st store.Store
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(cfg.DatabaseURL, "up"); err != nil {
				return err
			}
			logger.Info("migrations applied")
		}
		pg, err := postgres.NewStore(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		st = pg
		logger.Info("using postgres store")
	} else {
		st = memory.NewStore()
		logger.Info("using memory store")
	}

	var notifier auth.Notifier
	if cfg.SMTPHost != "" {
		smtp, err := notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			return err
		}
		notifier = smtp
	} else {
		logger.Warn("SMTP_HOST not set; reset codes are written to the log")
		notifier = notify.NewLog(logger)
	}

	var limiter auth.Limiter
	var memLimiter *ratelimit.Memory
	switch {
	case cfg.ResetRateLimit == 0:
	case cfg.RedisAddr != "":
		rl, err := ratelimit.NewRedis(rootCtx, ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   "admission:ratelimit:",
			Limit:    cfg.ResetRateLimit,
			Window:   cfg.ResetRateWindow,
		})
		if err != nil {
			return err
		}
		defer rl.Close()
		limiter = rl
		logger.Info("using redis rate limiter")
	default:
		memLimiter = ratelimit.NewMemory(cfg.ResetRateLimit, cfg.ResetRateWindow)
		limiter = memLimiter
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; tokens will not survive a restart")
	}

	svc, err := auth.NewService(auth.Config{
		Store:    st,
		Hasher:   auth.NewHasher(cfg.BcryptCost),
		Tokens:   tokens,
		Notifier: notifier,
		Limiter:  limiter,
		ResetTTL: cfg.ResetTTL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if cfg.SweepInterval > 0 {
		go runSweepLoop(rootCtx, logger, svc, memLimiter, cfg.SweepInterval)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := httpapi.NewServer(svc, httpapi.Options{Logger: logger, Registry: reg})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr(), "env", cfg.Env)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-stop:
		logger.Info("shutdown requested")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error("shutdown", "err", err)
	}
	return serveErr
}

type purger interface {
	PurgeExpired(ctx context.Context) (store.PurgeResult, error)
}

// runSweepLoop deletes expired reset codes and sessions every interval until
// ctx is done.
func runSweepLoop(ctx context.Context, logger *slog.Logger, p purger, lim *ratelimit.Memory, interval time.Duration) {
	runOnce := func() {
		ctxPurge, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		res, err := p.PurgeExpired(ctxPurge)
		if err != nil {
			logger.Error("expiry sweep failed", "err", err)
			return
		}
		if res.PasswordResets > 0 || res.Sessions > 0 {
			logger.Info("expiry sweep",
				"password_resets", res.PasswordResets,
				"sessions", res.Sessions,
			)
		}
		if lim != nil {
			lim.Prune()
		}
	}

	runOnce()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			runOnce()
		}
	}
}
