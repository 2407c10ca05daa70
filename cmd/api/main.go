package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/bootstrap"
	"orgdesk.io/internal/config"
	"orgdesk.io/internal/httpapi"
	"orgdesk.io/internal/jobs"
	"orgdesk.io/internal/obs"
	"orgdesk.io/internal/orgs"
	"orgdesk.io/internal/revocation"
	"orgdesk.io/internal/store/memory"
	"orgdesk.io/internal/store/pg"
)

// store is what both persistence backends provide.
type store interface {
	auth.PrincipalStore
	orgs.Store
	Ping(ctx context.Context) error
}

func main() {
	logger := obs.Logger()
	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("orgdesk-api stopped")
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := obs.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	obs.Init()
	obs.InitBuildInfo(cfg.Version, cfg.Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store
	if cfg.DatabaseURL != "" {
		pgStore, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pgStore.Close()
		st = pgStore
		logger.Info("using postgres store")
	} else {
		st = memory.New()
		logger.Warn("ORGDESK_PG_DSN not set; using in-memory store")
	}

	scheduler := jobs.NewScheduler(logger)
	var (
		revoked auth.RevocationList
		checks  = []httpapi.Pinger{st}
	)
	if cfg.RedisURL != "" {
		r, err := revocation.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer r.Close()
		revoked = r
		checks = append(checks, r)
	} else {
		mem := revocation.NewMemory()
		if err := scheduler.AddSweep(cfg.SweepSchedule, mem); err != nil {
			return err
		}
		revoked = mem
		logger.Warn("ORGDESK_REDIS_URL not set; revocations are local to this process")
	}

	issuer, err := auth.NewIssuer(cfg.AuthSecret, revoked,
		auth.WithIssuerName(cfg.AuthIssuer),
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(st, auth.NewHasher(cfg.BcryptCost), issuer)
	if err != nil {
		return err
	}
	orgSvc := orgs.NewService(st, authSvc)

	if err := bootstrap.EnsureAdmin(ctx, cfg, authSvc, logger); err != nil {
		return err
	}

	proxies, err := httpapi.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	api := httpapi.New(httpapi.Options{
		Auth:           authSvc,
		Orgs:           orgSvc,
		Ready:          httpapi.ReadyProbe{Checks: checks},
		Version:        cfg.Version,
		RateBurst:      cfg.RateBurst,
		RatePerSec:     cfg.RatePerSec,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: proxies,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	scheduler.Start()
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "version": cfg.Version}).Info("starting orgdesk-api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
