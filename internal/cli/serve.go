package cli

import (
	"context"
	"github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/yakoovad/hackathon-teams/internal/api"
	"github.com/yakoovad/hackathon-teams/internal/db"
	"github.com/yakoovad/hackathon-teams/internal/metrics"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"github.com/yakoovad/hackathon-teams/internal/service"
	"go.uber.org/zap"
	"net/http"
	"os/signal"
	"syscall"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, a *app, migrate bool) error {
	l := a.logger
	l.Info("starting application", zap.String("env", a.cfg.Environment))

	if migrate {
		if err := db.NewMigrator(a.pool, l).Up(ctx); err != nil {
			return err
		}
	}

	m, err := metrics.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}

	transactor := db.NewPgxTransactor(a.pool)

	teamRepo := repository.NewPgxTeamRepository(a.pool)
	memberRepo := repository.NewPgxTeamMemberRepository(a.pool)
	requestRepo := repository.NewPgxTeamRequestRepository(a.pool)
	userRepo := repository.NewPgxUserRepository(a.pool)
	registrationRepo := repository.NewPgxRegistrationRepository(a.pool)

	team := service.NewTeamService(transactor).
		WithTeamRepo(teamRepo).
		WithTeamMemberRepo(memberRepo).
		WithRegistrationRepo(registrationRepo).
		WithEventRecorder(m)
	requests := service.NewTeamRequestService(transactor).
		WithTeamRepo(teamRepo).
		WithTeamMemberRepo(memberRepo).
		WithTeamRequestRepo(requestRepo).
		WithUserRepo(userRepo).
		WithRegistrationRepo(registrationRepo).
		WithEventRecorder(m)
	registrations := service.NewRegistrationService().
		WithRegistrationRepo(registrationRepo)

	checks := []health.Config{api.PingCheck("postgres", a.pool, false)}

	var limiter api.RateLimiter
	if a.cfg.RateLimitRedisAddr != "" {
		redisLimiter, err := api.NewRedisRateLimiter(ctx, &redis.Options{
			Addr:     a.cfg.RateLimitRedisAddr,
			Password: a.cfg.RateLimitRedisPass,
			DB:       a.cfg.RateLimitRedisDB,
		}, l)
		if err != nil {
			return err
		}
		checks = append(checks, api.PingCheck("redis", redisLimiter, true))
		limiter = redisLimiter
		l.Info("using redis rate limiter", zap.String("addr", a.cfg.RateLimitRedisAddr))
	} else {
		limiter = api.NewMemoryRateLimiter()
		l.Info("using in-memory rate limiter")
	}
	defer func() { _ = limiter.Close() }()

	healthChecker, err := api.NewHealthChecker(checks...)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.NewHandler(l).
		WithTeamService(team).
		WithTeamRequestService(requests).
		WithRegistrationService(registrations).
		WithHealthChecker(healthChecker).
		WithMetrics(m).
		WithRateLimiter(limiter, a.cfg.RateLimitRequests, a.cfg.RateLimitWindow).
		RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		l.Info("server starting", zap.String("addr", a.cfg.Addr))
		if err := e.Start(a.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return errors.Wrap(err, "start server")
	case <-ctx.Done():
	}

	l.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown server")
	}

	l.Info("server stopped")
	return nil
}
