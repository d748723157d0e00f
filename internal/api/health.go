package api

import (
	"context"
	"github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Version is reported by /health. Overridden at build time.
var Version = "v0.1.0"

type HealthChecker interface {
	HealthCheck() echo.HandlerFunc
}

// Pinger is anything that can verify its connection, such as *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthChecker struct {
	health *health.Health
}

func NewHealthChecker(checks ...health.Config) (HealthChecker, error) {
	h, err := health.New(health.WithComponent(health.Component{Name: "hackathon-teams", Version: Version}))
	if err != nil {
		return nil, errors.Wrap(err, "create health checker")
	}

	for _, check := range checks {
		if err = h.Register(check); err != nil {
			return nil, errors.Wrapf(err, "register health check %q", check.Name)
		}
	}

	return &healthChecker{
		health: h,
	}, nil
}

// PingCheck reports name as unhealthy when p cannot be reached.
// Optional dependencies pass skipOnErr so their outage only degrades the status.
func PingCheck(name string, p Pinger, skipOnErr bool) health.Config {
	return health.Config{
		Name:      name,
		Timeout:   healthCheckTimeout,
		SkipOnErr: skipOnErr,
		Check: func(ctx context.Context) error {
			return p.Ping(ctx)
		},
	}
}

func (h *healthChecker) HealthCheck() echo.HandlerFunc {
	return echo.WrapHandler(h.health.Handler())
}
