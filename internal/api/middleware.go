package api

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-teams/internal/auth"
	"github.com/yakoovad/hackathon-teams/internal/metrics"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"github.com/yakoovad/hackathon-teams/internal/service"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const callerKey = "caller"

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := res.Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			// the handler chain may have enriched the logger (e.g. with the caller)
			reqLogger = logger.FromContext(c.Request().Context())
			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

// AuthMiddleware requires a valid bearer token and stores the caller on the context.
func AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logger.FromContext(c.Request().Context())

			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				l.Warn("authorization header invalid", zap.Error(err))
				return transportError(c, service.NewError(service.ErrorCodeUnauthorized, "authentication required"))
			}

			userID, tokenType, ok := auth.IsValidToken(token)
			if !ok {
				l.Warn("token validation failed")
				return transportError(c, service.NewError(service.ErrorCodeUnauthorized, "authentication failed"))
			}

			caller := model.Caller{UserID: userID, Role: model.Role(tokenType)}
			c.Set(callerKey, caller)

			reqLogger := l.With(zap.String("caller_id", userID), zap.String("caller_role", string(tokenType)))
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), reqLogger)))

			return next(c)
		}
	}
}

func callerFromContext(c echo.Context) model.Caller {
	if caller, ok := c.Get(callerKey).(model.Caller); ok {
		return caller
	}
	return model.Caller{}
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// RateLimitMiddleware limits authenticated callers by user id and everyone else by IP.
func RateLimitMiddleware(rl RateLimiter, limit int, window time.Duration, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl == nil || limit <= 0 {
				return next(c)
			}

			key := "ip:" + c.RealIP()
			if caller := callerFromContext(c); caller.UserID != "" {
				key = "user:" + caller.UserID
			}

			decision := rl.Allow(c.Request().Context(), key, limit, window)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-decision.Count, 0)))
			if !decision.WindowEnd.IsZero() {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.WindowEnd.Unix(), 10))
			}

			if !decision.Allowed {
				if m != nil {
					m.RateLimitHit(c.Path())
				}
				logger.FromContext(c.Request().Context()).Warn("rate limit exceeded", zap.String("key", key))
				return transportError(c, service.NewError(service.ErrorCodeRateLimited, "rate limit exceeded"))
			}

			return next(c)
		}
	}
}

func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, status, time.Since(start))

			return err
		}
	}
}
