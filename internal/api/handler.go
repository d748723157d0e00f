package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yakoovad/hackathon-teams/internal/metrics"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"github.com/yakoovad/hackathon-teams/internal/service"
	"github.com/yakoovad/hackathon-teams/internal/validate"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type Handler struct {
	team          *service.TeamService
	requests      *service.TeamRequestService
	registrations *service.RegistrationService

	healthChecker HealthChecker
	metrics       *metrics.Metrics

	limiter    RateLimiter
	rateLimit  int
	rateWindow time.Duration

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

func (h *Handler) WithRateLimiter(rl RateLimiter, limit int, window time.Duration) *Handler {
	h.limiter = rl
	h.rateLimit = limit
	h.rateWindow = window
	return h
}

func (h *Handler) WithTeamService(team *service.TeamService) *Handler {
	h.team = team
	return h
}

func (h *Handler) WithTeamRequestService(requests *service.TeamRequestService) *Handler {
	h.requests = requests
	return h
}

func (h *Handler) WithRegistrationService(registrations *service.RegistrationService) *Handler {
	h.registrations = registrations
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.metrics != nil {
		e.Use(MetricsMiddleware(h.metrics))
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}
	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	// attached per route so unknown paths still fall through to 404
	secured := []echo.MiddlewareFunc{
		AuthMiddleware(),
		RateLimitMiddleware(h.limiter, h.rateLimit, h.rateWindow, h.metrics),
	}

	e.POST("/teams", h.CreateTeam, secured...)
	e.GET("/teams/:teamId", h.GetTeam, secured...)
	e.PATCH("/teams/:teamId", h.UpdateTeam, secured...)

	e.POST("/teams/:teamId/requests", h.CreateTeamRequest, secured...)
	e.GET("/teams/:teamId/requests", h.ListTeamRequests, secured...)
	e.POST("/teams/:teamId/requests/:userId/accept", h.AcceptTeamRequest, secured...)
	e.DELETE("/teams/:teamId/requests/:userId", h.RejectTeamRequest, secured...)

	e.GET("/users/:userId/team-requests", h.ListActiveTeamRequests, secured...)
	e.GET("/hackathons/:hackathonId/registrations/:userId", h.CheckRegistration, secured...)
}

func (h *Handler) CreateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	in := &model.TeamInput{}
	if err := h.bindRequest(e, in); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	team, err := h.team.CreateTeam(e.Request().Context(), callerFromContext(e), in)
	if err != nil {
		l.Error("failed to create team", zap.String("team_name", in.Name), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusCreated, team)
}

func (h *Handler) GetTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("teamId")

	team, err := h.team.GetTeam(e.Request().Context(), teamID)
	if err != nil {
		l.Error("failed to get team", zap.String("team_id", teamID), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) UpdateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("teamId")

	patch := &model.TeamPatch{}
	if err := h.bindRequest(e, patch); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	l.Info("updating team", zap.String("team_id", teamID))

	team, err := h.team.UpdateTeam(e.Request().Context(), callerFromContext(e), teamID, patch)
	if err != nil {
		l.Error("failed to update team", zap.String("team_id", teamID), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) CreateTeamRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("teamId")

	var req struct {
		UserID    string          `json:"user_id" validate:"required"`
		Direction model.Direction `json:"direction" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	created, err := h.requests.CreateTeamRequest(e.Request().Context(), callerFromContext(e), teamID, req.UserID, req.Direction)
	if err != nil {
		l.Error("failed to create team request",
			zap.String("team_id", teamID),
			zap.String("user_id", req.UserID),
			zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusCreated, created)
}

func (h *Handler) ListTeamRequests(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("teamId")

	requests, err := h.requests.ListTeamRequests(e.Request().Context(), callerFromContext(e), teamID)
	if err != nil {
		l.Error("failed to list team requests", zap.String("team_id", teamID), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, requests)
}

func (h *Handler) ListActiveTeamRequests(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID := e.Param("userId")

	requests, err := h.requests.ListActiveTeamRequests(e.Request().Context(), callerFromContext(e), userID)
	if err != nil {
		l.Error("failed to list user team requests", zap.String("user_id", userID), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, requests)
}

func (h *Handler) AcceptTeamRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID, userID := e.Param("teamId"), e.Param("userId")

	l.Info("accepting team request", zap.String("team_id", teamID), zap.String("user_id", userID))

	member, err := h.requests.AcceptTeamRequest(e.Request().Context(), callerFromContext(e), teamID, userID)
	if err != nil {
		l.Error("failed to accept team request",
			zap.String("team_id", teamID),
			zap.String("user_id", userID),
			zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusCreated, member)
}

func (h *Handler) RejectTeamRequest(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID, userID := e.Param("teamId"), e.Param("userId")

	if err := h.requests.RejectTeamRequest(e.Request().Context(), callerFromContext(e), teamID, userID); err != nil {
		l.Error("failed to reject team request",
			zap.String("team_id", teamID),
			zap.String("user_id", userID),
			zap.Any("error", err))
		return transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) CheckRegistration(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	hackathonID, userID := e.Param("hackathonId"), e.Param("userId")

	registered, err := h.registrations.CheckRegistration(e.Request().Context(), userID, hackathonID)
	if err != nil {
		l.Error("failed to check registration",
			zap.String("hackathon_id", hackathonID),
			zap.String("user_id", userID),
			zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]bool{"registered": registered})
}

// bindRequest decodes the body only; the service validates after normalizing input.
func (h *Handler) bindRequest(e echo.Context, req any) *service.Error {
	if err := (&echo.DefaultBinder{}).BindBody(e, req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}
	return nil
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := h.bindRequest(e, req); err != nil {
		return err
	}

	if err := e.Validate(req); err != nil {
		return service.NewValidationError("request validation failed", validate.Fields(err))
	}
	return nil
}

func transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeInvalidBody:
		return e.JSON(http.StatusBadRequest, response)
	case service.ErrorCodeUnauthorized:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeForbidden, service.ErrorCodeNotRegistered:
		return e.JSON(http.StatusForbidden, response)
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeRequestExists, service.ErrorCodeAlreadyMember:
		return e.JSON(http.StatusConflict, response)
	case service.ErrorCodeRequestExpired:
		return e.JSON(http.StatusGone, response)
	case service.ErrorCodeRateLimited:
		return e.JSON(http.StatusTooManyRequests, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
