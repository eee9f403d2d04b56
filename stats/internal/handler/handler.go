package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	mw "github.com/lbrs/book-reservation-service/pkg/middleware"
	"github.com/lbrs/book-reservation-service/stats/internal/model"
	"github.com/lbrs/book-reservation-service/stats/internal/service"
	"go.uber.org/zap"
)

type StatsService interface {
	GetStats(ctx context.Context) (model.StatsInfo, error)
}

var _ StatsService = (*service.Service)(nil)

type Handler struct {
	svc StatsService
	log *zap.Logger
}

func New(svc StatsService, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const apiRPS = 100

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{StackSize: 4 << 10}))
	e.GET("/manage/health", h.Health)

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(mw.RequestLoggerConfig()),
		middleware.RequestID(),
		mw.NewRateLimiter(apiRPS),
		mw.AuthContext,
	)
	api.GET("/stats", h.GetStats, mw.RequireRole(auth.RoleAdmin))

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
