package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lbrs/book-reservation-service/gateway/config"
	"github.com/lbrs/book-reservation-service/gateway/internal/model"
	"github.com/lbrs/book-reservation-service/gateway/internal/service/book"
	"github.com/lbrs/book-reservation-service/gateway/internal/service/member"
	"github.com/lbrs/book-reservation-service/gateway/internal/service/stats"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	mw "github.com/lbrs/book-reservation-service/pkg/middleware"
	"github.com/lbrs/book-reservation-service/pkg/validate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Handler struct {
	bookSvc   BookService
	memberSvc MemberService
	statsSvc  StatsService
	log       *zap.Logger
}

func New(log *zap.Logger, cfg config.Config) *Handler { //nolint:gocritic
	return &Handler{
		bookSvc:   book.NewService(log, cfg),
		memberSvc: member.NewService(log, cfg),
		statsSvc:  stats.NewService(log, cfg),
		log:       log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", mw.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(mw.RequestLoggerConfig()),
		middleware.RequestID(),
		mw.NewRateLimiter(apiRPS),
	)
	api.POST("/register", h.Register)
	api.POST("/authorize", h.Authorize)

	api = api.Group("", mw.JwtAuthentication)

	api.GET("/books", h.ListBooks)
	api.GET("/books/search", h.ListBooks)
	api.GET("/books/:bookId", h.ListBooks)
	api.POST("/books", h.ManageBook)
	api.POST("/books/:bookId", h.ManageBook)
	api.DELETE("/books/:bookId", h.ManageBook)

	api.POST("/reservations", h.CreateReservation)
	api.GET("/reservations", h.GetReservations)
	api.GET("/reservations/:reservationId", h.GetReservation)
	api.POST("/reservations/:reservationId/pickup", h.transitionHandler("pickup"))
	api.POST("/reservations/:reservationId/return", h.transitionHandler("return"))
	api.POST("/reservations/:reservationId/cancel", h.transitionHandler("cancel"))

	api.PUT("/password", h.ManageAccount)
	api.GET("/users", h.ManageAccount, mw.RequireRole(auth.RoleAdmin))
	api.GET("/users/:userId", h.ManageAccount, mw.RequireRole(auth.RoleAdmin))
	api.DELETE("/users/:userId", h.ManageAccount, mw.RequireRole(auth.RoleAdmin))

	api.GET("/stats", h.GetStats, mw.RequireRole(auth.RoleAdmin))

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Register(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.memberSvc.CB().Call(func() error {
		var err error
		data, code, err = h.memberSvc.Register(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSONBlob(code, data)
}

func (h *Handler) Authorize(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.memberSvc.CB().Call(func() error {
		var err error
		data, code, err = h.memberSvc.Authorize(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSONBlob(code, data)
}

// ManageAccount forwards password resets and user administration to the
// member service.
func (h *Handler) ManageAccount(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.memberSvc.CB().Call(func() error {
		var err error
		data, code, err = h.memberSvc.Proxy(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	if len(data) == 0 {
		return c.NoContent(code)
	}
	return c.JSONBlob(code, data)
}

func (h *Handler) ListBooks(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.bookSvc.CB().Call(func() error {
		var err error
		data, code, err = h.bookSvc.ListBooks(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSONBlob(code, data)
}

func (h *Handler) ManageBook(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.bookSvc.CB().Call(func() error {
		var err error
		data, code, err = h.bookSvc.ManageBook(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSONBlob(code, data)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	authorization := c.Request().Header.Get(echo.HeaderAuthorization)

	var rsv model.CreateReservationResponse
	if err := h.bookSvc.CB().Call(func() error {
		res, code, err := h.bookSvc.CreateReservation(c.Request().Context(), req, authorization)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		if code >= http.StatusBadRequest {
			return echo.NewHTTPError(code)
		}
		rsv = res
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rsv)
}

// GetReservations returns the caller reservations enriched with book details
// fetched concurrently from the book service.
func (h *Handler) GetReservations(c echo.Context) error {
	ctx := c.Request().Context()
	authorization := c.Request().Header.Get(echo.HeaderAuthorization)

	var reserves []model.Reservation
	if err := h.bookSvc.CB().Call(func() error {
		list, code, err := h.bookSvc.GetReservations(ctx, authorization)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		reserves = list
		return nil
	}); err != nil {
		return err
	}

	gg, ctx := errgroup.WithContext(ctx)
	books := make([]*model.Book, len(reserves))
	for i := range reserves {
		i := i
		gg.Go(func() error {
			return h.bookSvc.CB().Call(func() error {
				bk, code, err := h.bookSvc.GetBook(ctx, reserves[i].BookID, authorization)
				if err != nil {
					return echo.NewHTTPError(code, err.Error())
				}
				if code == http.StatusOK {
					books[i] = &bk
				}
				return nil
			})
		})
	}
	if err := gg.Wait(); err != nil {
		return err
	}

	items := make([]model.ReservationDetail, 0, len(reserves))
	for i := range reserves {
		items = append(items, model.ReservationDetail{
			Reservation: reserves[i],
			Book:        books[i],
		})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReservation(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.bookSvc.CB().Call(func() error {
		var err error
		data, code, err = h.bookSvc.GetReservation(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSONBlob(code, data)
}

func (h *Handler) transitionHandler(action string) echo.HandlerFunc {
	return func(c echo.Context) error {
		reservationID := c.Param("reservationId")
		if reservationID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "reservationId is empty")
		}
		authorization := c.Request().Header.Get(echo.HeaderAuthorization)

		var rsv model.Reservation
		if err := h.bookSvc.CB().Call(func() error {
			res, code, err := h.bookSvc.Transition(c.Request().Context(), reservationID, action, authorization)
			if err != nil {
				return echo.NewHTTPError(code, err.Error())
			}
			if code >= http.StatusBadRequest {
				return echo.NewHTTPError(code)
			}
			rsv = res
			return nil
		}); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, rsv)
	}
}

func (h *Handler) GetStats(c echo.Context) error {
	var (
		code int
		data []byte
	)
	if err := h.statsSvc.CB().Call(func() error {
		var err error
		data, code, err = h.statsSvc.GetStats(c)
		if err != nil {
			return echo.NewHTTPError(code, err.Error())
		}
		return nil
	}); err != nil {
		return err
	}
	return c.JSONBlob(code, data)
}
