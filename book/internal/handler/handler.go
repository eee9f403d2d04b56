package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lbrs/book-reservation-service/book/internal/errs"
	"github.com/lbrs/book-reservation-service/book/internal/model"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	mw "github.com/lbrs/book-reservation-service/pkg/middleware"
	"github.com/lbrs/book-reservation-service/pkg/validate"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	svc BookService
	log *zap.Logger
}

func New(svc BookService, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
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
		mw.JwtAuthentication,
	)

	books := api.Group("/books")
	books.GET("", h.ListBooks)
	books.GET("/search", h.SearchBooks)
	books.GET("/:bookId", h.GetBook)
	books.POST("", h.AddBook, mw.RequireRole(auth.RoleAdmin))
	books.POST("/:bookId", h.UpdateBook, mw.RequireRole(auth.RoleAdmin))
	books.DELETE("/:bookId", h.DeleteBook, mw.RequireRole(auth.RoleAdmin))

	rsv := api.Group("/reservations", mw.RequireRole(auth.RoleMember))
	rsv.POST("", h.CreateReservation)
	rsv.GET("", h.ListReservations)
	rsv.GET("/:reservationId", h.GetReservation)
	rsv.POST("/:reservationId/pickup", h.Pickup)
	rsv.POST("/:reservationId/return", h.Return)
	rsv.POST("/:reservationId/cancel", h.Cancel)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps the error taxonomy onto status codes: absent or
// unavailable -> 404, conflicting duplicate -> 409, illegal transition ->
// 400, anything else is a persistence failure -> 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) AddBook(c echo.Context) error {
	var req model.AddBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.svc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	bookID := c.Param("bookId")
	if bookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookId is empty")
	}
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateBook(c.Request().Context(), bookID, req); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	bookID := c.Param("bookId")
	if bookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookId is empty")
	}
	if err := h.svc.DeactivateBook(c.Request().Context(), bookID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookID := c.Param("bookId")
	if bookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookId is empty")
	}
	book, err := h.svc.GetBook(c.Request().Context(), bookID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ListBooks(c echo.Context) error {
	page, size := paging(c)
	books, err := h.svc.ListBooks(c.Request().Context(), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) SearchBooks(c echo.Context) error {
	page, size := paging(c)
	books, err := h.svc.SearchBooks(c.Request().Context(), c.QueryParam("genre"), c.QueryParam("author"), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	rsv, err := h.svc.CreateReservation(ctx, req.BookID, auth.UserID(ctx), req.Remarks)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, model.CreateReservationResponse{
		ReservationID: rsv.ID,
		BookID:        rsv.BookID,
		Status:        rsv.CurrentStatus(),
	})
}

func (h *Handler) Pickup(c echo.Context) error {
	return h.transition(c, model.StatusPickedUp)
}

func (h *Handler) Return(c echo.Context) error {
	return h.transition(c, model.StatusReturned)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, model.StatusCancelled)
}

func (h *Handler) transition(c echo.Context, next model.StatusType) error {
	reservationID := c.Param("reservationId")
	if reservationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationId is empty")
	}
	ctx := c.Request().Context()
	rsv, err := h.svc.ApplyTransition(ctx, reservationID, next, auth.UserID(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

func (h *Handler) GetReservation(c echo.Context) error {
	reservationID := c.Param("reservationId")
	if reservationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationId is empty")
	}
	rsv, err := h.svc.GetReservation(c.Request().Context(), reservationID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

func (h *Handler) ListReservations(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListReservations(ctx, auth.UserID(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func paging(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if page < 0 {
		page = 0
	}
	if size < 0 {
		size = 0
	}
	return page, size
}
