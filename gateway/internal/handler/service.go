package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/lbrs/book-reservation-service/gateway/internal/model"
	"github.com/lbrs/book-reservation-service/pkg/circuit_breaker"

	"github.com/lbrs/book-reservation-service/gateway/internal/service/book"
	"github.com/lbrs/book-reservation-service/gateway/internal/service/member"
	"github.com/lbrs/book-reservation-service/gateway/internal/service/stats"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var (
	_ BookService   = (*book.Service)(nil)
	_ MemberService = (*member.Service)(nil)
	_ StatsService  = (*stats.Service)(nil)
)

type BookService interface {
	ListBooks(c echo.Context) ([]byte, int, error)
	ManageBook(c echo.Context) ([]byte, int, error)
	GetBook(ctx context.Context, bookUid, authorization string) (model.Book, int, error)
	GetReservations(ctx context.Context, authorization string) ([]model.Reservation, int, error)
	GetReservation(c echo.Context) ([]byte, int, error)
	CreateReservation(ctx context.Context, request model.CreateReservationRequest, authorization string) (model.CreateReservationResponse, int, error)
	Transition(ctx context.Context, reservationUid, action, authorization string) (model.Reservation, int, error)
	CB() circuit_breaker.CircuitBreaker
}

type MemberService interface {
	Register(c echo.Context) ([]byte, int, error)
	Authorize(c echo.Context) ([]byte, int, error)
	Proxy(c echo.Context) ([]byte, int, error)
	CB() circuit_breaker.CircuitBreaker
}

type StatsService interface {
	GetStats(c echo.Context) ([]byte, int, error)
	CB() circuit_breaker.CircuitBreaker
}
