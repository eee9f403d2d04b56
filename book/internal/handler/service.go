package handler

import (
	"context"

	"github.com/lbrs/book-reservation-service/book/internal/model"
	"github.com/lbrs/book-reservation-service/book/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.AddBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, bookID string, req model.UpdateBookRequest) error
	DeactivateBook(ctx context.Context, bookID string) error
	GetBook(ctx context.Context, bookID string) (model.Book, error)
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	SearchBooks(ctx context.Context, genre, author string, page, size int) (model.ListBooks, error)

	CreateReservation(ctx context.Context, bookID, userID, remarks string) (model.Reservation, error)
	ApplyTransition(ctx context.Context, reservationID string, next model.StatusType, actingUserID string) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (model.Reservation, error)
	ListReservations(ctx context.Context, userID string) ([]model.Reservation, error)
}

var _ BookService = (*service.Service)(nil)
