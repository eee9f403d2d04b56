package service

import (
	"context"
	"time"

	"github.com/lbrs/book-reservation-service/book/internal/model"
	"github.com/lbrs/book-reservation-service/book/internal/repository"
	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	books    repository.BookRepository
	rsv      repository.ReservationRepository
	enqueuer Enqueuer
}

func NewService(books repository.BookRepository, rsv repository.ReservationRepository, enqueuer Enqueuer, log *zap.Logger) *Service {
	return &Service{
		log:      log,
		books:    books,
		rsv:      rsv,
		enqueuer: enqueuer,
	}
}

// SystemUserID is the actor recorded on status events produced by the
// expiry sweep rather than by a member.
const SystemUserID = "00000000-0000-0000-0000-000000000000"

func (s *Service) CreateBook(ctx context.Context, req model.AddBookRequest) (model.Book, error) {
	return s.books.CreateBook(ctx, req)
}

func (s *Service) UpdateBook(ctx context.Context, bookID string, req model.UpdateBookRequest) error {
	return s.books.UpdateBook(ctx, bookID, req)
}

func (s *Service) DeactivateBook(ctx context.Context, bookID string) error {
	return s.books.DeactivateBook(ctx, bookID)
}

func (s *Service) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	return s.books.GetBook(ctx, bookID)
}

func (s *Service) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	return s.books.ListBooks(ctx, page, size)
}

func (s *Service) SearchBooks(ctx context.Context, genre, author string, page, size int) (model.ListBooks, error) {
	return s.books.SearchBooks(ctx, genre, author, page, size)
}

// CreateReservation admits a reservation request for the acting user.
// Availability and duplicate checks plus the write are one atomic unit in
// the repository; on success exactly one copy has been taken.
func (s *Service) CreateReservation(ctx context.Context, bookID, userID, remarks string) (model.Reservation, error) {
	rsv, err := s.rsv.CreateReservation(ctx, bookID, userID, remarks)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(rsv)
	return rsv, nil
}

// ApplyTransition moves a reservation to the next lifecycle status.
func (s *Service) ApplyTransition(ctx context.Context, reservationID string, next model.StatusType, actingUserID string) (model.Reservation, error) {
	rsv, err := s.rsv.UpdateStatus(ctx, reservationID, next, actingUserID)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(rsv)
	return rsv, nil
}

func (s *Service) GetReservation(ctx context.Context, reservationID string) (model.Reservation, error) {
	return s.rsv.GetReservation(ctx, reservationID)
}

func (s *Service) ListReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.rsv.ListReservations(ctx, userID)
}

// publish emits a lifecycle event for the stats pipeline. Best effort: a
// broker failure must not fail the already committed operation.
func (s *Service) publish(rsv model.Reservation) {
	if s.enqueuer == nil {
		return
	}
	ev := kafka.ReservationEvent{
		ReservationID: rsv.ID,
		BookID:        rsv.BookID,
		UserID:        rsv.UserID,
		Status:        string(rsv.CurrentStatus()),
		Timestamp:     time.Now().UTC(),
	}
	if err := s.enqueuer.Enqueue(kafka.ReservationTopic, ev); err != nil {
		s.log.Warn("publish reservation event",
			zap.String("reservation_uid", rsv.ID), zap.Error(err))
	}
}
