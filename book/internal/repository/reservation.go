package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lbrs/book-reservation-service/book/internal/errs"
	"github.com/lbrs/book-reservation-service/book/internal/model"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	CreateReservation(ctx context.Context, bookID, userID, remarks string) (model.Reservation, error)
	UpdateStatus(ctx context.Context, reservationID string, next model.StatusType, actingUserID string) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (model.Reservation, error)
	ListReservations(ctx context.Context, userID string) ([]model.Reservation, error)
	ListOverdueReserved(ctx context.Context, olderThan time.Time) ([]string, error)
}

type reservationRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewReservationRepository(db *sqlx.DB, log *zap.Logger) (*reservationRepository, error) {
	return &reservationRepository{
		db:  db,
		log: log.Named("reservation-repo"),
	}, nil
}

// currentStatusQuery resolves the authoritative status of a reservation from
// its append-only history: latest created_date, ties broken by insert order.
const currentStatusQuery = `
	select status from reservation_status
	where reservation_uid = $1
	order by created_date desc, id desc
	limit 1`

// CreateReservation admits a reservation request. The whole check-then-write
// sequence runs in one transaction holding a row lock on the book, so
// concurrent requests for the same book (and hence for the same book/user
// pair) are serialized: availability and the duplicate predicate are always
// validated against committed state.
func (r *reservationRepository) CreateReservation(ctx context.Context, bookID, userID, remarks string) (model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var book struct {
		IsActive        bool `db:"is_active"`
		AvailableCopies int  `db:"available_copies"`
	}
	q := fmt.Sprintf(`select is_active, available_copies from %s where book_uid = $1 for update`, bookTableName)
	if err := tx.GetContext(ctx, &book, q, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		r.log.Error("CreateReservation lock book", zap.String("book_uid", bookID), zap.Error(err))
		return model.Reservation{}, err
	}
	if !book.IsActive || book.AvailableCopies <= 0 {
		return model.Reservation{}, errs.ErrNotFound
	}

	var activeExists bool
	dupQ := fmt.Sprintf(`
	select exists (
		select 1 from %s r
		where r.book_uid = $1 and r.user_uid = $2
		and (select s.status from %s s
			where s.reservation_uid = r.reservation_uid
			order by s.created_date desc, s.id desc limit 1) in ($3, $4))`,
		reservationTableName, reservationStatusTableName)
	if err := tx.GetContext(ctx, &activeExists, dupQ, bookID, userID, model.StatusReserved, model.StatusPickedUp); err != nil {
		r.log.Error("CreateReservation duplicate check",
			zap.String("book_uid", bookID), zap.String("user_uid", userID), zap.Error(err))
		return model.Reservation{}, err
	}
	if activeExists {
		return model.Reservation{}, errs.ErrDuplicate
	}

	now := time.Now().UTC()
	rsv := model.Reservation{
		ID:      uuid.NewString(),
		BookID:  bookID,
		UserID:  userID,
		Remarks: remarks,
	}
	insRsv, args, err := qb.Insert(reservationTableName).
		Columns("reservation_uid", "book_uid", "user_uid", "remarks").
		Values(rsv.ID, rsv.BookID, rsv.UserID, rsv.Remarks).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	if _, err := tx.ExecContext(ctx, insRsv, args...); err != nil {
		r.log.Error("CreateReservation insert", zap.String("book_uid", bookID), zap.String("user_uid", userID), zap.Error(err))
		return model.Reservation{}, err
	}

	status, err := r.appendStatus(ctx, tx, rsv.ID, model.StatusReserved, userID, now)
	if err != nil {
		return model.Reservation{}, err
	}
	rsv.StatusHistory = []model.ReservationStatus{status}

	// the row lock guarantees a copy is still there, the predicate is a
	// safety net against any write path bypassing the lock
	decQ := fmt.Sprintf(`update %s set available_copies = available_copies - 1 where book_uid = $1 and available_copies > 0`, bookTableName)
	res, err := tx.ExecContext(ctx, decQ, bookID)
	if err != nil {
		r.log.Error("CreateReservation decrement", zap.String("book_uid", bookID), zap.Error(err))
		return model.Reservation{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Reservation{}, errs.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	return rsv, nil
}

// UpdateStatus applies one lifecycle transition. The reservation row is
// locked for the duration, so concurrent transitions on one reservation
// resolve to a single winner; the loser sees the updated current status and
// fails the transition check.
func (r *reservationRepository) UpdateStatus(ctx context.Context, reservationID string, next model.StatusType, actingUserID string) (model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var rsv model.Reservation
	q := fmt.Sprintf(`select reservation_uid, book_uid, user_uid, remarks from %s where reservation_uid = $1 for update`, reservationTableName)
	if err := tx.GetContext(ctx, &rsv, q, reservationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		r.log.Error("UpdateStatus lock reservation", zap.String("reservation_uid", reservationID), zap.Error(err))
		return model.Reservation{}, err
	}

	var current model.StatusType
	if err := tx.GetContext(ctx, &current, currentStatusQuery, reservationID); err != nil {
		r.log.Error("UpdateStatus current status", zap.String("reservation_uid", reservationID), zap.Error(err))
		return model.Reservation{}, err
	}
	if !model.CanTransition(current, next) {
		return model.Reservation{}, errs.ErrInvalidTransition
	}

	if _, err := r.appendStatus(ctx, tx, reservationID, next, actingUserID, time.Now().UTC()); err != nil {
		return model.Reservation{}, err
	}

	// leaving a copy-consuming state frees the copy taken at admission
	if current.Consuming() && !next.Consuming() {
		incQ := fmt.Sprintf(`update %s set available_copies = available_copies + 1 where book_uid = $1`, bookTableName)
		if _, err := tx.ExecContext(ctx, incQ, rsv.BookID); err != nil {
			r.log.Error("UpdateStatus increment", zap.String("book_uid", rsv.BookID), zap.Error(err))
			return model.Reservation{}, err
		}
	}

	history, err := r.statusHistoryTx(ctx, tx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	rsv.StatusHistory = history

	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	return rsv, nil
}

func (r *reservationRepository) appendStatus(ctx context.Context, tx *sqlx.Tx, reservationID string, status model.StatusType, byUserID string, at time.Time) (model.ReservationStatus, error) {
	ev := model.ReservationStatus{
		ID:              uuid.NewString(),
		ReservationID:   reservationID,
		Status:          status,
		CreatedDate:     at,
		CreatedByUserID: byUserID,
	}
	q, args, err := qb.Insert(reservationStatusTableName).
		Columns("status_uid", "reservation_uid", "status", "created_date", "created_by_user_uid").
		Values(ev.ID, ev.ReservationID, ev.Status, ev.CreatedDate, ev.CreatedByUserID).
		ToSql()
	if err != nil {
		return model.ReservationStatus{}, err
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("appendStatus",
			zap.String("reservation_uid", reservationID), zap.String("status", string(status)), zap.Error(err))
		return model.ReservationStatus{}, err
	}
	return ev, nil
}

func (r *reservationRepository) GetReservation(ctx context.Context, reservationID string) (model.Reservation, error) {
	var rsv model.Reservation
	q, args, err := qb.Select("reservation_uid", "book_uid", "user_uid", "remarks").
		From(reservationTableName).
		Where(sq.Eq{"reservation_uid": reservationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	if err := r.db.GetContext(ctx, &rsv, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		r.log.Error("GetReservation", zap.String("reservation_uid", reservationID), zap.Error(err))
		return model.Reservation{}, err
	}
	history, err := r.statusHistory(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	rsv.StatusHistory = history
	return rsv, nil
}

func (r *reservationRepository) ListReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	q, args, err := qb.Select("reservation_uid", "book_uid", "user_uid", "remarks").
		From(reservationTableName).
		Where(sq.Eq{"user_uid": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.Reservation
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		r.log.Error("ListReservations", zap.String("user_uid", userID), zap.Error(err))
		return nil, err
	}
	for i := range items {
		history, err := r.statusHistory(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].StatusHistory = history
	}
	return items, nil
}

// ListOverdueReserved returns ids of reservations whose current status has
// been RESERVED since before the cutoff. Used by the expiry sweep; the
// actual transition goes through UpdateStatus so it takes the same locks.
func (r *reservationRepository) ListOverdueReserved(ctx context.Context, olderThan time.Time) ([]string, error) {
	q := fmt.Sprintf(`
	select r.reservation_uid from %s r
	join lateral (
		select s.status, s.created_date from %s s
		where s.reservation_uid = r.reservation_uid
		order by s.created_date desc, s.id desc limit 1
	) cur on true
	where cur.status = $1 and cur.created_date < $2`,
		reservationTableName, reservationStatusTableName)

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, q, model.StatusReserved, olderThan); err != nil {
		r.log.Error("ListOverdueReserved", zap.Time("older_than", olderThan), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

func (r *reservationRepository) statusHistory(ctx context.Context, reservationID string) ([]model.ReservationStatus, error) {
	q := fmt.Sprintf(`
	select status_uid, reservation_uid, status, created_date, created_by_user_uid
	from %s where reservation_uid = $1
	order by created_date, id`, reservationStatusTableName)

	var history []model.ReservationStatus
	if err := r.db.SelectContext(ctx, &history, q, reservationID); err != nil {
		r.log.Error("statusHistory", zap.String("reservation_uid", reservationID), zap.Error(err))
		return nil, err
	}
	return history, nil
}

func (r *reservationRepository) statusHistoryTx(ctx context.Context, tx *sqlx.Tx, reservationID string) ([]model.ReservationStatus, error) {
	q := fmt.Sprintf(`
	select status_uid, reservation_uid, status, created_date, created_by_user_uid
	from %s where reservation_uid = $1
	order by created_date, id`, reservationStatusTableName)

	var history []model.ReservationStatus
	if err := tx.SelectContext(ctx, &history, q, reservationID); err != nil {
		return nil, err
	}
	return history, nil
}
