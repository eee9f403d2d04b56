package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"github.com/lbrs/book-reservation-service/stats/internal/model"
	"go.uber.org/zap"
)

type Repository interface {
	GetStats(ctx context.Context) (model.StatsInfo, error)
	RecordEvent(ctx context.Context, event kafka.ReservationEvent) error
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

func (r *repository) RecordEvent(ctx context.Context, event kafka.ReservationEvent) error {
	q := `insert into events (timestamp, reservation_uid, book_uid, user_uid, status)
	values (@timestamp, @reservation_uid, @book_uid, @user_uid, @status)`
	args := pgx.NamedArgs{
		"timestamp":       event.Timestamp,
		"reservation_uid": event.ReservationID,
		"book_uid":        event.BookID,
		"user_uid":        event.UserID,
		"status":          event.Status,
	}
	_, err := r.db.Exec(ctx, q, args)
	return err
}

func (r *repository) GetStats(ctx context.Context) (model.StatsInfo, error) {
	const q = `
	select user_uid, max(timestamp) as last_updated,
	       coalesce(count(*) filter (where status = 'RESERVED'), 0) as cnt_reservations,
	       coalesce(count(*) filter (where status = 'PICKED_UP'), 0) as cnt_picked_up,
	       coalesce(count(*) filter (where status = 'RETURNED'), 0) as cnt_returned,
	       coalesce(count(*) filter (where status = 'CANCELLED'), 0) as cnt_cancelled,
	       coalesce(count(*) filter (where status = 'EXPIRED'), 0) as cnt_expired
	from events
	group by user_uid
	order by user_uid
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return model.StatsInfo{}, err
	}
	defer rows.Close()
	stats, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Stats])
	if err != nil {
		return model.StatsInfo{}, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return model.StatsInfo{Data: stats}, nil
}
