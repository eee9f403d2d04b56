package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lbrs/book-reservation-service/member/internal/errs"
	"github.com/lbrs/book-reservation-service/member/internal/model"
	"go.uber.org/zap"
)

type Repository interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByName(ctx context.Context, username string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	ListUsers(ctx context.Context, page, size int) (model.ListUsers, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	DeactivateUser(ctx context.Context, userID string) error
}

const (
	userTableName = `users`
	userColumns   = `id, user_uid, username, email, password_hash, role, is_active, created_date`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	q, args, err := qb.Insert(userTableName).
		Columns("user_uid", "username", "email", "password_hash", "role", "created_date").
		Values(uuid.NewString(), user.Username, user.Email, user.PasswordHash, user.Role, time.Now().UTC()).
		Suffix("returning " + userColumns).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var created model.User
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.User{}, errs.ErrDuplicate
		}
		r.log.Error("CreateUser", zap.String("username", user.Username), zap.Error(err))
		return model.User{}, err
	}
	return created, nil
}

func (r *repository) GetUserByName(ctx context.Context, username string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"username": username})
}

func (r *repository) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"user_uid": userID})
}

func (r *repository) getUser(ctx context.Context, pred sq.Eq) (model.User, error) {
	q, args, err := qb.Select(strings.Split(userColumns, ", ")...).
		From(userTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		r.log.Error("getUser", zap.Any("pred", pred), zap.Error(err))
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) ListUsers(ctx context.Context, page, size int) (model.ListUsers, error) {
	q := qb.Select(strings.Split(userColumns, ", ")...).
		From(userTableName).
		OrderBy("username")

	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListUsers{}, err
	}
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return model.ListUsers{}, err
	}
	return model.ListUsers{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(users),
		},
		Items: users,
	}, nil
}

func (r *repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	q, args, err := qb.Update(userTableName).
		Set("password_hash", passwordHash).
		Set("updated_date", time.Now().UTC()).
		Where(sq.Eq{"user_uid": userID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.exec(ctx, q, args)
}

func (r *repository) DeactivateUser(ctx context.Context, userID string) error {
	q, args, err := qb.Update(userTableName).
		Set("is_active", false).
		Set("updated_date", time.Now().UTC()).
		Where(sq.Eq{"user_uid": userID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.exec(ctx, q, args)
}

func (r *repository) exec(ctx context.Context, query string, args []interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("exec", zap.String("query", query), zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
