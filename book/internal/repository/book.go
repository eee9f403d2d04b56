package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lbrs/book-reservation-service/book/internal/errs"
	"github.com/lbrs/book-reservation-service/book/internal/model"
	"go.uber.org/zap"
)

type BookRepository interface {
	CreateBook(ctx context.Context, req model.AddBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, bookID string, req model.UpdateBookRequest) error
	DeactivateBook(ctx context.Context, bookID string) error
	GetBook(ctx context.Context, bookID string) (model.Book, error)
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	SearchBooks(ctx context.Context, genre, author string, page, size int) (model.ListBooks, error)
}

const (
	bookTableName              = `book`
	reservationTableName       = `reservation`
	reservationStatusTableName = `reservation_status`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type bookRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBookRepository(db *sqlx.DB, log *zap.Logger) (*bookRepository, error) {
	return &bookRepository{
		db:  db,
		log: log.Named("book-repo"),
	}, nil
}

const bookColumns = `book_uid, title, isbn, author, genre, published_year, publisher, description, total_copies, available_copies, is_active, created_date`

func (r *bookRepository) CreateBook(ctx context.Context, req model.AddBookRequest) (model.Book, error) {
	q, args, err := qb.Insert(bookTableName).
		Columns("book_uid", "title", "isbn", "author", "genre", "published_year", "publisher", "description", "total_copies", "available_copies", "is_active", "created_date").
		Values(uuid.NewString(), req.Title, req.ISBN, req.Author, req.Genre, req.PublishedYear, req.Publisher, req.Description, req.TotalCopies, req.TotalCopies, true, time.Now().UTC()).
		Suffix("returning " + bookColumns).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Book{}, errs.ErrDuplicate
		}
		r.log.Error("CreateBook", zap.String("isbn", req.ISBN), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) UpdateBook(ctx context.Context, bookID string, req model.UpdateBookRequest) error {
	q, args, err := qb.Update(bookTableName).
		Set("title", req.Title).
		Set("isbn", req.ISBN).
		Set("author", req.Author).
		Set("genre", req.Genre).
		Set("published_year", req.PublishedYear).
		Set("publisher", req.Publisher).
		Set("description", req.Description).
		Set("total_copies", req.TotalCopies).
		Set("available_copies", req.AvailableCopies).
		Where(sq.Eq{"book_uid": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.log.Error("UpdateBook", zap.String("book_uid", bookID), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeactivateBook soft-deletes a book. Inactive books are not reservable,
// existing reservations keep their history.
func (r *bookRepository) DeactivateBook(ctx context.Context, bookID string) error {
	q := fmt.Sprintf(`update %s set is_active = false where book_uid = $1`, bookTableName)
	res, err := r.db.ExecContext(ctx, q, bookID)
	if err != nil {
		r.log.Error("DeactivateBook", zap.String("book_uid", bookID), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *bookRepository) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	q, args, err := qb.Select(strings.Split(bookColumns, ", ")...).
		From(bookTableName).
		Where(sq.Eq{"book_uid": bookID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("GetBook", zap.String("book_uid", bookID), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	q := qb.Select(strings.Split(bookColumns, ", ")...).
		From(bookTableName).
		OrderBy("title")

	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func (r *bookRepository) SearchBooks(ctx context.Context, genre, author string, page, size int) (model.ListBooks, error) {
	q := qb.Select(strings.Split(bookColumns, ", ")...).
		From(bookTableName).
		Where(sq.Eq{"is_active": true}).
		OrderBy("title")

	if genre != "" {
		q = q.Where(sq.ILike{"genre": "%" + genre + "%"})
	}
	if author != "" {
		q = q.Where(sq.ILike{"author": "%" + author + "%"})
	}
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("SearchBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}
