package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/errs"
	"github.com/mhudec/kniznica/internal/model"
)

type Repository interface {
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	CreateReservation(ctx context.Context, username, bookUid string) (model.Reservation, error)
	DeleteReservation(ctx context.Context, username, bookUid string) (model.Reservation, error)
	GetReservation(ctx context.Context, username, bookUid string) (model.Reservation, error)
	GetUserReservations(ctx context.Context, username string) ([]model.UserReservation, error)
}

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

const (
	booksTableName       = `books`
	reservationTableName = `reservation`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CreateReservation runs the whole reserve protocol in one transaction:
// the book row is locked, the duplicate and availability checks are
// evaluated against the locked state, and the ledger insert plus the
// counter decrement commit as one unit. Every failure path rolls back
// with zero side effects.
func (r *repository) CreateReservation(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var available int
	q := `select available_copies from books where book_uid = $1 for update`
	if err := tx.QueryRowContext(ctx, q, bookUid).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrBookNotFound
		}
		return model.Reservation{}, errors.Wrap(err, "lock book")
	}

	var exists bool
	q = `select exists(select 1 from reservation where username = $1 and book_uid = $2)`
	if err := tx.QueryRowContext(ctx, q, username, bookUid).Scan(&exists); err != nil {
		return model.Reservation{}, errors.Wrap(err, "duplicate check")
	}
	if exists {
		return model.Reservation{}, errs.ErrAlreadyReserved
	}
	if available <= 0 {
		return model.Reservation{}, errs.ErrBookUnavailable
	}

	var res model.Reservation
	q = `insert into reservation (reservation_uid, username, book_uid, reservation_date)
	values ($1, $2, $3, $4)
	returning id, reservation_uid, username, book_uid, reservation_date`
	if err := tx.GetContext(ctx, &res, q, uuid.New(), username, bookUid, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return model.Reservation{}, errs.ErrAlreadyReserved
		}
		r.log.Error("CreateReservation insert", zap.String("book_uid", bookUid), zap.Error(err))
		return model.Reservation{}, err
	}

	q = `update books set available_copies = available_copies - 1 where book_uid = $1`
	if _, err := tx.ExecContext(ctx, q, bookUid); err != nil {
		r.log.Error("CreateReservation decrement", zap.String("book_uid", bookUid), zap.Error(err))
		return model.Reservation{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Reservation{}, errors.Wrap(err, "commit")
	}
	return res, nil
}

// DeleteReservation is the cancel protocol: lock the book row, hard
// delete the ledger row keyed by (username, book_uid), increment the
// counter, commit as one unit.
func (r *repository) DeleteReservation(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var bookID int
	q := `select id from books where book_uid = $1 for update`
	if err := tx.QueryRowContext(ctx, q, bookUid).Scan(&bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// no book row means no ledger row either
			return model.Reservation{}, errs.ErrReservationNotFound
		}
		return model.Reservation{}, errors.Wrap(err, "lock book")
	}

	var res model.Reservation
	q = `delete from reservation where username = $1 and book_uid = $2
	returning id, reservation_uid, username, book_uid, reservation_date`
	if err := tx.GetContext(ctx, &res, q, username, bookUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrReservationNotFound
		}
		r.log.Error("DeleteReservation", zap.String("book_uid", bookUid), zap.Error(err))
		return model.Reservation{}, err
	}

	q = `update books set available_copies = available_copies + 1 where book_uid = $1`
	if _, err := tx.ExecContext(ctx, q, bookUid); err != nil {
		r.log.Error("DeleteReservation increment", zap.String("book_uid", bookUid), zap.Error(err))
		return model.Reservation{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Reservation{}, errors.Wrap(err, "commit")
	}
	return res, nil
}

func (r *repository) GetReservation(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	q, args, err := qb.Select("id", "reservation_uid", "username", "book_uid", "reservation_date").
		From(reservationTableName).
		Where(sq.Eq{"username": username}).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *repository) GetUserReservations(ctx context.Context, username string) ([]model.UserReservation, error) {
	q, args, err := qb.Select("r.reservation_uid", "r.book_uid", "b.title", "b.author", "b.isbn", "r.reservation_date").
		From(reservationTableName + " r").
		Join(booksTableName + " b on b.book_uid = r.book_uid").
		Where(sq.Eq{"r.username": username}).
		OrderBy("r.reservation_date desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.UserReservation
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	q, args, err := qb.Select("id", "book_uid", "title", "author", "isbn", "description", "cover_image",
		"total_copies", "available_copies", "created_at").
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error) {
	q := qb.Select("id", "book_uid", "title", "author", "isbn", "description", "cover_image",
		"total_copies", "available_copies", "created_at").
		From(booksTableName).
		OrderBy("created_at desc")

	if !showAll {
		q = q.Where(sq.Gt{"available_copies": 0})
	}
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
