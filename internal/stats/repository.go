package stats

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/pkg/kafka"
)

type Repository interface {
	Record(ctx context.Context, event kafka.Event) error
	GetStats(ctx context.Context) ([]model.UserStats, error)
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("stats-repo"),
	}, nil
}

func (r *repository) Record(ctx context.Context, event kafka.Event) error {
	q := `insert into events (timestamp, username, reservation_uid, book_uid, simplex)
	values (@timestamp, @username, @reservation_uid, @book_uid, @simplex)`
	args := pgx.NamedArgs{
		"timestamp":       event.Timestamp,
		"username":        event.UserName,
		"reservation_uid": event.ReservationUid,
		"book_uid":        event.BookUid,
		"simplex":         event.Simplex,
	}
	_, err := r.db.Exec(ctx, q, args)
	return err
}

func (r *repository) GetStats(ctx context.Context) ([]model.UserStats, error) {
	const q = `
	select username,
	       coalesce(count(*) filter (where simplex = 'UP'), 0) - coalesce(count(*) filter (where simplex = 'DOWN'), 0) as active_reservations,
	       count(*) as total_events,
	       max(timestamp) as last_updated
	from events
	group by username
	order by username
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.UserStats
	for rows.Next() {
		var s model.UserStats
		if err := rows.Scan(&s.Username, &s.ActiveReservations, &s.TotalEvents, &s.LastUpdated); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
